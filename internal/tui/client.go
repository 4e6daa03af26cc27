package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/remote"
	"github.com/charliek/logdesk/internal/selector"
)

// Client is the part of the remote log API the terminal console uses
type Client interface {
	selector.Lister
	Diagnose(ctx context.Context, tenant, namespace, loadBalancer string) remote.Result[domain.Diagnosis]
	FetchLogs(ctx context.Context, q domain.Query) remote.Result[domain.LogExport]
	SendToIndex(ctx context.Context, q domain.Query) remote.Result[domain.IndexReport]
	Download(ctx context.Context, file string) remote.Result[*remote.Download]
	DownloadURL(file string) string
}

// Compile-time check that the HTTP client serves the console
var _ Client = (*remote.Client)(nil)

// loginCmd verifies the credentials and stores the session
func (m Model) loginCmd(email, password string) tea.Cmd {
	ctx, gate := m.ctx, m.gate
	return func() tea.Msg {
		sess, err := gate.Login(ctx, email, password)
		return loginResultMsg{session: sess, err: err}
	}
}

// logoutCmd deletes the stored session
func (m Model) logoutCmd() tea.Cmd {
	ctx, gate := m.ctx, m.gate
	return func() tea.Msg {
		return loggedOutMsg{err: gate.Logout(ctx)}
	}
}

// selectorCmd runs a selector change that may call the API
func (m Model) selectorCmd(change func(context.Context, *selector.Selector)) tea.Cmd {
	ctx, sel := m.ctx, m.selector
	return func() tea.Msg {
		change(ctx, sel)
		return formUpdatedMsg{}
	}
}

// diagnoseCmd diagnoses the selected load balancer
func (m Model) diagnoseCmd() tea.Cmd {
	tenant, namespace, lb, err := m.selector.DiagnoseTarget()
	if err != nil {
		m.region.Show(present.Validation(err))
		return nil
	}

	ctx, client, region := m.ctx, m.client, m.region
	region.Show(present.Pending("Diagnosing " + lb + "..."))
	return func() tea.Msg {
		res := client.Diagnose(ctx, tenant, namespace, lb)
		if !res.OK() {
			region.Show(present.Failure(present.OpDiagnose, res.Failure))
		} else {
			region.Show(present.Diagnosis(lb, res.Value))
		}
		return actionDoneMsg{}
	}
}

// fetchLogsCmd exports the selected logs
func (m Model) fetchLogsCmd() tea.Cmd {
	q, err := m.selector.Query()
	if err != nil {
		m.region.Show(present.Validation(err))
		return nil
	}

	ctx, client, region := m.ctx, m.client, m.region
	region.Show(present.Pending("Fetching logs, please wait..."))
	return func() tea.Msg {
		res := client.FetchLogs(ctx, q)
		if !res.OK() {
			region.Show(present.Failure(present.OpFetchLogs, res.Failure))
			return actionDoneMsg{}
		}
		export := res.Value
		region.Show(present.LogsReady(export, client.DownloadURL(export.File)))
		return actionDoneMsg{export: &export}
	}
}

// sendToIndexCmd pushes the selected access logs to the search index
func (m Model) sendToIndexCmd() tea.Cmd {
	q, err := m.selector.IndexQuery()
	if err != nil {
		m.region.Show(present.Validation(err))
		return nil
	}

	ctx, client, region := m.ctx, m.client, m.region
	region.Show(present.Pending("Sending logs to the search index, please wait..."))
	return func() tea.Msg {
		res := client.SendToIndex(ctx, q)
		if !res.OK() {
			region.Show(present.Failure(present.OpSendToIndex, res.Failure))
		} else {
			region.Show(present.IndexSent(res.Value))
		}
		return actionDoneMsg{}
	}
}

// downloadCmd saves the last export into the output directory
func (m Model) downloadCmd(file string) tea.Cmd {
	ctx, client, dir := m.ctx, m.client, m.outputDir
	return func() tea.Msg {
		res := client.Download(ctx, file)
		if !res.OK() {
			return downloadDoneMsg{err: res.Failure}
		}
		path, err := saveDownload(res.Value, dir)
		return downloadDoneMsg{path: path, err: err}
	}
}

// saveDownload writes a download into dir under its base name
func saveDownload(dl *remote.Download, dir string) (string, error) {
	defer dl.Body.Close()

	path := filepath.Join(dir, filepath.Base(dl.Filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, dl.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
