package present

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/remote"
)

// Titles of the three failure classes. They must stay distinct.
const (
	TitleIncomplete = "Incomplete form"
	TitleRejected   = "Request rejected"
	TitleConnection = "Connection error"
)

const notAvailable = "N/A"

// Op names the action a failure came from
type Op string

const (
	OpListNamespaces    Op = "Namespace lookup"
	OpListLoadBalancers Op = "Load balancer lookup"
	OpDiagnose          Op = "Diagnosis"
	OpFetchLogs         Op = "Log export"
	OpSendToIndex       Op = "Search index push"
	OpDownload          Op = "Download"
	OpIndexTest         Op = "Search index test"
	OpIndexConfig       Op = "Search index configuration"
)

// lookup reports whether the op only fills a form field
func (o Op) lookup() bool {
	return o == OpListNamespaces || o == OpListLoadBalancers
}

var fieldPrompts = map[string]string{
	domain.FieldTenant:       "Enter a tenant",
	domain.FieldNamespace:    "Select a namespace",
	domain.FieldLoadBalancer: "Select a load balancer",
}

// Validation describes input that was rejected before any request was made
func Validation(err error) Message {
	if errors.Is(err, domain.ErrIndexUnsupported) {
		return IndexUnsupported()
	}

	text := err.Error()
	var missing *domain.MissingFieldError
	if errors.As(err, &missing) {
		if prompt, ok := fieldPrompts[missing.Field]; ok {
			text = prompt
		}
	}
	return Message{
		Severity: SeverityWarning,
		Title:    TitleIncomplete,
		Lines:    []Line{{Value: text}},
	}
}

// Failure describes a remote or transport failure of op
func Failure(op Op, f *remote.Failure) Message {
	if f == nil {
		return Message{Severity: SeverityDanger, Title: TitleRejected, Lines: []Line{{Label: string(op), Value: "unknown error"}}}
	}

	if f.Kind == remote.FailureTransport {
		return Message{
			Severity: SeverityDanger,
			Title:    TitleConnection,
			Lines: []Line{
				{Label: string(op), Value: f.Message},
				{Value: "Check that the log API is running and reachable."},
			},
		}
	}

	m := Message{
		Severity: SeverityDanger,
		Title:    TitleRejected,
		Lines:    []Line{{Label: string(op), Value: f.Message}},
		Detail:   f.Detail,
	}
	if op.lookup() {
		m.Severity = SeverityWarning
	}
	if f.Status != 0 {
		m.Lines = append(m.Lines, Line{Label: "Status", Value: strconv.Itoa(f.Status)})
	}
	return m
}

// Diagnosis renders a load-balancer diagnostic report
func Diagnosis(loadBalancer string, d domain.Diagnosis) Message {
	status := "No logs found"
	if d.Status == domain.DiagnosisWorking {
		status = "Working"
	}

	m := Message{
		Severity: SeverityInfo,
		Title:    "Diagnosis: " + loadBalancer,
		Lines: []Line{
			{Label: "Status", Value: status},
			{Label: "Recommendation", Value: orNA(d.Recommendation)},
		},
	}
	for _, t := range d.Tests {
		value := t.Status
		if t.LogsFound != nil {
			value = fmt.Sprintf("%s logs found", humanize.Comma(int64(*t.LogsFound)))
		}
		check := CheckFail
		if t.Passed() {
			check = CheckPass
		}
		m.Lines = append(m.Lines, Line{Label: t.Name, Value: value, Check: check})
	}
	return m
}

// LogsReady announces a finished export with a download link to href
func LogsReady(e domain.LogExport, href string) Message {
	records := notAvailable
	if e.Records != nil {
		records = humanize.Comma(int64(*e.Records))
	}
	elapsed := notAvailable
	if e.TotalTimeSeconds != nil {
		elapsed = Seconds(*e.TotalTimeSeconds)
	}

	return Message{
		Severity: SeveritySuccess,
		Title:    "Logs ready",
		Lines: []Line{
			{Label: "Type", Value: e.LogType.Label()},
			{Label: "File", Value: orNA(e.File)},
			{Label: "Records", Value: records},
			{Label: "Time", Value: elapsed},
		},
		Link: &Link{Href: href, Text: "Download CSV"},
	}
}

// IndexSent summarizes a search index push. A non-zero error count is
// emphasized as danger.
func IndexSent(r domain.IndexReport) Message {
	sent := humanize.Comma(int64(r.DocumentsSent))
	if r.Records != nil && *r.Records > 0 {
		rate := float64(r.DocumentsSent) / float64(*r.Records) * 100
		sent = fmt.Sprintf("%s (%.1f%%)", sent, rate)
	}

	errLine := Line{Label: "Errors", Value: humanize.Comma(int64(r.Errors))}
	if r.Errors > 0 {
		errLine.Emphasis = SeverityDanger
	}

	lines := []Line{{Label: "Documents sent", Value: sent}, errLine}
	if r.Records != nil {
		lines = append(lines, Line{Label: "Records", Value: humanize.Comma(int64(*r.Records))})
	}
	lines = append(lines, Line{Label: "Index", Value: orNA(r.Index)})
	if r.TookMs != nil {
		lines = append(lines, Line{Label: "Indexing", Value: fmt.Sprintf("%s ms", humanize.Comma(*r.TookMs))})
	}
	lines = append(lines,
		Line{Label: "Fetch time", Value: Seconds(r.FetchTimeSeconds)},
		Line{Label: "Total time", Value: Seconds(r.TotalTimeSeconds)},
	)

	return Message{
		Severity: SeveritySuccess,
		Title:    "Logs sent to search index",
		Lines:    lines,
	}
}

// IndexUnsupported rejects an index push for a log type other than access
func IndexUnsupported() Message {
	return Message{
		Severity: SeverityWarning,
		Title:    "Unsupported log type",
		Lines:    []Line{{Value: "Only access logs can be sent to the search index."}},
	}
}

// Pending shows a busy message while an action runs
func Pending(text string) Message {
	return Message{Severity: SeverityInfo, Title: text, Busy: true}
}

// Seconds formats a duration in seconds with one decimal, e.g. "2.3s"
func Seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "s"
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
