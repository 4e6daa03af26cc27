package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/selector"
)

//go:embed templates/*.html static
var assetFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"result": resultHTML,
}).ParseFS(assetFS, "templates/*.html"))

// formView is what the form panel template renders
type formView struct {
	State       selector.State
	LogTypes    []domain.LogType
	HourPresets []int
	MaxHours    int
}

// pageData is what the full pages render
type pageData struct {
	User   string // signed-in operator, shown in the header
	Email  string // login form value
	Error  string
	Form   formView
	Result *present.Message
}

func newFormView(st selector.State) formView {
	return formView{
		State:       st,
		LogTypes:    domain.LogTypes,
		HourPresets: constants.HourPresets,
		MaxHours:    constants.MaxHours,
	}
}

func currentResult(ws *Workspace) *present.Message {
	if m, ok := ws.Region.Current(); ok {
		return &m
	}
	return nil
}

// resultHTML renders the result region content, or nothing when empty
func resultHTML(m *present.Message) (template.HTML, error) {
	if m == nil {
		return "", nil
	}
	return present.HTML(*m)
}

// render executes a named template into a buffer first so a template error
// never leaves a half-written page.
func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("rendering template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
