package present

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/logdesk/internal/constants"
)

//go:embed templates/result.html
var templateFS embed.FS

// Templates holds the result fragment. Other template sets can include it
// with {{template "result" .}}.
var Templates = template.Must(template.ParseFS(templateFS, "templates/result.html"))

// RenderHTML writes m as an HTML fragment
func RenderHTML(w io.Writer, m Message) error {
	return Templates.ExecuteTemplate(w, "result", m)
}

// HTML renders m into a string that can be embedded in another template
func HTML(m Message) (template.HTML, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, m); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

var severityColors = map[Severity]lipgloss.Color{
	SeverityInfo:    lipgloss.Color(constants.ColorInfo),
	SeveritySuccess: lipgloss.Color(constants.ColorSuccess),
	SeverityWarning: lipgloss.Color(constants.ColorWarning),
	SeverityDanger:  lipgloss.Color(constants.ColorDanger),
}

var (
	labelStyle  = lipgloss.NewStyle().Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(constants.ColorDim))
	linkStyle   = lipgloss.NewStyle().Underline(true)
)

// SeverityColor returns the terminal color of a severity
func SeverityColor(s Severity) lipgloss.Color {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return severityColors[SeverityInfo]
}

// Terminal renders m for a terminal, framed in the severity color
func Terminal(m Message, width int) string {
	color := SeverityColor(m.Severity)

	var b strings.Builder
	if m.Title != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(color).Render(m.Title))
	}
	for _, line := range m.Lines {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if line.Check != "" {
			checkColor := SeverityColor(SeveritySuccess)
			if line.Check == CheckFail {
				checkColor = SeverityColor(SeverityDanger)
			}
			b.WriteString(lipgloss.NewStyle().Foreground(checkColor).Render(line.Check.Icon()) + " ")
		}
		if line.Label != "" {
			b.WriteString(labelStyle.Render(line.Label+":") + " ")
		}
		value := line.Value
		if line.Emphasis != "" {
			value = lipgloss.NewStyle().Bold(true).Foreground(SeverityColor(line.Emphasis)).Render(value)
		}
		b.WriteString(value)
	}
	if m.Link != nil {
		b.WriteString("\n" + m.Link.Text + ": " + linkStyle.Render(m.Link.Href))
	}
	if m.Detail != "" {
		b.WriteString("\n\n" + detailStyle.Render(m.Detail))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
	if width > 4 {
		box = box.Width(width - 2)
	}
	return box.Render(b.String())
}
