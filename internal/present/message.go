// Package present builds and renders the single result region of the
// console. Every outcome (validation problem, remote failure, diagnosis,
// export, index push) becomes one Message; showing a new Message replaces
// the previous one.
package present

import "sync"

// Severity controls how a message is styled
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Check marks a line as a passed or failed diagnostic test
type Check string

const (
	CheckPass Check = "pass"
	CheckFail Check = "fail"
)

// Icon returns the glyph drawn next to a checked line
func (c Check) Icon() string {
	if c == CheckPass {
		return "✓"
	}
	return "✗"
}

// Line is one labelled value in a message body. Emphasis, when set,
// highlights the value independently of the message severity.
type Line struct {
	Label    string
	Value    string
	Emphasis Severity
	Check    Check
}

// Link is an action attached to a message
type Link struct {
	Href string
	Text string
}

// Message is the content of the result region. All strings are plain text;
// they are escaped when rendered.
type Message struct {
	Severity Severity
	Title    string
	Lines    []Line
	Link     *Link
	Detail   string // diagnostic blob shown collapsed
	Busy     bool   // an action is still running
}

// Region holds the latest message. Last call wins: there is no history.
type Region struct {
	mu      sync.RWMutex
	current Message
	shown   bool
}

// NewRegion creates an empty result region
func NewRegion() *Region {
	return &Region{}
}

// Show replaces the region content
func (r *Region) Show(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = m
	r.shown = true
}

// Current returns the displayed message, if any
func (r *Region) Current() (Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.shown
}

// Clear empties the region
func (r *Region) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = Message{}
	r.shown = false
}
