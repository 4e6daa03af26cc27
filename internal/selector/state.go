package selector

import (
	"slices"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

// Status is the loading state of a dependent field
type Status string

const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusReady       Status = "ready"
	StatusEmpty       Status = "empty"
	StatusError       Status = "error"
	StatusNotRequired Status = "not_required"
)

// Placeholder texts shown in place of options
const (
	PromptEnterTenant      = "Enter a tenant first"
	PromptSelectNamespace  = "Select a namespace first"
	PromptLoading          = "Loading..."
	PromptChooseNamespace  = "Select a namespace"
	PromptChooseLB         = "Select a load balancer"
	PromptNoNamespaces     = "No namespaces available"
	PromptNoLoadBalancers  = "No load balancers available"
	PromptConnectionError  = "Connection error"
	PromptNotRequired      = "Not required for audit logs"
	NoteNotRequiredOnAudit = "(not required for audit logs)"
)

// Field is the state of the namespace or load-balancer control
type Field struct {
	Options     []string
	Value       string
	Status      Status
	Disabled    bool
	Required    bool
	Placeholder string
	Note        string // shown next to the field label
	Error       string
}

// Selectable reports whether the operator can pick an option
func (f Field) Selectable() bool {
	return !f.Disabled && f.Status == StatusReady
}

func (f Field) clone() Field {
	f.Options = slices.Clone(f.Options)
	return f
}

// State is a point-in-time copy of the form
type State struct {
	Tenant       string
	Namespace    Field
	LoadBalancer Field
	LogType      domain.LogType
	Hours        int // selected preset
	CustomHours  int // overrides Hours when positive
}

// EffectiveHours returns the custom value if set, else the preset
func (s State) EffectiveHours() int {
	if s.CustomHours > 0 {
		return s.CustomHours
	}
	return s.Hours
}

// Query builds the export query for the current selection
func (s State) Query() domain.Query {
	q := domain.Query{
		LogType:   s.LogType,
		Tenant:    s.Tenant,
		Namespace: s.Namespace.Value,
		Hours:     s.EffectiveHours(),
	}
	if s.LogType.RequiresLoadBalancer() {
		q.LoadBalancer = s.LoadBalancer.Value
	}
	return q
}

// CanDiagnose reports whether a load balancer is chosen for a log type
// that has one
func (s State) CanDiagnose() bool {
	return s.LogType.RequiresLoadBalancer() && s.LoadBalancer.Value != ""
}

// CanIndex reports whether the current log type can be sent to the index
func (s State) CanIndex() bool {
	return s.LogType.SupportsIndex()
}

func initialState() State {
	return State{
		Namespace:    awaitingTenant(),
		LoadBalancer: awaitingNamespace(),
		LogType:      domain.LogTypeAccess,
		Hours:        constants.DefaultHours,
	}
}

func awaitingTenant() Field {
	return Field{Status: StatusIdle, Disabled: true, Required: true, Placeholder: PromptEnterTenant}
}

func awaitingNamespace() Field {
	return Field{Status: StatusIdle, Disabled: true, Required: true, Placeholder: PromptSelectNamespace}
}

func notRequired() Field {
	return Field{Status: StatusNotRequired, Disabled: true, Placeholder: PromptNotRequired, Note: NoteNotRequiredOnAudit}
}

func loading() Field {
	return Field{Status: StatusLoading, Disabled: true, Required: true, Placeholder: PromptLoading}
}
