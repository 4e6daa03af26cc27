// Package selector keeps the tenant, namespace and load-balancer fields of
// the log form consistent with each other. Each form owns one Selector.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/remote"
)

// Lister loads the options of the dependent fields
type Lister interface {
	ListNamespaces(ctx context.Context, tenant string) remote.Result[[]string]
	ListLoadBalancers(ctx context.Context, tenant, namespace string) remote.Result[[]string]
}

// Reporter receives messages for the result region
type Reporter interface {
	Show(present.Message)
}

// Selector is the cascading form state. The mutex is never held during a
// remote call. Every fetch takes a token for its field; a response whose
// token is no longer current is dropped.
type Selector struct {
	lister   Lister
	reporter Reporter
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	lastTenant string
	nsToken    uint64
	lbToken    uint64
}

// New creates a Selector with an empty form
func New(lister Lister, reporter Reporter, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		lister:   lister,
		reporter: reporter,
		logger:   logger,
		state:    initialState(),
	}
}

// Snapshot returns a copy of the form state
func (s *Selector) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Selector) snapshotLocked() State {
	st := s.state
	st.Namespace = st.Namespace.clone()
	st.LoadBalancer = st.LoadBalancer.clone()
	return st
}

// OnTenantChange reloads namespaces for tenant. An empty tenant or the
// tenant that was last fetched successfully does not trigger a request.
func (s *Selector) OnTenantChange(ctx context.Context, tenant string) {
	tenant = strings.TrimSpace(tenant)

	s.mu.Lock()
	s.state.Tenant = tenant
	if tenant == "" || tenant == s.lastTenant {
		s.mu.Unlock()
		return
	}
	s.lastTenant = tenant
	s.state.Namespace = loading()
	s.state.LoadBalancer = s.idleLoadBalancerLocked()
	s.nsToken++
	s.lbToken++
	token := s.nsToken
	s.mu.Unlock()

	res := s.lister.ListNamespaces(ctx, tenant)

	s.mu.Lock()
	if token != s.nsToken {
		s.mu.Unlock()
		s.logger.Debug("discarding stale namespace list", "tenant", tenant)
		return
	}
	s.state.Namespace = applyList(res, PromptChooseNamespace, PromptNoNamespaces)
	if !res.OK() {
		// a failed lookup may be retried with the same tenant
		s.lastTenant = ""
	}
	s.mu.Unlock()

	if !res.OK() {
		s.logger.Warn("namespace lookup failed", "tenant", tenant, "error", res.Failure)
		s.report(present.Failure(present.OpListNamespaces, res.Failure))
	}
}

// OnNamespaceChange records the namespace and reloads load balancers. Audit
// logs need no load balancer, so nothing is fetched for them.
func (s *Selector) OnNamespaceChange(ctx context.Context, namespace string) {
	s.mu.Lock()
	s.state.Namespace.Value = strings.TrimSpace(namespace)
	s.lbToken++
	if s.state.Namespace.Value == "" || !s.state.LogType.RequiresLoadBalancer() {
		s.state.LoadBalancer = s.idleLoadBalancerLocked()
		s.mu.Unlock()
		return
	}
	token, tenant, ns := s.beginLoadBalancersLocked()
	s.mu.Unlock()

	s.loadBalancers(ctx, token, tenant, ns)
}

// OnLogTypeChange switches the log type. Audit clears and disables the load
// balancer. Any other type makes it required again and, when a namespace is
// chosen but no load balancer is, fetches the load balancers once.
func (s *Selector) OnLogTypeChange(ctx context.Context, logType domain.LogType) {
	s.mu.Lock()
	s.state.LogType = logType

	if !logType.RequiresLoadBalancer() {
		s.lbToken++
		s.state.LoadBalancer = notRequired()
		s.mu.Unlock()
		return
	}

	if s.state.Namespace.Value == "" {
		s.lbToken++
		s.state.LoadBalancer = awaitingNamespace()
		s.mu.Unlock()
		return
	}
	if s.state.LoadBalancer.Value != "" {
		s.state.LoadBalancer.Required = true
		s.state.LoadBalancer.Note = ""
		s.mu.Unlock()
		return
	}

	s.lbToken++
	token, tenant, ns := s.beginLoadBalancersLocked()
	s.mu.Unlock()

	s.loadBalancers(ctx, token, tenant, ns)
}

// OnLoadBalancerChange records the chosen load balancer
func (s *Selector) OnLoadBalancerChange(loadBalancer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.LogType.RequiresLoadBalancer() {
		return
	}
	s.state.LoadBalancer.Value = strings.TrimSpace(loadBalancer)
}

// SetHours selects a time range preset and clears any custom value
func (s *Selector) SetHours(hours int) error {
	if err := checkHours(hours); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Hours = hours
	s.state.CustomHours = 0
	return nil
}

// SetCustomHours overrides the preset. Zero removes the override.
func (s *Selector) SetCustomHours(hours int) error {
	if hours != 0 {
		if err := checkHours(hours); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CustomHours = hours
	return nil
}

// Reset clears the form. In-flight fetches are discarded when they return.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = initialState()
	s.lastTenant = ""
	s.nsToken++
	s.lbToken++
}

// Query returns the export query and checks its required fields
func (s *Selector) Query() (domain.Query, error) {
	q := s.Snapshot().Query()
	return q, q.Validate()
}

// Validate checks the required fields for an export
func (s *Selector) Validate() error {
	_, err := s.Query()
	return err
}

// DiagnoseTarget returns the load balancer to diagnose. Diagnosis always
// needs a load balancer, whatever the log type.
func (s *Selector) DiagnoseTarget() (tenant, namespace, loadBalancer string, err error) {
	st := s.Snapshot()
	switch {
	case st.Tenant == "":
		err = &domain.MissingFieldError{Field: domain.FieldTenant}
	case st.Namespace.Value == "":
		err = &domain.MissingFieldError{Field: domain.FieldNamespace}
	case !st.CanDiagnose():
		err = &domain.MissingFieldError{Field: domain.FieldLoadBalancer}
	}
	return st.Tenant, st.Namespace.Value, st.LoadBalancer.Value, err
}

// IndexQuery returns the query for a search index push. Only access logs
// are accepted.
func (s *Selector) IndexQuery() (domain.Query, error) {
	q, err := s.Query()
	if err != nil {
		return q, err
	}
	if !q.LogType.SupportsIndex() {
		return q, domain.ErrIndexUnsupported
	}
	return q, nil
}

func (s *Selector) idleLoadBalancerLocked() Field {
	if !s.state.LogType.RequiresLoadBalancer() {
		return notRequired()
	}
	return awaitingNamespace()
}

// beginLoadBalancersLocked marks the load balancer as loading and returns
// the request parameters. The caller must hold mu and have bumped lbToken.
func (s *Selector) beginLoadBalancersLocked() (uint64, string, string) {
	s.state.LoadBalancer = loading()
	return s.lbToken, s.lastTenant, s.state.Namespace.Value
}

func (s *Selector) loadBalancers(ctx context.Context, token uint64, tenant, namespace string) {
	res := s.lister.ListLoadBalancers(ctx, tenant, namespace)

	s.mu.Lock()
	if token != s.lbToken {
		s.mu.Unlock()
		s.logger.Debug("discarding stale load balancer list", "tenant", tenant, "namespace", namespace)
		return
	}
	s.state.LoadBalancer = applyList(res, PromptChooseLB, PromptNoLoadBalancers)
	s.mu.Unlock()

	if !res.OK() {
		s.logger.Warn("load balancer lookup failed", "tenant", tenant, "namespace", namespace, "error", res.Failure)
		s.report(present.Failure(present.OpListLoadBalancers, res.Failure))
	}
}

func (s *Selector) report(m present.Message) {
	if s.reporter != nil {
		s.reporter.Show(m)
	}
}

// applyList turns a list result into field state. An empty list and a
// failed fetch produce different statuses and placeholders.
func applyList(res remote.Result[[]string], choose, none string) Field {
	f := Field{Required: true}
	switch {
	case !res.OK():
		f.Status = StatusError
		f.Disabled = true
		f.Error = res.Failure.Message
		f.Placeholder = "Error: " + res.Failure.Message
		if res.Failure.Kind == remote.FailureTransport {
			f.Placeholder = PromptConnectionError
		}
	case len(res.Value) == 0:
		f.Status = StatusEmpty
		f.Disabled = true
		f.Placeholder = none
	default:
		f.Status = StatusReady
		f.Options = res.Value
		f.Placeholder = choose
	}
	return f
}

func checkHours(hours int) error {
	if hours <= 0 || hours > constants.MaxHours {
		return fmt.Errorf("%w: %d (max %d)", domain.ErrInvalidHours, hours, constants.MaxHours)
	}
	return nil
}
