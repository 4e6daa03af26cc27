package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

// queryFlags are the selection flags shared by the logs and index commands
type queryFlags struct {
	tenant       string
	namespace    string
	loadBalancer string
	logType      string
	hours        int
}

// bindQueryFlags registers the selection flags on cmd
func bindQueryFlags(cmd *cobra.Command, q *queryFlags) {
	cmd.Flags().StringVarP(&q.tenant, "tenant", "t", "", "Tenant (required)")
	cmd.Flags().StringVarP(&q.namespace, "namespace", "n", "", "Namespace (required)")
	cmd.Flags().StringVarP(&q.loadBalancer, "loadbalancer", "l", "", "Load balancer (required for access and security logs)")
	cmd.Flags().StringVar(&q.logType, "log-type", string(domain.LogTypeAccess), "Log type: access, audit or security")
	cmd.Flags().IntVar(&q.hours, "hours", constants.DefaultHours, "Time window in hours")
}

// query builds and validates the query. A load balancer given for audit
// logs is ignored.
func (q queryFlags) query() (domain.Query, error) {
	logType, err := domain.ParseLogType(q.logType)
	if err != nil {
		return domain.Query{}, err
	}

	out := domain.Query{
		LogType:   logType,
		Tenant:    q.tenant,
		Namespace: q.namespace,
		Hours:     q.hours,
	}
	if logType.RequiresLoadBalancer() {
		out.LoadBalancer = q.loadBalancer
	}
	if err := out.Validate(); err != nil {
		var missing *domain.MissingFieldError
		if errors.As(err, &missing) {
			return domain.Query{}, fmt.Errorf("--%s: %w", missing.Field, err)
		}
		return domain.Query{}, err
	}
	if out.Hours > constants.MaxHours {
		return domain.Query{}, fmt.Errorf("%w: at most %d", domain.ErrInvalidHours, constants.MaxHours)
	}
	return out, nil
}
