// Package reconcile diffs the discovered backends against the registry and
// applies the difference.
//
// A cycle holds no state of its own: both sides are read fresh every time, so a
// cycle that fails halfway is repaired by the next one.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/metrics"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/registry"
)

const (
	OpRegister   = "register"
	OpUnregister = "unregister"
)

// Plan is the set of registry mutations of one cycle.
type Plan struct {
	ToUnregister []string
	ToRegister   []domain.Service
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.ToUnregister) == 0 && len(p.ToRegister) == 0
}

// MutationError is the failure of a single register or unregister call.
type MutationError struct {
	Op   string
	Name string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Diff computes the plan turning registered into discovered.
// Names present on both sides are left alone, even if host or port changed.
func Diff(discovered map[string]domain.Service, registered []string) Plan {
	var plan Plan

	known := make(map[string]bool, len(registered))
	for _, name := range registered {
		known[name] = true
		if _, ok := discovered[name]; !ok {
			plan.ToUnregister = append(plan.ToUnregister, name)
		}
	}

	for name, svc := range discovered {
		if !known[name] {
			plan.ToRegister = append(plan.ToRegister, svc)
		}
	}

	sort.Strings(plan.ToUnregister)
	sort.Slice(plan.ToRegister, func(i, j int) bool { return plan.ToRegister[i].Name < plan.ToRegister[j].Name })
	return plan
}

// Reconciler applies plans to a registry.
type Reconciler struct {
	registry registry.Registry
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// New creates a reconciler for reg.
func New(reg registry.Registry, log logger.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		registry: reg,
		logger:   log,
		metrics:  m,
	}
}

// With returns a copy of r logging to log.
func (r *Reconciler) With(log logger.Logger) *Reconciler {
	cp := *r
	cp.logger = log
	return &cp
}

// Reconcile reads the registered names, diffs them against discovered and
// applies the plan. A failure to read the registry aborts before any mutation.
// The returned plan is what was attempted; the error aggregates failed calls.
func (r *Reconciler) Reconcile(ctx context.Context, discovered map[string]domain.Service) (Plan, error) {
	servers, err := r.registry.List(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to list registered servers: %w", err)
	}

	plan := Diff(discovered, domain.Names(servers))
	if plan.Empty() {
		r.logger.Debug("registry already converged",
			logger.Int("servers", len(servers)))
		return plan, nil
	}

	return plan, r.Apply(ctx, plan)
}

// Clear unregisters every server currently in the registry.
func (r *Reconciler) Clear(ctx context.Context) (int, error) {
	servers, err := r.registry.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list registered servers: %w", err)
	}

	plan := Plan{ToUnregister: domain.Names(servers)}
	return len(plan.ToUnregister), r.Apply(ctx, plan)
}

// Apply issues every unregistration, then every registration. Each call is
// independent: a failure is logged and collected, and the next call still runs.
func (r *Reconciler) Apply(ctx context.Context, plan Plan) error {
	var errs error

	for _, name := range plan.ToUnregister {
		if err := r.registry.Unregister(ctx, name); err != nil {
			errs = multierr.Append(errs, r.failed(OpUnregister, name, err))
			continue
		}
		r.metrics.Mutations.WithLabelValues(OpUnregister, metrics.ResultOK).Inc()
		r.logger.Info("unregistered server",
			logger.String("server", name))
	}

	for _, svc := range plan.ToRegister {
		if err := r.registry.Register(ctx, svc.Name, svc.Host, svc.Port); err != nil {
			errs = multierr.Append(errs, r.failed(OpRegister, svc.Name, err))
			continue
		}
		r.metrics.Mutations.WithLabelValues(OpRegister, metrics.ResultOK).Inc()
		r.logger.Info("registered server",
			logger.String("server", svc.Name),
			logger.String("address", svc.Address()))
	}

	return errs
}

func (r *Reconciler) failed(op, name string, err error) error {
	r.metrics.Mutations.WithLabelValues(op, metrics.ResultError).Inc()
	r.logger.Error("registry mutation failed",
		logger.String("op", op),
		logger.String("server", name),
		logger.Error(err))
	return &MutationError{Op: op, Name: name, Err: err}
}
