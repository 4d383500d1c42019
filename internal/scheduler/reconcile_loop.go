package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/discovery"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/inventory"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/metrics"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/reconcile"
)

// TickReport summarizes the last reconciliation tick.
type TickReport struct {
	At           time.Time     `json:"at"`
	CycleID      string        `json:"cycle_id"`
	Duration     time.Duration `json:"duration_ns"`
	Discovered   int           `json:"discovered"`
	Registered   []string      `json:"registered"`
	Unregistered []string      `json:"unregistered"`
	Failed       int           `json:"failed"`
	Error        string        `json:"error,omitempty"`
}

// ReconcileLoop keeps the registry in sync with the container inventory.
type ReconcileLoop struct {
	inventory     inventory.Inventory
	adapter       *discovery.Adapter
	reconciler    *reconcile.Reconciler
	logger        logger.Logger
	metrics       *metrics.Metrics
	clock         clock.Clock
	interval      time.Duration
	tickTimeout   time.Duration
	stopCh        chan struct{}
	done          chan struct{}
	manualTrigger chan struct{}

	lifecycle sync.Mutex
	activated atomic.Bool
	running   atomic.Bool
	stopOnce  sync.Once

	mu   sync.RWMutex
	last *TickReport
}

// NewReconcileLoop creates a loop that owns inv and closes it on Stop.
func NewReconcileLoop(
	inv inventory.Inventory,
	adapter *discovery.Adapter,
	reconciler *reconcile.Reconciler,
	log logger.Logger,
	m *metrics.Metrics,
	interval time.Duration,
	tickTimeout time.Duration,
	manualTrigger chan struct{},
) *ReconcileLoop {
	return &ReconcileLoop{
		inventory:     inv,
		adapter:       adapter,
		reconciler:    reconciler,
		logger:        log,
		metrics:       m,
		clock:         clock.New(),
		interval:      interval,
		tickTimeout:   tickTimeout,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// WithClock replaces the clock driving the ticker.
func (rl *ReconcileLoop) WithClock(c clock.Clock) *ReconcileLoop {
	rl.clock = c
	return rl
}

// Start clears the registry, runs a first tick and starts the periodic loop.
// Only the first call does anything.
func (rl *ReconcileLoop) Start(ctx context.Context) error {
	if !rl.begin() {
		return nil
	}

	rl.logger.Info("clearing registry before first reconciliation")
	clearCtx, cancel := context.WithTimeout(ctx, rl.tickTimeout)
	n, err := rl.reconciler.Clear(clearCtx)
	cancel()
	if err != nil {
		rl.logger.Error("failed to clear registry on start",
			logger.Int("servers", n),
			logger.Int("failed", len(multierr.Errors(err))),
			logger.Error(err))
	} else {
		rl.logger.Info("registry cleared",
			logger.Int("servers", n))
	}

	// Reconcile immediately on start
	rl.run(ctx)

	ticker := rl.clock.Ticker(rl.interval)
	go func() {
		defer close(rl.done)
		defer ticker.Stop()
		for {
			// Stop wins over a pending tick or trigger.
			select {
			case <-rl.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-ticker.C:
				rl.run(ctx)
			case <-rl.manualTrigger:
				rl.logger.Info("manual reconciliation triggered")
				rl.run(ctx)
			case <-rl.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// begin marks the loop running unless it was already started or stopped.
// Once running, Stop waits for done, so no tick outlives the inventory.
func (rl *ReconcileLoop) begin() bool {
	rl.lifecycle.Lock()
	defer rl.lifecycle.Unlock()

	select {
	case <-rl.stopCh:
		rl.logger.Warn("reconcile loop already stopped, ignoring activation")
		return false
	default:
	}
	if !rl.activated.CompareAndSwap(false, true) {
		rl.logger.Warn("reconcile loop already started, ignoring activation")
		return false
	}
	rl.running.Store(true)
	return true
}

// Stop ends the loop, waits for a running tick and closes the inventory.
func (rl *ReconcileLoop) Stop() {
	rl.stopOnce.Do(func() {
		rl.lifecycle.Lock()
		close(rl.stopCh)
		running := rl.running.Load()
		rl.lifecycle.Unlock()

		if running {
			<-rl.done
		}
		if err := rl.inventory.Close(); err != nil {
			rl.logger.Warn("failed to close container inventory",
				logger.Error(err))
		}
	})
}

// Activated reports whether Start has been called.
func (rl *ReconcileLoop) Activated() bool {
	return rl.activated.Load()
}

// LastReport returns the report of the last tick. The bool is false before
// the first tick.
func (rl *ReconcileLoop) LastReport() (TickReport, bool) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if rl.last == nil {
		return TickReport{}, false
	}
	return *rl.last, true
}

func (rl *ReconcileLoop) run(ctx context.Context) {
	if err := rl.Tick(ctx); err != nil {
		rl.logger.Error("reconciliation tick failed",
			logger.Error(err))
	}
}

// Tick runs one snapshot, discover, reconcile cycle.
func (rl *ReconcileLoop) Tick(ctx context.Context) error {
	started := rl.clock.Now()
	report := TickReport{
		At:      started,
		CycleID: uuid.NewString(),
	}
	log := rl.logger.With(logger.String("cycle_id", report.CycleID))

	ctx, cancel := context.WithTimeout(ctx, rl.tickTimeout)
	defer cancel()

	err := rl.tick(ctx, log, &report)

	report.Duration = rl.clock.Since(started)
	rl.metrics.TickDuration.Observe(report.Duration.Seconds())
	if err != nil {
		report.Error = err.Error()
		rl.metrics.Ticks.WithLabelValues(metrics.ResultError).Inc()
	} else {
		rl.metrics.Ticks.WithLabelValues(metrics.ResultOK).Inc()
	}

	rl.mu.Lock()
	rl.last = &report
	rl.mu.Unlock()

	return err
}

func (rl *ReconcileLoop) tick(ctx context.Context, log logger.Logger, report *TickReport) error {
	containers, err := rl.inventory.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot containers: %w", err)
	}

	discovered := rl.adapter.Discover(containers)
	report.Discovered = len(discovered)
	rl.metrics.DiscoveredServers.Set(float64(len(discovered)))
	log.Debug("discovered servers",
		logger.Int("containers", len(containers)),
		logger.Int("servers", len(discovered)))

	plan, err := rl.reconciler.With(log).Reconcile(ctx, discovered)
	report.Unregistered = plan.ToUnregister
	for _, svc := range plan.ToRegister {
		report.Registered = append(report.Registered, svc.Name)
	}
	if err != nil {
		report.Failed = len(multierr.Errors(err))
		return err
	}

	if !plan.Empty() {
		log.Info("reconciliation applied",
			logger.Int("registered", len(plan.ToRegister)),
			logger.Int("unregistered", len(plan.ToUnregister)))
	}
	return nil
}
