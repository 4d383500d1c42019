package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/discovery"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/inventory"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/metrics"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/reconcile"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/registry/registrytest"
)

const testNetwork = "minecraft-network"

type fakeInventory struct {
	mu         sync.Mutex
	containers []inventory.Container
	err        error
	closed     int
	afterClose int
	entered    chan struct{}
	release    chan struct{}
}

// hold blocks the next ListContainers call until release is closed.
func (f *fakeInventory) hold() (entered, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = make(chan struct{})
	f.release = make(chan struct{})
	return f.entered, f.release
}

func (f *fakeInventory) set(containers ...inventory.Container) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers = containers
}

func (f *fakeInventory) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeInventory) ListContainers(_ context.Context) ([]inventory.Container, error) {
	f.mu.Lock()
	entered, release := f.entered, f.release
	f.entered, f.release = nil, nil
	f.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed > 0 {
		f.afterClose++
	}
	if f.err != nil {
		return nil, fmt.Errorf("%w: %w", inventory.ErrUnavailable, f.err)
	}
	return append([]inventory.Container(nil), f.containers...), nil
}

func (f *fakeInventory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeInventory) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeInventory) listsAfterClose() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.afterClose
}

func container(id, image, name, addr string) inventory.Container {
	return inventory.Container{
		ID:       id,
		ImageID:  image,
		Names:    []string{"/" + name},
		Networks: map[string]inventory.Attachment{testNetwork: {Address: addr}},
	}
}

type fixture struct {
	loop    *ReconcileLoop
	inv     *fakeInventory
	reg     *registrytest.Recorder
	metrics *metrics.Metrics
	clock   *clock.Mock
	trigger chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New("error", false)
	f := &fixture{
		inv:     &fakeInventory{},
		reg:     registrytest.New(),
		metrics: metrics.New(),
		clock:   clock.NewMock(),
		trigger: make(chan struct{}, 1),
	}
	f.loop = NewReconcileLoop(
		f.inv,
		discovery.NewAdapter(testNetwork, 25565, "proxy", log),
		reconcile.New(f.reg, log, f.metrics),
		log,
		f.metrics,
		10*time.Second,
		5*time.Second,
		f.trigger,
	).WithClock(f.clock)

	t.Cleanup(f.loop.Stop)
	return f
}

func TestStartClearsRegistryBeforeFirstTick(t *testing.T) {
	f := newFixture(t)
	f.reg.Seed(
		domain.RegisteredServer{Name: "a", Host: "10.0.0.1", Port: 25565},
		domain.RegisteredServer{Name: "b", Host: "10.0.0.2", Port: 25565},
	)
	f.inv.set(container("ccccc99999", "abcdef123", "c", "10.0.0.3"))

	require.NoError(t, f.loop.Start(context.Background()))

	assert.Equal(t, []registrytest.Call{
		{Op: reconcile.OpUnregister, Name: "a"},
		{Op: reconcile.OpUnregister, Name: "b"},
		{Op: reconcile.OpRegister, Name: "c-abcde-ccccc"},
	}, f.reg.Calls())
	assert.Equal(t, []string{"c-abcde-ccccc"}, f.reg.Names())
	assert.True(t, f.loop.Activated())
}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.loop.Start(context.Background()))
	lists := f.reg.ListCalls()

	require.NoError(t, f.loop.Start(context.Background()))
	assert.Equal(t, lists, f.reg.ListCalls(), "second activation must not clear or tick")
}

func TestTickerRunsReconciliation(t *testing.T) {
	f := newFixture(t)
	f.inv.set(container("11111aaaaa", "img01", "hub-1", "10.0.0.1"))

	require.NoError(t, f.loop.Start(context.Background()))
	require.Equal(t, []string{"hub-1-img01-11111"}, f.reg.Names())

	f.inv.set(
		container("11111aaaaa", "img01", "hub-1", "10.0.0.1"),
		container("22222bbbbb", "img02", "hub-2", "10.0.0.2"),
	)
	f.clock.Add(10 * time.Second)

	assert.Eventually(t, func() bool {
		return len(f.reg.Names()) == 2
	}, time.Second, 5*time.Millisecond)

	f.inv.set()
	f.clock.Add(10 * time.Second)

	assert.Eventually(t, func() bool {
		return len(f.reg.Names()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestManualTriggerRunsExtraTick(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.loop.Start(context.Background()))
	require.Empty(t, f.reg.Names())

	f.inv.set(container("33333ccccc", "img03", "survival", "10.0.0.3"))
	f.trigger <- struct{}{}

	assert.Eventually(t, func() bool {
		names := f.reg.Names()
		return len(names) == 1 && names[0] == "survival-img03-33333"
	}, time.Second, 5*time.Millisecond)
}

func TestTickFailureLeavesRegistryUntouched(t *testing.T) {
	f := newFixture(t)
	f.reg.Seed(domain.RegisteredServer{Name: "lobby", Host: "10.0.0.1", Port: 25565})
	f.inv.fail(errors.New("daemon not reachable"))

	err := f.loop.Tick(context.Background())

	require.ErrorIs(t, err, inventory.ErrUnavailable)
	assert.Empty(t, f.reg.Calls())
	assert.Equal(t, []string{"lobby"}, f.reg.Names())

	report, ok := f.loop.LastReport()
	require.True(t, ok)
	assert.NotEmpty(t, report.CycleID)
	assert.Contains(t, report.Error, "daemon not reachable")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Ticks.WithLabelValues(metrics.ResultError)))
}

func TestTickReport(t *testing.T) {
	f := newFixture(t)
	f.reg.Seed(domain.RegisteredServer{Name: "old", Host: "10.0.0.1", Port: 25565})
	f.inv.set(
		container("44444ddddd", "img04", "lobby", "10.0.0.4"),
		container("55555eeeee", "img05", "velocity-proxy", "10.0.0.5"),
	)

	_, ok := f.loop.LastReport()
	require.False(t, ok)

	require.NoError(t, f.loop.Tick(context.Background()))

	report, ok := f.loop.LastReport()
	require.True(t, ok)
	assert.Equal(t, 1, report.Discovered)
	assert.Equal(t, []string{"lobby-img04-44444"}, report.Registered)
	assert.Equal(t, []string{"old"}, report.Unregistered)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Error)
	assert.Equal(t, f.clock.Now(), report.At)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DiscoveredServers))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Ticks.WithLabelValues(metrics.ResultOK)))
}

func TestTickCountsFailedMutations(t *testing.T) {
	f := newFixture(t)
	f.inv.set(
		container("66666fffff", "img06", "hub-a", "10.0.0.6"),
		container("77777ggggg", "img07", "hub-b", "10.0.0.7"),
	)
	f.reg.FailOn("hub-a-img06-66666")

	err := f.loop.Tick(context.Background())
	require.Error(t, err)

	report, _ := f.loop.LastReport()
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"hub-b-img07-77777"}, f.reg.Names())
}

func TestStopClosesInventory(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.loop.Start(context.Background()))

	f.loop.Stop()
	f.loop.Stop()

	assert.Equal(t, 1, f.inv.closeCount())
}

func TestStopWithoutStart(t *testing.T) {
	f := newFixture(t)

	f.loop.Stop()

	assert.Equal(t, 1, f.inv.closeCount())
	assert.False(t, f.loop.Activated())
}

func TestStopDuringFirstTickWaitsForIt(t *testing.T) {
	f := newFixture(t)
	entered, release := f.inv.hold()

	started := make(chan error, 1)
	go func() { started <- f.loop.Start(context.Background()) }()
	<-entered

	f.trigger <- struct{}{}
	stopped := make(chan struct{})
	go func() {
		f.loop.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the first tick was running")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, f.inv.closeCount())

	close(release)
	require.NoError(t, <-started)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	assert.Equal(t, 1, f.inv.closeCount())
	assert.Zero(t, f.inv.listsAfterClose(), "no tick ran against a closed inventory")
}

func TestStartAfterStopIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.loop.Stop()

	require.NoError(t, f.loop.Start(context.Background()))

	assert.False(t, f.loop.Activated())
	assert.Zero(t, f.inv.listsAfterClose())
}
