package pool

import (
	"fmt"
	"sync"
	"testing"

	"granville/pkg/backend"
	"granville/pkg/modelspec"

	"github.com/stretchr/testify/require"
)

// fakeDriver counts loads and unloads and can be told to fail loads.
type fakeDriver struct {
	mu       sync.Mutex
	next     int
	loaded   map[int]string
	unloads  int
	closes   int
	failLoad bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{loaded: map[int]string{}}
}

func (d *fakeDriver) Name() string    { return "fake" }
func (d *fakeDriver) Version() string { return "0.0.1" }

func (d *fakeDriver) Load(path string) (backend.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failLoad {
		return nil, backend.ErrModelLoadFailed
	}
	d.next++
	d.loaded[d.next] = path
	return d.next, nil
}

func (d *fakeDriver) Unload(h backend.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.loaded, h.(int))
	d.unloads++
	return nil
}

func (d *fakeDriver) Generate(h backend.Handle, prompt string, maxTokens int) (string, error) {
	return prompt, nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

func load(t *testing.T, p *Pool, spec string) *Model {
	t.Helper()
	parsed, err := modelspec.Parse(spec)
	require.NoError(t, err)
	m, err := p.Load(parsed)
	require.NoError(t, err)
	return m
}

func TestLoadAssignsSequentialIDs(t *testing.T) {
	p := New(newFakeDriver())
	require.Equal(t, uint64(1), load(t, p, "a.gguf").ID)
	require.Equal(t, uint64(2), load(t, p, "b.gguf").ID)
	require.Equal(t, uint64(3), load(t, p, "c.gguf").ID)
	require.Equal(t, 3, p.Count())
}

func TestLoadExplicitIDAdvancesAutoAssign(t *testing.T) {
	p := New(newFakeDriver())
	require.Equal(t, uint64(1), load(t, p, "a.gguf").ID)
	require.Equal(t, uint64(5), load(t, p, "inference:5:b.gguf").ID)
	// The next auto id must step past the explicit one.
	require.Equal(t, uint64(6), load(t, p, "c.gguf").ID)
}

func TestLoadDuplicateExplicitIDFails(t *testing.T) {
	p := New(newFakeDriver())
	load(t, p, "inference:3:a.gguf")
	spec, err := modelspec.Parse("inference:3:b.gguf")
	require.NoError(t, err)
	_, err = p.Load(spec)
	require.Error(t, err)
	require.Equal(t, 1, p.Count())
}

func TestLoadFailureLeavesPoolUnchanged(t *testing.T) {
	drv := newFakeDriver()
	drv.failLoad = true
	p := New(drv)
	spec, err := modelspec.Parse("a.gguf")
	require.NoError(t, err)
	_, err = p.Load(spec)
	require.ErrorIs(t, err, backend.ErrModelLoadFailed)
	require.Equal(t, 0, p.Count())
}

func TestAcquireLeastBusyEmptyPool(t *testing.T) {
	p := New(newFakeDriver())
	require.Nil(t, p.AcquireLeastBusy(""))
}

func TestAcquireLeastBusySingleModel(t *testing.T) {
	p := New(newFakeDriver())
	m := load(t, p, "a.gguf")
	for i := 0; i < 3; i++ {
		got := p.AcquireLeastBusy("")
		require.Equal(t, m.ID, got.ID)
	}
	require.Equal(t, uint32(3), p.ActiveRequests()[m.ID])
}

func TestAcquireLeastBusyBalances(t *testing.T) {
	p := New(newFakeDriver())
	m1 := load(t, p, "a.gguf")
	m2 := load(t, p, "b.gguf")

	// Four claims with nothing released must split 2/2, not 4/0.
	for i := 0; i < 4; i++ {
		require.NotNil(t, p.AcquireLeastBusy(""))
	}
	active := p.ActiveRequests()
	require.Equal(t, uint32(2), active[m1.ID])
	require.Equal(t, uint32(2), active[m2.ID])
}

func TestAcquireLeastBusyTieBreaksByInsertionOrder(t *testing.T) {
	p := New(newFakeDriver())
	m1 := load(t, p, "a.gguf")
	load(t, p, "b.gguf")
	require.Equal(t, m1.ID, p.AcquireLeastBusy("").ID)
}

func TestAcquireLeastBusyTypeFilter(t *testing.T) {
	p := New(newFakeDriver())
	load(t, p, "stt:whisper.bin")
	inference := load(t, p, "inference:chat.gguf")
	unassigned := load(t, p, "plain.gguf")

	got := p.AcquireLeastBusy(modelspec.TypeInference)
	require.Equal(t, inference.ID, got.ID)

	// With the typed model busy, the unassigned model matches any filter.
	got = p.AcquireLeastBusy(modelspec.TypeInference)
	require.Equal(t, unassigned.ID, got.ID)

	// Unassigned models keep matching; only a pool with nothing but
	// foreign types yields none.
	typed := New(newFakeDriver())
	load(t, typed, "stt:whisper.bin")
	require.Nil(t, typed.AcquireLeastBusy(modelspec.TypeTTS))
}

func TestAcquireByID(t *testing.T) {
	p := New(newFakeDriver())
	m := load(t, p, "a.gguf")

	got, err := p.AcquireByID(m.ID)
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	require.Equal(t, uint32(1), p.ActiveRequests()[m.ID])

	_, err = p.AcquireByID(99)
	require.Error(t, err)
}

func TestReleaseSaturatesAtZero(t *testing.T) {
	p := New(newFakeDriver())
	m := load(t, p, "a.gguf")
	p.Release(m)
	p.Release(m)
	require.Equal(t, uint32(0), p.ActiveRequests()[m.ID])
	p.Release(nil) // must not panic
}

func TestConcurrentAcquireReleaseBalances(t *testing.T) {
	p := New(newFakeDriver())
	load(t, p, "a.gguf")
	load(t, p, "b.gguf")
	load(t, p, "c.gguf")

	const claims = 300
	var wg sync.WaitGroup
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := p.AcquireLeastBusy("")
			if m != nil {
				p.Release(m)
			}
		}()
	}
	wg.Wait()

	for id, active := range p.ActiveRequests() {
		require.Equal(t, uint32(0), active, "model %d still busy", id)
	}
}

func TestCloseUnloadsEverythingOnce(t *testing.T) {
	drv := newFakeDriver()
	p := New(drv)
	load(t, p, "a.gguf")
	load(t, p, "b.gguf")

	require.NoError(t, p.Close())
	require.Equal(t, 2, drv.unloads)
	require.Equal(t, 1, drv.closes)

	// Second close is a no-op.
	require.NoError(t, p.Close())
	require.Equal(t, 2, drv.unloads)
	require.Equal(t, 1, drv.closes)
}

func TestCloseOnEmptyPool(t *testing.T) {
	p := New(newFakeDriver())
	require.NoError(t, p.Close())
}

func TestGenerateRoutesToDriver(t *testing.T) {
	p := New(newFakeDriver())
	m := load(t, p, "a.gguf")
	out, err := p.Generate(m, "prompt text", 16)
	require.NoError(t, err)
	require.Equal(t, "prompt text", out)
}

func TestModelIDsNeverReused(t *testing.T) {
	p := New(newFakeDriver())
	seen := map[uint64]bool{}
	for i := 0; i < 20; i++ {
		m := load(t, p, fmt.Sprintf("m%d.gguf", i))
		require.False(t, seen[m.ID], "id %d reused", m.ID)
		seen[m.ID] = true
	}
}
