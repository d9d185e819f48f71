package aggregator

import (
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dtnitsch/wordfreq/pkg/freq"
	"github.com/dtnitsch/wordfreq/pkg/metrics"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type textSource struct {
	name   string
	text   string
	closed *atomic.Bool
}

func (s textSource) Name() string { return s.name }

func (s textSource) Open() (io.ReadCloser, error) {
	return &trackedReader{Reader: strings.NewReader(s.text), closed: s.closed}, nil
}

type trackedReader struct {
	io.Reader
	closed *atomic.Bool
}

func (r *trackedReader) Close() error {
	if r.closed != nil {
		r.closed.Store(true)
	}
	return nil
}

type openFailSource struct {
	name string
	err  error
}

func (s openFailSource) Name() string { return s.name }

func (s openFailSource) Open() (io.ReadCloser, error) { return nil, s.err }

type readFailSource struct {
	name   string
	prefix string
	err    error
}

func (s readFailSource) Name() string { return s.name }

func (s readFailSource) Open() (io.ReadCloser, error) {
	r := io.MultiReader(strings.NewReader(s.prefix), iotest.ErrReader(s.err))
	return io.NopCloser(r), nil
}

// gate holds every reader in its first Read until n readers have arrived.
type gate struct {
	n       int32
	arrived atomic.Int32
	once    sync.Once
	open    chan struct{}
}

func newGate(n int) *gate {
	return &gate{n: int32(n), open: make(chan struct{})}
}

var errGateTimeout = errors.New("not every reader arrived at the gate")

func (g *gate) wait() error {
	if g.arrived.Add(1) == g.n {
		g.once.Do(func() { close(g.open) })
	}
	select {
	case <-g.open:
		return nil
	case <-time.After(5 * time.Second):
		return errGateTimeout
	}
}

type gatedSource struct {
	name string
	text string
	gate *gate
}

func (s gatedSource) Name() string { return s.name }

func (s gatedSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(&gatedReader{Reader: strings.NewReader(s.text), gate: s.gate}), nil
}

type gatedReader struct {
	*strings.Reader
	gate    *gate
	entered bool
}

func (r *gatedReader) Read(p []byte) (int, error) {
	if !r.entered {
		r.entered = true
		if err := r.gate.wait(); err != nil {
			return 0, err
		}
	}
	return r.Reader.Read(p)
}

func text(name, body string) Source {
	return textSource{name: name, text: body}
}

func run(t *testing.T, sources ...Source) (*freq.Snapshot, *Result) {
	t.Helper()

	table := freq.NewLocked()
	result, err := New(table).Run(sources)
	require.NoError(t, err)
	return table.Snapshot(), result
}

func TestSingleSource(t *testing.T) {
	snap, result := run(t, text("a.txt", "a a b"))

	require.Equal(t, map[string]int{"a": 2, "b": 1}, snap.Map())
	require.NoError(t, result.Err())
	require.Equal(t, 3, result.Tokens())
	require.Len(t, result.Sources, 1)
	require.Equal(t, "a.txt", result.Sources[0].Name)
}

func TestCaseFoldedAcrossSources(t *testing.T) {
	snap, result := run(t, text("one", "x y"), text("two", "X Z"))

	require.Equal(t, map[string]int{"x": 2, "y": 1, "z": 1}, snap.Map())
	require.Equal(t, []int{2, 2}, []int{result.Sources[0].Tokens, result.Sources[1].Tokens})
}

func TestEmptySourceContributesNothing(t *testing.T) {
	alone, _ := run(t, text("full", "the quick brown fox jumps over the lazy dog"))
	withEmpty, result := run(t, text("empty", ""), text("full", "the quick brown fox jumps over the lazy dog"))

	require.Equal(t, alone.Entries(), withEmpty.Entries())
	require.Equal(t, 0, result.Sources[0].Tokens)
	require.NoError(t, result.Err())
}

func TestOpenFailureAbortsBeforeCounting(t *testing.T) {
	var closed atomic.Bool
	missing := errors.New("no such file")

	table := freq.NewLocked()
	result, err := New(table).Run([]Source{
		textSource{name: "ok.txt", text: "a b c", closed: &closed},
		openFailSource{name: "missing.txt", err: missing},
		text("never.txt", "d e f"),
	})

	require.Nil(t, result)
	var openErr *SourceOpenError
	require.ErrorAs(t, err, &openErr)
	require.Equal(t, "missing.txt", openErr.Source)
	require.ErrorIs(t, err, missing)
	require.Contains(t, err.Error(), "missing.txt")

	require.True(t, closed.Load(), "already opened sources must be closed")
	require.Equal(t, 0, table.Snapshot().Len())
}

func TestReadFailureDoesNotStopSiblings(t *testing.T) {
	boom := errors.New("disk on fire")

	table := freq.NewLocked()
	result, err := New(table).Run([]Source{
		text("good-1", "alpha beta"),
		readFailSource{name: "bad", prefix: "gamma ", err: boom},
		text("good-2", "alpha delta"),
	})
	require.NoError(t, err)

	require.NoError(t, result.Sources[0].Err)
	require.NoError(t, result.Sources[2].Err)

	var readErr *SourceReadError
	require.ErrorAs(t, result.Sources[1].Err, &readErr)
	require.Equal(t, "bad", readErr.Source)
	require.ErrorIs(t, result.Err(), boom)
	require.Len(t, result.Failed(), 1)

	snap := table.Snapshot()
	n, _ := snap.Get("alpha")
	require.Equal(t, 2, n)
	n, _ = snap.Get("delta")
	require.Equal(t, 1, n)
}

func TestMultipleReadFailuresAreCombined(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	_, result := run(t,
		readFailSource{name: "one", err: first},
		text("fine", "ok"),
		readFailSource{name: "two", err: second},
	)

	err := result.Err()
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	require.Len(t, result.Failed(), 2)
}

func TestNoSources(t *testing.T) {
	_, err := New(freq.NewLocked()).Run(nil)
	require.ErrorIs(t, err, ErrNoSources)
}

func TestSourcesAreReadConcurrently(t *testing.T) {
	const n = 6
	g := newGate(n)

	var sources []Source
	for i := 0; i < n; i++ {
		sources = append(sources, gatedSource{name: string(rune('a' + i)), text: "tick tock", gate: g})
	}

	table := freq.NewLocked()
	result, err := New(table).Run(sources)
	require.NoError(t, err)
	require.NoError(t, result.Err(), "every source must be in flight at the same time")

	ticks, _ := table.Snapshot().Get("tick")
	require.Equal(t, n, ticks)
}

func TestConservation(t *testing.T) {
	faker := gofakeit.New(42)

	var sources []Source
	want := 0
	for i := 0; i < 12; i++ {
		body := faker.Sentence(faker.IntRange(50, 400))
		want += len(strings.Fields(body))
		sources = append(sources, text(faker.Word(), body))
	}

	for _, kind := range []string{freq.KindLocked, freq.KindSharded} {
		t.Run(kind, func(t *testing.T) {
			table, err := freq.New(kind, 4)
			require.NoError(t, err)

			result, err := New(table).Run(sources)
			require.NoError(t, err)
			require.Equal(t, want, result.Tokens())
			require.Equal(t, want, table.Snapshot().Total())
		})
	}
}

func TestOrderIndependence(t *testing.T) {
	faker := gofakeit.New(7)

	var sources []Source
	for i := 0; i < 8; i++ {
		sources = append(sources, text(faker.Word(), faker.Sentence(faker.IntRange(20, 120))))
	}

	baseline, _ := run(t, sources...)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		shuffled := append([]Source(nil), sources...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, _ := run(t, shuffled...)
		if diff := cmp.Diff(baseline.Entries(), got.Entries()); diff != "" {
			t.Fatalf("table depends on source order (-want +got):\n%s", diff)
		}
	}
}

func TestSampling(t *testing.T) {
	table := freq.NewLocked()
	result, err := New(table, WithSampleSize(2)).Run([]Source{
		text("s", "One two three"),
		text("short", "x"),
	})
	require.NoError(t, err)

	require.Equal(t, []string{"one", "two"}, result.Sources[0].Sample)
	require.Equal(t, []string{"x"}, result.Sources[1].Sample)
}

func TestNoSampleByDefault(t *testing.T) {
	_, result := run(t, text("s", "a b c"))
	require.Nil(t, result.Sources[0].Sample)
}

func TestMetricsAndClock(t *testing.T) {
	m := metrics.New()
	clock := clockwork.NewFakeClock()

	table := freq.NewSharded(2)
	result, err := New(table, WithMetrics(m), WithClock(clock)).Run([]Source{
		text("a", "a b"),
		readFailSource{name: "b", err: errors.New("eof-ish")},
	})
	require.NoError(t, err)
	require.Zero(t, result.Sources[0].Duration)

	n, err := testutil.GatherAndCount(m.Gatherer(), "wordfreq_source_failures_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
