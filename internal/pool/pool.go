// Package pool implements the entropy pool: the concurrency nucleus that
// owns a set of entropy sources, drives rounds of sampling against them,
// and conditions the accumulated raw bytes into output via the
// conditioner package. It is the only component that mutates SourceState.
package pool

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"entropic/internal/conditioner"
	"entropic/internal/quality"
)

// Mode selects how get_bytes conditions buffered raw bytes into output.
type Mode string

const (
	ModeRaw        Mode = "raw"
	ModeVonNeumann Mode = "vonneumann"
	ModeSHA256     Mode = "sha256"
)

// Sentinel errors. These are the only error kinds a caller should branch
// on; everything else a source does wrong is absorbed into SourceState
// and never surfaces here.
var (
	ErrInvalidLength      = errors.New("pool: invalid length")
	ErrInvalidMode        = errors.New("pool: invalid mode")
	ErrDuplicateSource    = errors.New("pool: duplicate source name")
	ErrEntropyUnavailable = errors.New("pool: system entropy source unavailable")
)

// Source is the contract every entropy source implements: a name used for
// registration and reporting, and a sampling operation. SelfCheck is a
// source's own internal diagnostic, independent of the pool's health
// tracking (which is derived from sampled bytes, not self-reported).
type Source interface {
	Name() string
	Sample(ctx context.Context, n int) ([]byte, error)
	SelfCheck(ctx context.Context) error
}

// SourceState tracks one registered source's cumulative health, exactly
// as described in the data model: weight, cumulative counters, last
// observation, and the derived healthy flag.
type SourceState struct {
	Source   Source
	Weight   float64
	Category string

	TotalBytes int64
	Failures   int64

	LastShannon    float64
	LastMinEntropy float64
	LastCollectAt  time.Time

	Healthy bool
}

// Descriptor is the read-only view of a SourceState returned by Sources
// and HealthReport; it never exposes the underlying Source so callers
// cannot invoke Sample outside the pool's own locking.
type Descriptor struct {
	Name           string
	Category       string
	Weight         float64
	TotalBytes     int64
	Failures       int64
	LastShannon    float64
	LastMinEntropy float64
	LastCollectAt  time.Time
	Healthy        bool
}

func (s *SourceState) descriptor() Descriptor {
	return Descriptor{
		Name:           s.Source.Name(),
		Category:       s.Category,
		Weight:         s.Weight,
		TotalBytes:     s.TotalBytes,
		Failures:       s.Failures,
		LastShannon:    s.LastShannon,
		LastMinEntropy: s.LastMinEntropy,
		LastCollectAt:  s.LastCollectAt,
		Healthy:        s.Healthy,
	}
}

// healthyThreshold is the shannon entropy, in bits/byte, a source's most
// recent sample must exceed to be considered healthy. This is a
// documented heuristic (spec section 3); tightening it is permitted,
// weakening it is not.
const healthyThreshold = 1.0

// defaultSampleSize is the hint passed to a source's Sample during
// collect_all when the caller has not configured a different size.
const defaultSampleSize = 200

// bufferCap is the soft cap, in bytes, on the raw buffer. On overflow the
// oldest bytes are dropped.
const bufferCap = 16 * 1024 * 1024

// Pool is the entropy pool. Zero value is not usable; construct with New
// or Auto.
type Pool struct {
	mu sync.Mutex

	states []*SourceState
	names  map[string]struct{}

	buffer []byte

	extractor *conditioner.Extractor

	totalOutput int64
	totalRaw    int64

	// sampleSize is the default_sample_size configuration value; exposed
	// for tests that want smaller rounds than the 200-byte default.
	sampleSize int

	csprng conditioner.CSPRNG
	clock  conditioner.WallClock
}

// New constructs an empty pool. The conditioner state is seeded from
// SHA-256(system_csprng_bytes || seed); seed may be nil.
func New(seed []byte) (*Pool, error) {
	return newPool(seed, conditioner.RealCSPRNG, conditioner.RealClock)
}

// newPool is the fully injectable constructor used by tests to supply a
// deterministic CSPRNG/clock pair.
func newPool(seed []byte, csprng conditioner.CSPRNG, clock conditioner.WallClock) (*Pool, error) {
	mix, err := csprng(32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	state := conditionerSeed(mix, seed)

	return &Pool{
		names:      make(map[string]struct{}),
		extractor:  conditioner.NewExtractor(state, csprng, clock),
		sampleSize: defaultSampleSize,
		csprng:     csprng,
		clock:      clock,
	}, nil
}

func conditionerSeed(systemBytes, seed []byte) [conditioner.StateSize]byte {
	h := sha256.New()
	h.Write(systemBytes)
	h.Write(seed)
	var out [conditioner.StateSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// AddSource registers source at the given weight. Registration is
// idempotent over source.Name(); a duplicate name is rejected without
// mutating pool state.
func (p *Pool) AddSource(source Source, weight float64) error {
	return p.AddSourceWithCategory(source, weight, "")
}

// AddSourceWithCategory is AddSource with an additional reporting-only
// category label (timing, hardware, network, silicon, novel, cross-domain,
// other); Auto uses it to carry each factory's category into Descriptor.
func (p *Pool) AddSourceWithCategory(source Source, weight float64, category string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := source.Name()
	if _, exists := p.names[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSource, name)
	}
	p.names[name] = struct{}{}
	p.states = append(p.states, &SourceState{
		Source:   source,
		Weight:   weight,
		Category: category,
		Healthy:  true,
	})
	return nil
}

// Sources returns a read-only snapshot of every registered source's
// descriptor, in registration order.
func (p *Pool) Sources() []Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Descriptor, len(p.states))
	for i, s := range p.states {
		out[i] = s.descriptor()
	}
	return out
}

// CollectAll drives one round of sampling across every registered source
// and appends the raw bytes produced to the buffer, returning the number
// of bytes appended. With zero registered sources it returns 0 and
// leaves the buffer unchanged.
//
// Sequential mode invokes each source's Sample in registration order,
// outside the pool mutex, and records each result under it; no source
// failure (an error or a panic) escapes this call. Parallel
// mode fans every source out to its own goroutine and joins on a hard
// wall-clock deadline; any source still running at the deadline is
// abandoned and contributes nothing to this round, and its SourceState
// is left untouched (no failure recorded) since the goroutine completes
// into a channel nothing is left to drain.
func (p *Pool) CollectAll(parallel bool, timeout time.Duration) (int, error) {
	p.mu.Lock()
	states := make([]*SourceState, len(p.states))
	copy(states, p.states)
	sampleSize := p.sampleSize
	p.mu.Unlock()

	if len(states) == 0 {
		return 0, nil
	}

	var appended int
	if parallel {
		appended = p.collectParallel(states, sampleSize, timeout)
	} else {
		appended = p.collectSequential(states, sampleSize)
	}
	return appended, nil
}

func (p *Pool) collectSequential(states []*SourceState, sampleSize int) int {
	total := 0
	for _, st := range states {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		data, err := safeSample(ctx, st.Source, sampleSize)
		cancel()

		p.mu.Lock()
		p.recordResult(st, data, err)
		if len(data) > 0 {
			p.appendBuffer(data)
			total += len(data)
		}
		p.mu.Unlock()
	}
	return total
}

// collectResult is what a collection goroutine sends back. The channel
// is always buffered to hold every source's result, so a goroutine that
// finishes after the deadline still sends successfully; it is simply
// never drained by collectParallel once it has returned.
type collectResult struct {
	state *SourceState
	data  []byte
	err   error
}

func (p *Pool) collectParallel(states []*SourceState, sampleSize int, timeout time.Duration) int {
	resultCh := make(chan collectResult, len(states))

	for _, st := range states {
		go func(st *SourceState) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			data, err := safeSample(ctx, st.Source, sampleSize)
			// Always send: if the deadline already passed and nobody is
			// listening, this send lands in the buffered channel and is
			// simply never drained. The goroutine never touches
			// SourceState directly, so an abandoned result can never
			// mutate pool state after the fact.
			resultCh <- collectResult{state: st, data: data, err: err}
		}(st)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	total := 0
	remaining := len(states)
	for remaining > 0 {
		select {
		case res := <-resultCh:
			remaining--
			p.mu.Lock()
			p.recordResult(res.state, res.data, res.err)
			if len(res.data) > 0 {
				p.appendBuffer(res.data)
				total += len(res.data)
			}
			p.mu.Unlock()
		case <-timer.C:
			return total
		}
	}
	return total
}

// safeSample recovers a panicking source into a source-error, matching
// the contract that no source failure ever escapes collect_all.
func safeSample(ctx context.Context, source Source, n int) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source-error: panic: %v", r)
		}
	}()
	return source.Sample(ctx, n)
}

// recordResult applies one sampling attempt's outcome to its SourceState
// under the caller-held lock, implementing the healthy state machine:
// healthy iff the sample's shannon entropy exceeds healthyThreshold and
// sampling did not error.
func (p *Pool) recordResult(st *SourceState, data []byte, err error) {
	st.LastCollectAt = p.clock0()

	if err != nil || len(data) == 0 {
		st.Failures++
		st.Healthy = false
		return
	}

	st.TotalBytes += int64(len(data))
	st.LastShannon = quality.Shannon(data)
	st.LastMinEntropy = quality.MinEntropy(data)
	st.Healthy = st.LastShannon > healthyThreshold
}

func (p *Pool) clock0() time.Time {
	return time.Unix(0, p.clock())
}

// appendBuffer appends data to the raw buffer under the caller-held lock,
// dropping the oldest bytes if the soft cap is exceeded.
func (p *Pool) appendBuffer(data []byte) {
	p.buffer = append(p.buffer, data...)
	p.totalRaw += int64(len(data))
	if over := len(p.buffer) - bufferCap; over > 0 {
		p.buffer = p.buffer[over:]
	}
}

// GetBytes returns exactly n conditioned bytes using the given mode. If
// fewer than 2n raw bytes are buffered, it first performs one sequential
// CollectAll round to top up the buffer; an empty registry simply leaves
// the buffer as-is and sha256 mode proceeds by mixing in an empty sample
// chunk for any block that has no raw bytes available (the extractor's
// csprng mix and wall-clock term still make every block unique; it never
// blocks waiting for sources that do not exist).
func (p *Pool) GetBytes(n int, mode Mode) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}
	if n == 0 {
		return []byte{}, nil
	}
	switch mode {
	case ModeRaw, ModeVonNeumann, ModeSHA256:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	p.mu.Lock()
	needTopUp := len(p.buffer) < 2*n
	p.mu.Unlock()
	if needTopUp {
		if _, err := p.CollectAll(false, 10*time.Second); err != nil {
			return nil, err
		}
	}

	switch mode {
	case ModeRaw:
		return p.getRawBytes(n), nil
	case ModeVonNeumann:
		return p.getVonNeumannBytes(n)
	default:
		return p.getHashBytes(n)
	}
}

// GetRandomBytes is an alias for GetBytes(n, ModeSHA256).
func (p *Pool) GetRandomBytes(n int) ([]byte, error) {
	return p.GetBytes(n, ModeSHA256)
}

// GetRawBytes is an alias for GetBytes(n, ModeRaw). Per the documented
// open-question resolution, raw mode does not loop to refill: it takes
// one top-up attempt (the same as any other mode) and then returns
// whatever is available, zero-padded if short. It is documented as
// research-only and must never be mistaken for a refilling read.
func (p *Pool) GetRawBytes(n int) ([]byte, error) {
	return p.GetBytes(n, ModeRaw)
}

// getRawBytes takes up to n bytes from the front of the buffer verbatim,
// zero-padding if the buffer holds fewer than n bytes. It does not touch
// the conditioner state.
func (p *Pool) getRawBytes(n int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]byte, n)
	take := n
	if take > len(p.buffer) {
		take = len(p.buffer)
	}
	copy(out, p.buffer[:take])
	p.buffer = p.buffer[take:]
	p.totalOutput += int64(n)
	return out
}

// getVonNeumannBytes debiases buffer bytes via Von Neumann's algorithm
// until n output bytes are produced, performing additional sequential
// top-ups if one pass over the currently buffered bytes is not enough.
func (p *Pool) getVonNeumannBytes(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	attempts := 0
	for len(out) < n {
		chunk := p.drainChunk(256)
		if len(chunk) == 0 {
			if attempts > 0 {
				// A second consecutive empty chunk after a top-up means
				// no source can currently produce bytes; stop rather
				// than spin.
				break
			}
			attempts++
			if _, err := p.CollectAll(false, 10*time.Second); err != nil {
				return nil, err
			}
			continue
		}
		attempts = 0
		r := conditioner.VonNeumannDebias(chunk)
		out = append(out, r.Output...)
	}
	if len(out) > n {
		out = out[:n]
	}
	if len(out) < n {
		padded := make([]byte, n)
		copy(padded, out)
		out = padded
	}

	p.mu.Lock()
	p.totalOutput += int64(n)
	p.mu.Unlock()
	return out, nil
}

// getHashBytes runs the keyed-hash extractor over 256-byte chunks drawn
// from the front of the buffer (empty chunks permitted, per the
// documented open-question resolution) until n bytes of output exist.
func (p *Pool) getHashBytes(n int) ([]byte, error) {
	out := make([]byte, 0, n+conditioner.StateSize)
	for len(out) < n {
		chunk := p.drainChunk(256)

		p.mu.Lock()
		block, err := p.extractor.Block(chunk)
		p.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
		}
		out = append(out, block[:]...)
	}
	out = out[:n]

	p.mu.Lock()
	p.totalOutput += int64(n)
	p.mu.Unlock()
	return out, nil
}

// drainChunk removes up to max bytes from the front of the buffer and
// returns them; it may return an empty slice if the buffer is empty.
func (p *Pool) drainChunk(max int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	take := max
	if take > len(p.buffer) {
		take = len(p.buffer)
	}
	chunk := make([]byte, take)
	copy(chunk, p.buffer[:take])
	p.buffer = p.buffer[take:]
	return chunk
}

// HealthSnapshot is the result of HealthReport: an aggregate view of
// every registered source plus cumulative byte counters.
type HealthSnapshot struct {
	Healthy     int
	Total       int
	TotalRaw    int64
	TotalOutput int64
	Sources     []Descriptor
}

// String renders the snapshot as a short human-readable report, in the
// spirit of the reference implementation's health printout.
func (h HealthSnapshot) String() string {
	s := fmt.Sprintf("entropy pool: %d/%d sources healthy, %d raw bytes collected, %d bytes emitted\n",
		h.Healthy, h.Total, h.TotalRaw, h.TotalOutput)
	for _, d := range h.Sources {
		status := "unhealthy"
		if d.Healthy {
			status = "healthy"
		}
		s += fmt.Sprintf("  %-28s %-13s %-9s bytes=%-8d shannon=%.2f min_entropy=%.2f failures=%d\n",
			d.Name, d.Category, status, d.TotalBytes, d.LastShannon, d.LastMinEntropy, d.Failures)
	}
	return s
}

// HealthReport returns an aggregate snapshot of pool state.
func (p *Pool) HealthReport() HealthSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := HealthSnapshot{
		Total:       len(p.states),
		TotalRaw:    p.totalRaw,
		TotalOutput: p.totalOutput,
		Sources:     make([]Descriptor, len(p.states)),
	}
	for i, s := range p.states {
		d := s.descriptor()
		snap.Sources[i] = d
		if d.Healthy {
			snap.Healthy++
		}
	}
	return snap
}

// BufferLen returns the number of raw bytes currently buffered; exported
// for tests and diagnostics, not part of the byte-API contract.
func (p *Pool) BufferLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}
