// Package conditioner converts raw, potentially biased byte streams into
// uniform output via three primitives: Von Neumann debiasing, XOR-fold,
// and a keyed-hash extractor. The pool always uses the keyed-hash
// extractor for its default output; the other two are exposed as opt-in
// research modes.
package conditioner

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// StateSize is the width, in bytes, of the extractor's rolling state.
const StateSize = 32

// VonNeumannResult reports both the debiased output and the bit counts
// that produced it, mirroring the reference implementation's stats dict.
type VonNeumannResult struct {
	Output     []byte
	InputBits  int
	OutputBits int
}

// VonNeumannDebias consumes bit pairs from data (MSB-first within each
// byte) and emits one output bit per discordant pair: 01 -> 0, 10 -> 1.
// Concordant pairs (00, 11) are discarded. Output bits are packed
// MSB-first into bytes; a final partial byte is zero-padded.
func VonNeumannDebias(data []byte) VonNeumannResult {
	inputBits := len(data) * 8
	outBits := make([]byte, 0, inputBits/4)

	var cur byte
	var curLen int
	emit := func(bit byte) {
		cur = cur<<1 | bit
		curLen++
		if curLen == 8 {
			outBits = append(outBits, cur)
			cur = 0
			curLen = 0
		}
	}

	var prevBit byte
	havePrev := false
	outputBitCount := 0

	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			if !havePrev {
				prevBit = bit
				havePrev = true
				continue
			}
			// (prevBit, bit) is the pair.
			switch {
			case prevBit == 0 && bit == 1:
				emit(0)
				outputBitCount++
			case prevBit == 1 && bit == 0:
				emit(1)
				outputBitCount++
			}
			havePrev = false
		}
	}

	if curLen > 0 {
		cur <<= uint(8 - curLen)
		outBits = append(outBits, cur)
	}

	return VonNeumannResult{
		Output:     outBits,
		InputBits:  inputBits,
		OutputBits: outputBitCount,
	}
}

// XORFold consumes data in groups of fold bytes and emits the XOR of each
// group. A trailing short group is discarded. fold must be >= 1.
func XORFold(data []byte, fold int) []byte {
	if fold < 1 {
		fold = 1
	}
	groups := len(data) / fold
	out := make([]byte, groups)
	for g := 0; g < groups; g++ {
		var acc byte
		base := g * fold
		for i := 0; i < fold; i++ {
			acc ^= data[base+i]
		}
		out[g] = acc
	}
	return out
}

// CSPRNG supplies fresh system-randomness bytes mixed into every
// extractor block; it is a field, not a package-level function, so tests
// can substitute a deterministic source for the fixed test vector while
// production always wires crypto/rand.Read.
type CSPRNG func(n int) ([]byte, error)

// WallClock supplies the wall-clock timestamp mixed into every extractor
// block, in nanoseconds since the Unix epoch.
type WallClock func() int64

// Extractor implements the keyed-hash extractor: each 32-byte output
// block is SHA-256(state || sample_chunk || LE64(counter) ||
// LE64(wall_time_ns) || 8_bytes_from_system_csprng); the output replaces
// the state and is appended to the result. The state never reverts.
type Extractor struct {
	state   [StateSize]byte
	counter uint64

	csprng CSPRNG
	clock  WallClock
}

// RealCSPRNG reads n fresh bytes from the system CSPRNG. This is the
// production CSPRNG used by pools outside of tests.
func RealCSPRNG(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RealClock returns the current wall-clock time in nanoseconds since the
// Unix epoch. This is the production clock used by pools outside tests.
func RealClock() int64 {
	return time.Now().UnixNano()
}

// NewExtractor constructs an Extractor with the given initial state.
// csprng and clock must not be nil in production use; tests may supply
// deterministic stand-ins to reproduce fixed vectors.
func NewExtractor(state [StateSize]byte, csprng CSPRNG, clock WallClock) *Extractor {
	return &Extractor{state: state, csprng: csprng, clock: clock}
}

// State returns the extractor's current rolling state.
func (e *Extractor) State() [StateSize]byte {
	return e.state
}

// Counter returns the number of blocks produced so far.
func (e *Extractor) Counter() uint64 {
	return e.counter
}

// Block advances the extractor by one block using sampleChunk as
// additional input, returning the 32-byte output and replacing the
// internal state with it.
func (e *Extractor) Block(sampleChunk []byte) ([StateSize]byte, error) {
	e.counter++

	mix, err := e.csprng(8)
	if err != nil {
		return [StateSize]byte{}, err
	}

	var counterLE, wallLE [8]byte
	binary.LittleEndian.PutUint64(counterLE[:], e.counter)
	binary.LittleEndian.PutUint64(wallLE[:], uint64(e.clock()))

	h := sha256.New()
	h.Write(e.state[:])
	h.Write(sampleChunk)
	h.Write(counterLE[:])
	h.Write(wallLE[:])
	h.Write(mix)

	var out [StateSize]byte
	copy(out[:], h.Sum(nil))
	e.state = out
	return out, nil
}

// Extract produces n conditioned bytes by iterating Block over chunks of
// buffer (up to 256 bytes consumed per block), draining consumed bytes
// from the front of buffer. Returns the output and the number of input
// bytes consumed.
func (e *Extractor) Extract(buffer []byte, n int) (output []byte, consumed int, err error) {
	for len(output) < n {
		chunkLen := len(buffer) - consumed
		if chunkLen > 256 {
			chunkLen = 256
		}
		chunk := buffer[consumed : consumed+chunkLen]
		consumed += chunkLen

		block, err := e.Block(chunk)
		if err != nil {
			return output, consumed, err
		}
		output = append(output, block[:]...)
	}
	if len(output) > n {
		output = output[:n]
	}
	return output, consumed, nil
}

// FixedVectorBlock computes SHA-256(state || sampleChunk || LE64(counter)
// || LE64(wallTimeNs) || csprngMix) directly, for tests that need the
// exact byte layout without going through an Extractor's internal
// counter/state bookkeeping.
func FixedVectorBlock(state [StateSize]byte, sampleChunk []byte, counter uint64, wallTimeNs int64, csprngMix [8]byte) [StateSize]byte {
	var counterLE, wallLE [8]byte
	binary.LittleEndian.PutUint64(counterLE[:], counter)
	binary.LittleEndian.PutUint64(wallLE[:], uint64(wallTimeNs))

	h := sha256.New()
	h.Write(state[:])
	h.Write(sampleChunk)
	h.Write(counterLE[:])
	h.Write(wallLE[:])
	h.Write(csprngMix[:])

	var out [StateSize]byte
	copy(out[:], h.Sum(nil))
	return out
}
