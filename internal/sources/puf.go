package sources

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"

	"entropic/internal/pool"
)

// SoftwarePUFSource derives bytes from a process-lifetime device-fingerprint
// seed via HKDF, challenged each round with a counter folded together with
// sampling-time jitter. It is not itself a hardware PUF: no physically
// unclonable silicon is read. It is grounded in the same
// fingerprint-plus-seed idea a hardware-PUF fallback would use, and
// contributes entropy through its challenge (which mixes live timing) and
// the per-process seed rather than through any cloning resistance. The seed
// lives only in memory for the process's lifetime; the engine persists
// nothing to disk.
type SoftwarePUFSource struct {
	mu      sync.Mutex
	seed    [32]byte
	counter uint64
}

func NewSoftwarePUFSource() *SoftwarePUFSource {
	s := &SoftwarePUFSource{}
	s.seed = newPUFSeed()
	return s
}

func (s *SoftwarePUFSource) Name() string { return "software_puf" }

func (s *SoftwarePUFSource) Available() bool { return true }

func (s *SoftwarePUFSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		block, err := s.respond(time.Now().UnixNano())
		if err != nil {
			break
		}
		out = append(out, block...)
	}
	return clampOvershoot(out, n), nil
}

func (s *SoftwarePUFSource) respond(nonce int64) ([]byte, error) {
	s.mu.Lock()
	s.counter++
	challenge := make([]byte, 16)
	binary.BigEndian.PutUint64(challenge[:8], s.counter)
	binary.BigEndian.PutUint64(challenge[8:], uint64(nonce))
	seed := s.seed
	s.mu.Unlock()

	reader := hkdf.New(sha256.New, seed[:], challenge, []byte("entropic-software-puf-v1"))
	block := make([]byte, 32)
	if _, err := io.ReadFull(reader, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *SoftwarePUFSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// newPUFSeed derives a fresh 32-byte seed for this process's lifetime from
// a CSPRNG draw folded together with the host fingerprint (hostname + pid
// + start time). Nothing here is persisted: a new process gets a new
// seed, matching the engine's no-stored-state guarantee.
func newPUFSeed() [32]byte {
	h := sha256.New()
	randomBytes := make([]byte, 32)
	_, _ = rand.Read(randomBytes)
	h.Write(randomBytes)
	h.Write([]byte("entropic-software-puf-seed-v1"))
	if hostname, err := os.Hostname(); err == nil {
		h.Write([]byte(hostname))
	}
	h.Write([]byte(fmt.Sprintf("%d", os.Getpid())))
	h.Write([]byte(time.Now().Format(time.RFC3339Nano)))

	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

func init() {
	pool.Register(pool.Factory{Name: "software_puf", Category: string(CategoryNovel), New: func() pool.Source { return NewSoftwarePUFSource() }})
}
