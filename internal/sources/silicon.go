package sources

import (
	"context"

	"entropic/internal/pool"
)

// RDRANDSource draws bytes directly from the CPU's RDRAND instruction
// where the silicon supports it (amd64 only; every other architecture
// reports unavailable).
type RDRANDSource struct{}

func NewRDRANDSource() *RDRANDSource { return &RDRANDSource{} }

func (s *RDRANDSource) Name() string { return "rdrand" }

func (s *RDRANDSource) Available() bool { return platformHasRDRAND() }

func (s *RDRANDSource) Sample(ctx context.Context, n int) ([]byte, error) {
	if !s.Available() {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if err := platformRDRANDBytes(buf); err != nil {
		return []byte{}, nil
	}
	return clampOvershoot(buf, n), nil
}

func (s *RDRANDSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// RDSEEDSource draws bytes from the CPU's RDSEED instruction, the
// conditioned-closer-to-physical-noise sibling of RDRAND.
type RDSEEDSource struct{}

func NewRDSEEDSource() *RDSEEDSource { return &RDSEEDSource{} }

func (s *RDSEEDSource) Name() string { return "rdseed" }

func (s *RDSEEDSource) Available() bool { return platformHasRDSEED() }

func (s *RDSEEDSource) Sample(ctx context.Context, n int) ([]byte, error) {
	if !s.Available() {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if err := platformRDSEEDBytes(buf); err != nil {
		return []byte{}, nil
	}
	return clampOvershoot(buf, n), nil
}

func (s *RDSEEDSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

func init() {
	pool.Register(pool.Factory{Name: "rdrand", Category: string(CategorySilicon), PlatformRequirements: []string{"arch:amd64"}, New: func() pool.Source { return NewRDRANDSource() }})
	pool.Register(pool.Factory{Name: "rdseed", Category: string(CategorySilicon), PlatformRequirements: []string{"arch:amd64"}, New: func() pool.Source { return NewRDSEEDSource() }})
}
