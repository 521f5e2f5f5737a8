package sources

import (
	"context"
	"os"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"

	"entropic/internal/capability"
	"entropic/internal/pool"
)

// tpmDevicePaths lists the TPM 2.0 character devices checked in order of
// preference; the resource manager device is tried first so concurrent
// processes don't collide over the raw device.
var tpmDevicePaths = []string{
	"/dev/tpmrm0",
	"/dev/tpm0",
}

// TPMRandomSource draws bytes from a TPM 2.0 device's TPM2_GetRandom
// command. It degrades to unavailable on any host without a TPM device
// node or lacking permission to open it.
type TPMRandomSource struct {
	devicePath string
}

func NewTPMRandomSource() *TPMRandomSource {
	for _, path := range tpmDevicePaths {
		if _, err := os.Stat(path); err == nil {
			return &TPMRandomSource{devicePath: path}
		}
	}
	return &TPMRandomSource{}
}

func (s *TPMRandomSource) Name() string { return "tpm_random" }

func (s *TPMRandomSource) Available() bool {
	if s.devicePath == "" {
		return false
	}
	_, err := os.Stat(s.devicePath)
	return err == nil
}

func (s *TPMRandomSource) Sample(ctx context.Context, n int) ([]byte, error) {
	if !s.Available() {
		return []byte{}, nil
	}

	tr, err := transport.OpenTPM(s.devicePath)
	if err != nil {
		return []byte{}, nil
	}
	defer tr.Close()

	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		chunk := n - len(out)
		if chunk > 48 {
			chunk = 48 // TPM2_GetRandom caps a single call's digest size
		}
		cmd := tpm2.GetRandom{BytesRequested: uint16(chunk)}
		rsp, err := cmd.Execute(tr)
		if err != nil {
			break
		}
		out = append(out, rsp.RandomBytes.Buffer...)
	}
	return clampOvershoot(out, n), nil
}

func (s *TPMRandomSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 256)
	return err
}

func init() {
	pool.Register(pool.Factory{
		Name:                 "tpm_random",
		Category:             string(CategorySilicon),
		PlatformRequirements: []string{capability.TokenPrivileged},
		New:                  func() pool.Source { return NewTPMRandomSource() },
	})
}
