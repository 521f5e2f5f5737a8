package capability

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbeCompletesWithinBudget(t *testing.T) {
	start := time.Now()
	caps := Probe(context.Background())
	assert.Less(t, time.Since(start), Budget+time.Second)
	assert.Equal(t, runtime.GOOS, caps.OS)
	assert.Equal(t, runtime.GOARCH, caps.Machine)
}

func TestHasUnknownTokenIsFalse(t *testing.T) {
	caps := &Capabilities{}
	assert.False(t, caps.Has("not-a-real-token"))
}

func TestHasOSTokens(t *testing.T) {
	caps := &Capabilities{OS: "linux", Machine: "amd64"}
	assert.True(t, caps.Has(TokenLinux))
	assert.False(t, caps.Has(TokenDarwin))
	assert.True(t, caps.Has(TokenAMD64))
}

func TestHasAll(t *testing.T) {
	caps := &Capabilities{OS: "linux", HasBattery: true}
	assert.True(t, caps.HasAll([]string{TokenLinux, TokenBattery}))
	assert.False(t, caps.HasAll([]string{TokenLinux, TokenCamera}))
}

func TestProbeNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		Probe(context.Background())
	})
}
