package sources

import (
	"context"
	"net"
	"time"

	"entropic/internal/pool"
)

// dnsResolvers is the rotation of recursive resolvers DNSTimingSource
// queries; any that is unreachable simply contributes nothing to a
// round rather than failing the source.
var dnsResolvers = []string{
	"1.1.1.1:53",
	"8.8.8.8:53",
	"9.9.9.9:53",
}

// DNSTimingSource dials each resolver in a rotation of recursive
// resolvers over UDP and emits LSBs of the dial latency. It sends no DNS
// query and reads no reply, so no network round trip is measured. It
// degrades to empty output when the dials fail.
type DNSTimingSource struct {
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewDNSTimingSource() *DNSTimingSource {
	var d net.Dialer
	return &DNSTimingSource{dial: d.DialContext}
}

func (s *DNSTimingSource) Name() string { return "dns_timing" }

func (s *DNSTimingSource) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := s.dial(ctx, "udp", dnsResolvers[0])
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (s *DNSTimingSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	i := 0
	for len(out) < n && !ctxDone(ctx) {
		resolver := dnsResolvers[i%len(dnsResolvers)]
		i++

		dialCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
		start := time.Now()
		conn, err := s.dial(dialCtx, "udp", resolver)
		elapsed := time.Since(start)
		cancel()
		if err != nil {
			if i > len(dnsResolvers)*2 {
				break
			}
			continue
		}
		conn.Close()
		out = append(out, lsb(elapsed.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *DNSTimingSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 64)
	return err
}

// tcpHosts is the rotation of well-known hosts TCPHandshakeSource
// connects to for handshake-timing samples.
var tcpHosts = []string{
	"1.1.1.1:443",
	"8.8.8.8:443",
}

// TCPHandshakeSource performs short TCP handshakes to known hosts and
// emits the LSB of connect latency.
type TCPHandshakeSource struct {
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewTCPHandshakeSource() *TCPHandshakeSource {
	var d net.Dialer
	return &TCPHandshakeSource{dial: d.DialContext}
}

func (s *TCPHandshakeSource) Name() string { return "tcp_handshake_timing" }

func (s *TCPHandshakeSource) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := s.dial(ctx, "tcp", tcpHosts[0])
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (s *TCPHandshakeSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	i := 0
	misses := 0
	for len(out) < n && !ctxDone(ctx) {
		host := tcpHosts[i%len(tcpHosts)]
		i++

		dialCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
		start := time.Now()
		conn, err := s.dial(dialCtx, "tcp", host)
		elapsed := time.Since(start)
		cancel()
		if err != nil {
			misses++
			if misses > len(tcpHosts)*2 {
				break
			}
			continue
		}
		conn.Close()
		out = append(out, lsb(elapsed.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *TCPHandshakeSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 64)
	return err
}

func init() {
	pool.Register(pool.Factory{
		Name:     "dns_timing",
		Category: string(CategoryNetwork),
		New:      func() pool.Source { return NewDNSTimingSource() },
	})
	pool.Register(pool.Factory{
		Name:     "tcp_handshake_timing",
		Category: string(CategoryNetwork),
		New:      func() pool.Source { return NewTCPHandshakeSource() },
	})
}

// capabilityGatedQueryTiming is the shared fallback wireless sources use
// when no radio API is reachable: sample query-call timing LSBs instead
// of signal strength, per the spec's documented degrade path.
func capabilityGatedQueryTiming(ctx context.Context, n int, probe func() error) []byte {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		start := time.Now()
		_ = probe()
		out = append(out, lsb(time.Since(start).Nanoseconds()))
	}
	return clampOvershoot(out, n)
}
