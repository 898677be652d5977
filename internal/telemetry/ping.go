package telemetry

import (
	"context"
	"net"
	"time"
)

// Pinger measures round-trip reachability of some remote endpoint.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// TCPPinger times a TCP handshake to Target (host:port). It needs no ICMP
// privileges and no ping binary.
type TCPPinger struct {
	Target  string
	Timeout time.Duration
}

// Ping dials Target and returns the time to connect.
func (p TCPPinger) Ping(ctx context.Context) (time.Duration, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", p.Target)
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(start)
	conn.Close()
	return elapsed, nil
}

// Probe reports whether Target is reachable.
func (p TCPPinger) Probe(ctx context.Context) error {
	_, err := p.Ping(ctx)
	return err
}
