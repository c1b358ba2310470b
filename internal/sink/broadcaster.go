package sink

import (
	"log/slog"
	"net"
)

// UDPBroadcaster fans a final transcript out over UDP to one or more
// targets, for third-party listeners such as overlay apps. Sends are
// best-effort and never block the sink pipeline: a target that isn't
// listening just drops the packet.
type UDPBroadcaster struct {
	conns []*net.UDPConn
	log   *slog.Logger
}

// NewUDPBroadcaster dials one UDP "connection" per target address
// ("host:port"). Dialing UDP does not itself touch the network, so a
// target that's down yet is not an error here.
func NewUDPBroadcaster(targets []string, log *slog.Logger) (*UDPBroadcaster, error) {
	b := &UDPBroadcaster{log: log}
	for _, addr := range targets {
		raddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return nil, err
		}
		conn, err := net.DialUDP("udp", nil, raddr)
		if err != nil {
			return nil, err
		}
		b.conns = append(b.conns, conn)
	}
	return b, nil
}

// Send writes text to every configured target, ignoring per-target errors.
func (b *UDPBroadcaster) Send(text string) {
	for _, conn := range b.conns {
		if _, err := conn.Write([]byte(text)); err != nil && b.log != nil {
			b.log.Warn("sink: udp broadcast failed", "addr", conn.RemoteAddr(), "err", err)
		}
	}
}

// Close releases every target connection.
func (b *UDPBroadcaster) Close() error {
	var firstErr error
	for _, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
