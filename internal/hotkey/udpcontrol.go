package hotkey

import (
	"bufio"
	"bytes"
	"log/slog"
	"net"
	"strings"
)

// UDPControlSource is a supplemented HotkeyListener implementation: an
// optional UDP listener accepting "START <key>" / "STOP <key>" text
// commands, letting a remote process or a test drive the same state
// machine as a physical hotkey without an OS input hook. It satisfies
// HotkeyListener so Dispatcher is unaware of the distinction between this
// and a real OS hook source.
type UDPControlSource struct {
	conn *net.UDPConn
	out  chan Event
	done chan struct{}
	log  *slog.Logger
}

// NewUDPControlSource binds addr (host:port) and begins decoding control
// packets in a background goroutine.
func NewUDPControlSource(addr string, log *slog.Logger) (*UDPControlSource, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	s := &UDPControlSource{
		conn: conn,
		out:  make(chan Event),
		done: make(chan struct{}),
		log:  log,
	}
	go s.run()
	return s, nil
}

func (s *UDPControlSource) run() {
	defer close(s.out)
	buf := make([]byte, 1024)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		ev, ok := parseControlPacket(buf[:n])
		if !ok {
			if s.log != nil {
				s.log.Warn("hotkey: malformed udp control packet", "data", string(buf[:n]))
			}
			continue
		}
		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}

// parseControlPacket decodes one line of the form "START <key>" or
// "STOP <key>" into the corresponding key-down/key-up Event.
func parseControlPacket(data []byte) (Event, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() {
		return Event{}, false
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) != 2 {
		return Event{}, false
	}
	key := fields[1]
	switch strings.ToUpper(fields[0]) {
	case "START":
		return Event{Key: key, Type: KeyDown}, true
	case "STOP":
		return Event{Key: key, Type: KeyUp}, true
	default:
		return Event{}, false
	}
}

func (s *UDPControlSource) Events() <-chan Event {
	return s.out
}

func (s *UDPControlSource) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.conn.Close()
}
