// Package camera receives JPEG frames streamed by the hive camera over UDP
// and keeps the newest one ready for the capture loop.
package camera

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"beecam/internal/logger"
)

const (
	packetSize   = 2048
	readDeadline = 500 * time.Millisecond
)

// UDPSource listens for camera datagrams. Only the newest complete frame is
// kept; frames not acquired in time are overwritten.
type UDPSource struct {
	port   int
	logger *logger.Logger

	conn *net.UDPConn

	mu     sync.Mutex
	latest []byte
	ready  chan struct{}
}

// NewUDPSource creates a source bound to port on Open. Port 0 picks a free port.
func NewUDPSource(port int, logger *logger.Logger) *UDPSource {
	return &UDPSource{port: port, logger: logger, ready: make(chan struct{}, 1)}
}

// Open binds the UDP socket.
func (s *UDPSource) Open() error {
	addr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	s.conn = conn
	s.logger.Info("UDP camera listener started on %s", conn.LocalAddr())
	return nil
}

// Addr returns the bound address, or nil before Open.
func (s *UDPSource) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Listen opens the socket and serves it until ctx is cancelled.
func (s *UDPSource) Listen(ctx context.Context) error {
	if err := s.Open(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve reads datagrams until ctx is cancelled and closes the socket on exit.
func (s *UDPSource) Serve(ctx context.Context) error {
	defer s.conn.Close()

	assembler := NewAssembler()
	buffer := make([]byte, packetSize)
	for {
		if ctx.Err() != nil {
			return nil
		}
		s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, remote, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		if frame, ok := assembler.Feed(remote.IP.String(), buffer[:n]); ok {
			s.store(frame)
		}
	}
}

func (s *UDPSource) store(frame []byte) {
	s.mu.Lock()
	s.latest = frame
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Acquire waits for a frame received since the last Acquire and returns it.
func (s *UDPSource) Acquire(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.ready:
		}

		s.mu.Lock()
		frame := s.latest
		s.latest = nil
		s.mu.Unlock()
		if frame != nil {
			return frame, nil
		}
	}
}
