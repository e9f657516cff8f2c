// Package testutil provides local network endpoints for tests.
package testutil

import (
	"fmt"
	"net"
	"sync"
)

// TCPServer accepts connections on a random loopback port and closes them.
type TCPServer struct {
	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	accepted int
}

// StartTCPServer starts a TCPServer
func StartTCPServer() (*TCPServer, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s := &TCPServer{listener: l}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

func (s *TCPServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		s.mu.Unlock()
		conn.Close()
	}
}

// Accepted returns the number of accepted connections
func (s *TCPServer) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Port returns the listening port
func (s *TCPServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Stop closes the listener and waits for the accept loop
func (s *TCPServer) Stop() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

// UDPServer answers every datagram, including empty ones, with "pong".
type UDPServer struct {
	conn net.PacketConn
	wg   sync.WaitGroup
}

// StartUDPServer starts a UDPServer
func StartUDPServer() (*UDPServer, error) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s := &UDPServer{conn: conn}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *UDPServer) serve() {
	defer s.wg.Done()
	buf := make([]byte, 1500)
	for {
		_, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		s.conn.WriteTo([]byte("pong"), addr)
	}
}

// Port returns the listening port
func (s *UDPServer) Port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Stop closes the socket and waits for the serve loop
func (s *UDPServer) Stop() error {
	err := s.conn.Close()
	s.wg.Wait()
	return err
}

// FreePort returns a loopback port that had nothing listening on it
// when checked.
func FreePort(network string) (int, error) {
	switch network {
	case "udp":
		conn, err := net.ListenPacket("udp", "127.0.0.1:0")
		if err != nil {
			return 0, err
		}
		defer conn.Close()
		return conn.LocalAddr().(*net.UDPAddr).Port, nil
	default:
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return 0, err
		}
		defer l.Close()
		return l.Addr().(*net.TCPAddr).Port, nil
	}
}
