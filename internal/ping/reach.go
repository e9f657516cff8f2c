package ping

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58

	// echoPort is the TCP echo service, used when ICMP sockets are not
	// available to the process.
	echoPort = 7
)

var echoPayload = []byte("host-prober")

// echoReachable reports whether ip answers within timeout. It prefers an
// ICMP echo and falls back to a TCP connection attempt on the echo port.
func echoReachable(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error) {
	ok, err := icmpEcho(ctx, ip, timeout)
	if err == nil {
		return ok, nil
	}
	return tcpEcho(ctx, ip, timeout), nil
}

// icmpEcho sends a single echo request over an unprivileged ICMP socket.
// A non-nil error means the socket could not be used at all.
func icmpEcho(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error) {
	network, listen, proto := "udp4", "0.0.0.0", protocolICMP
	var reqType, respType icmp.Type = ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	if ip.To4() == nil {
		network, listen, proto = "udp6", "::", protocolIPv6ICMP
		reqType, respType = ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
	}

	conn, err := icmp.ListenPacket(network, listen)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	msg := icmp.Message{
		Type: reqType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  1,
			Data: echoPayload,
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return false, err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false, err
	}

	if _, err := conn.WriteTo(wb, &net.UDPAddr{IP: ip}); err != nil {
		return false, nil
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			return false, nil
		}
		if addr, ok := peer.(*net.UDPAddr); ok && !addr.IP.Equal(ip) {
			continue
		}
		rm, err := icmp.ParseMessage(proto, rb[:n])
		if err != nil {
			continue
		}
		if rm.Type == respType {
			return true, nil
		}
	}
}

// tcpEcho treats a completed connection and an active refusal alike: in
// both cases the host itself answered.
func tcpEcho(ctx context.Context, ip net.IP, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(echoPort)))
	if err == nil {
		conn.Close()
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
