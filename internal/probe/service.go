package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"host-prober/internal/models"
)

func (p *Prober) probeService(ctx context.Context, host string, t models.Target) models.ServiceStats {
	stats := models.ServiceStats{Protocol: t.Protocol, Port: t.Port}
	addr := net.JoinHostPort(host, strconv.Itoa(t.Port))

	switch t.Protocol {
	case models.TCP:
		stats.Reachable = probeTCP(ctx, addr, p.connectTimeout)
	case models.UDP:
		stats.Reachable = probeUDP(ctx, addr, p.connectTimeout, p.udpTimeout)
	}

	p.log.WithFields(logrus.Fields{
		"service":   t.Key(),
		"reachable": stats.Reachable,
	}).Debug("service probed")

	return stats
}

// probeTCP connects and immediately disconnects; no data is exchanged.
func probeTCP(ctx context.Context, addr string, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// probeUDP sends an empty datagram and waits for any reply. Connecting a
// UDP socket only fixes the remote address, so silence is indistinguishable
// from a dropped packet: a false result is a hint, not proof.
func probeUDP(ctx context.Context, addr string, connectTimeout, replyTimeout time.Duration) bool {
	d := net.Dialer{Timeout: connectTimeout}
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{}); err != nil {
		return false
	}

	deadline := time.Now().Add(replyTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return false
	}
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, 1500)
	_, err = conn.Read(buf)
	return err == nil
}
