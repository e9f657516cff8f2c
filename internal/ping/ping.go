package ping

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"host-prober/internal/logging"
	"host-prober/internal/models"
	"host-prober/internal/procexec"
)

const (
	DefaultHost    = "127.0.0.1"
	DefaultCount   = 3
	DefaultTimeout = 3000 * time.Millisecond
)

// HostPinger checks that a host answers at the network layer and, when it
// does, captures the output of the system ping utility.
type HostPinger struct {
	Host    string
	Count   int
	Timeout time.Duration

	exec      procexec.Executor
	reachable func(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error)
	resolver  *net.Resolver
	log       *logrus.Entry
}

// New creates a HostPinger for the loopback host with default settings
func New() *HostPinger {
	return NewHostPinger(DefaultHost, DefaultCount, DefaultTimeout)
}

// NewHostPinger creates a HostPinger for host
func NewHostPinger(host string, count int, timeout time.Duration) *HostPinger {
	return &HostPinger{
		Host:      host,
		Count:     count,
		Timeout:   timeout,
		exec:      procexec.NewRunner(),
		reachable: echoReachable,
		resolver:  net.DefaultResolver,
		log:       logging.Component("ping"),
	}
}

// Ping probes the host. Info holds the raw ping output when the host is
// reachable and is empty otherwise; it is not parsed.
func (p *HostPinger) Ping(ctx context.Context) (models.PingStats, error) {
	var stats models.PingStats

	ip, err := p.resolve(ctx)
	if err != nil {
		return stats, &models.ProbeError{Op: "resolve", Host: p.Host, Err: err}
	}

	reachable, err := p.reachable(ctx, ip, p.Timeout)
	if err != nil {
		return stats, &models.ProbeError{Op: "ping", Host: p.Host, Err: err}
	}
	stats.Reachable = reachable
	if !reachable {
		p.log.WithField("host", p.Host).Debug("host did not answer")
		return stats, nil
	}

	var out syncBuffer
	code, err := p.exec.Execute(pingCommand(p.Host, p.Count), nil, &out, &out)
	if err != nil {
		return stats, &models.ProbeError{Op: "ping", Host: p.Host, Err: err}
	}
	if code != 0 {
		p.log.WithFields(logrus.Fields{"host": p.Host, "exit_code": code}).Debug("ping exited with non-zero status")
	}
	stats.Info = out.String()

	return stats, nil
}

func (p *HostPinger) resolve(ctx context.Context) (net.IP, error) {
	if ip := net.ParseIP(p.Host); ip != nil {
		return ip, nil
	}
	addrs, err := p.resolver.LookupIPAddr(ctx, p.Host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses for %s", p.Host)
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return a.IP, nil
		}
	}
	return addrs[0].IP, nil
}

// pingCommand builds the platform-specific ping invocation
func pingCommand(host string, count int) procexec.Command {
	if count <= 0 {
		count = DefaultCount
	}
	if runtime.GOOS == "windows" {
		return procexec.NewCommand("ping", "-n", strconv.Itoa(count), host)
	}
	return procexec.NewCommand("ping", "-c", strconv.Itoa(count), host)
}

// syncBuffer collects stdout and stderr written by concurrent pipes
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
