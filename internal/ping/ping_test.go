package ping

import (
	"context"
	"errors"
	"io"
	"net"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"host-prober/internal/models"
	"host-prober/internal/procexec"
)

func TestParseRTT(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected float64
	}{
		{
			name:     "macOS individual response",
			output:   "64 bytes from 8.8.8.8: icmp_seq=0 ttl=118 time=44.347 ms",
			expected: 44.347,
		},
		{
			name:     "macOS summary line",
			output:   "round-trip min/avg/max/stddev = 40.1/44.347/48.2/0.000 ms",
			expected: 44.347,
		},
		{
			name:     "Linux summary line",
			output:   "rtt min/avg/max/mdev = 0.030/0.041/0.052/0.009 ms",
			expected: 0.041,
		},
		{
			name:     "BusyBox summary line",
			output:   "round-trip min/avg/max = 12.3/12.5/12.7 ms",
			expected: 12.5,
		},
		{
			name:     "Windows summary",
			output:   "Minimum = 14ms, Maximum = 16ms, Average = 15ms",
			expected: 15,
		},
		{
			name:     "Windows sub-millisecond reply",
			output:   "Reply from 8.8.8.8: bytes=32 time<1ms TTL=118",
			expected: 1,
		},
		{
			name:     "No match",
			output:   "ping: unknown host example.invalid",
			expected: 0,
		},
		{
			name:     "Empty output",
			output:   "",
			expected: 0,
		},
		{
			name: "Summary preferred over first reply",
			output: `PING 127.0.0.1 (127.0.0.1) 56(84) bytes of data.
64 bytes from 127.0.0.1: icmp_seq=1 ttl=64 time=0.052 ms
64 bytes from 127.0.0.1: icmp_seq=2 ttl=64 time=0.030 ms

--- 127.0.0.1 ping statistics ---
2 packets transmitted, 2 received, 0% packet loss, time 1001ms
rtt min/avg/max/mdev = 0.030/0.041/0.052/0.011 ms`,
			expected: 0.041,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseRTT(tt.output)
			if result != tt.expected {
				t.Errorf("ParseRTT(%q) = %v, want %v", tt.output, result, tt.expected)
			}
		})
	}
}

type fakeExecutor struct {
	output string
	code   int
	err    error
	calls  []procexec.Command
}

func (f *fakeExecutor) Execute(cmd procexec.Command, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return -1, f.err
	}
	io.WriteString(stdout, f.output)
	return f.code, nil
}

func fixedReachability(ok bool, err error) func(context.Context, net.IP, time.Duration) (bool, error) {
	return func(context.Context, net.IP, time.Duration) (bool, error) {
		return ok, err
	}
}

func TestPingReachableCapturesOutput(t *testing.T) {
	fake := &fakeExecutor{output: "3 packets transmitted, 3 received"}
	p := NewHostPinger("127.0.0.1", 4, time.Second)
	p.exec = fake
	p.reachable = fixedReachability(true, nil)

	stats, err := p.Ping(context.Background())

	require.NoError(t, err)
	assert.True(t, stats.Reachable)
	assert.Equal(t, "3 packets transmitted, 3 received", stats.Info)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "ping", fake.calls[0].Name)
	assert.Contains(t, fake.calls[0].Args, "4")
	assert.Equal(t, "127.0.0.1", fake.calls[0].Args[len(fake.calls[0].Args)-1])
}

func TestPingUnreachableSkipsCommand(t *testing.T) {
	fake := &fakeExecutor{output: "should not appear"}
	p := NewHostPinger("192.0.2.1", 3, time.Second)
	p.exec = fake
	p.reachable = fixedReachability(false, nil)

	stats, err := p.Ping(context.Background())

	require.NoError(t, err)
	assert.False(t, stats.Reachable)
	assert.Empty(t, stats.Info)
	assert.Empty(t, fake.calls)
}

func TestPingNonZeroExitIsNotAnError(t *testing.T) {
	p := NewHostPinger("127.0.0.1", 1, time.Second)
	p.exec = &fakeExecutor{output: "1 packets transmitted, 0 received", code: 1}
	p.reachable = fixedReachability(true, nil)

	stats, err := p.Ping(context.Background())

	require.NoError(t, err)
	assert.True(t, stats.Reachable)
	assert.Contains(t, stats.Info, "0 received")
}

func TestPingWrapsRunnerFailure(t *testing.T) {
	cause := &procexec.ProcessFailure{Command: "ping", Err: exec.ErrNotFound}
	p := NewHostPinger("127.0.0.1", 1, time.Second)
	p.exec = &fakeExecutor{err: cause}
	p.reachable = fixedReachability(true, nil)

	_, err := p.Ping(context.Background())

	var probeErr *models.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "127.0.0.1", probeErr.Host)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestPingResolveFailure(t *testing.T) {
	p := NewHostPinger("host.that.does.not.exist.invalid", 1, time.Second)
	p.exec = &fakeExecutor{}

	_, err := p.Ping(context.Background())

	var probeErr *models.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "resolve", probeErr.Op)
}

func TestPingCommandArguments(t *testing.T) {
	cmd := pingCommand("example.com", 0)
	flag := "-c"
	if runtime.GOOS == "windows" {
		flag = "-n"
	}
	assert.Equal(t, []string{flag, "3", "example.com"}, cmd.Args)
}

func TestDefaults(t *testing.T) {
	p := New()
	assert.Equal(t, "127.0.0.1", p.Host)
	assert.Equal(t, 3, p.Count)
	assert.Equal(t, 3*time.Second, p.Timeout)
}

func TestTCPEchoCountsRefusalAsReachable(t *testing.T) {
	// Loopback always answers, either by accepting or by refusing.
	assert.True(t, tcpEcho(context.Background(), net.ParseIP("127.0.0.1"), time.Second))
}

func TestHostPingerLoopback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ping integration test in short mode")
	}

	if _, err := exec.LookPath("ping"); err != nil {
		t.Skip("ping binary not available on PATH")
	}

	p := NewHostPinger("127.0.0.1", 1, 5*time.Second)
	stats, err := p.Ping(context.Background())
	if err != nil {
		t.Skipf("skipping due to unexpected ping failure: %v", err)
	}

	t.Logf("Ping result: Reachable=%v\n%s", stats.Reachable, stats.Info)

	if !stats.Reachable {
		t.Fatalf("expected loopback to be reachable")
	}
	if stats.Info == "" {
		t.Errorf("expected ping output to be captured")
	}
}
