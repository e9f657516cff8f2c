package procexec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"host-prober/internal/logging"
)

// Command is an executable name and its ordered arguments
type Command struct {
	Name string
	Args []string
}

// NewCommand creates a Command
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Executor runs a command with optional standard streams
type Executor interface {
	Execute(cmd Command, stdin io.Reader, stdout, stderr io.Writer) (int, error)
}

// Runner executes commands on the local host
type Runner struct {
	log *logrus.Entry
}

// NewRunner creates a new Runner
func NewRunner() *Runner {
	return &Runner{log: logging.Component("procexec")}
}

// Execute spawns cmd and pipes the supplied streams to and from it. A nil
// stream is not wired and the child sees the null device instead: a child
// reading stdin gets EOF at once, and output it writes to an unwired
// stream is discarded. Such a child never blocks on a pipe nobody
// services, unlike a runner that leaves unwired pipes unconsumed.
//
// The caller's stdin reader and stdout/stderr writers are never closed.
// Execute returns the exit code once the process has exited and every
// pipe has drained. A non-zero exit code is not an error; a process
// terminated by a signal reports -1.
func (r *Runner) Execute(cmd Command, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return -1, &InvocationError{Reason: "command not specified"}
	}

	c := exec.Command(cmd.Name, cmd.Args...)

	var (
		pipes    []*Pipe
		children []*os.File // ends handed to the child
		parents  []*os.File // ends serviced by pipes
	)
	abort := func(err error) (int, error) {
		for _, f := range children {
			f.Close()
		}
		for _, f := range parents {
			f.Close()
		}
		return -1, &ProcessFailure{Command: cmd.String(), Err: err}
	}

	if stdin != nil {
		rd, wr, err := os.Pipe()
		if err != nil {
			return abort(fmt.Errorf("stdin pipe: %w", err))
		}
		c.Stdin = rd
		children = append(children, rd)
		parents = append(parents, wr)

		p := NewPipe("stdin", stdin, wr)
		p.CloseSink = true
		pipes = append(pipes, p)
	}

	if stdout != nil {
		rd, wr, err := os.Pipe()
		if err != nil {
			return abort(fmt.Errorf("stdout pipe: %w", err))
		}
		c.Stdout = wr
		children = append(children, wr)
		parents = append(parents, rd)

		p := NewPipe("stdout", rd, stdout)
		p.CloseSource = true
		pipes = append(pipes, p)
	}

	if stderr != nil {
		rd, wr, err := os.Pipe()
		if err != nil {
			return abort(fmt.Errorf("stderr pipe: %w", err))
		}
		c.Stderr = wr
		children = append(children, wr)
		parents = append(parents, rd)

		p := NewPipe("stderr", rd, stderr)
		p.CloseSource = true
		pipes = append(pipes, p)
	}

	log := r.log.WithField("command", cmd.Name)
	log.WithField("args", cmd.Args).Debug("starting process")

	if err := c.Start(); err != nil {
		return abort(err)
	}

	// The child holds its own copies now; keeping ours open would stop
	// the output pipes from ever seeing EOF.
	for _, f := range children {
		f.Close()
	}

	var wg sync.WaitGroup
	for _, p := range pipes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run()
		}()
	}

	// Exit may be observed before the pipes have drained.
	exitCode, waitErr := exitStatus(c.Wait())
	wg.Wait()

	if waitErr != nil {
		return exitCode, &ProcessFailure{Command: cmd.String(), Err: waitErr}
	}

	log.WithField("exit_code", exitCode).Debug("process finished")
	return exitCode, nil
}

func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
