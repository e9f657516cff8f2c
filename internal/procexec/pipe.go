package procexec

import (
	"io"

	"github.com/sirupsen/logrus"

	"host-prober/internal/logging"
)

// chunkSize is the transfer buffer size of a Pipe
const chunkSize = 2048

type flusher interface {
	Flush() error
}

// Pipe moves bytes from a source to a sink until the source reports EOF.
type Pipe struct {
	// CloseSource closes the source when the transfer ends
	CloseSource bool
	// CloseSink closes the sink when the transfer ends
	CloseSink bool

	name string
	src  io.Reader
	dst  io.Writer
	log  *logrus.Entry
}

// NewPipe creates a pipe from src to dst. Neither end is closed unless the
// corresponding Close flag is set.
func NewPipe(name string, src io.Reader, dst io.Writer) *Pipe {
	return &Pipe{
		name: name,
		src:  src,
		dst:  dst,
		log:  logging.Component("procexec").WithField("pipe", name),
	}
}

// Run performs the transfer. Failures are logged and never returned, so
// Run is safe to use as the body of a background goroutine.
func (p *Pipe) Run() {
	defer p.close()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("pipe aborted: %v", r)
		}
	}()

	n, err := p.transfer()
	if err != nil {
		p.log.WithError(err).WithField("bytes", n).Warn("pipe transfer failed")
		return
	}
	p.log.WithField("bytes", n).Debug("pipe drained")
}

func (p *Pipe) transfer() (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64

	for {
		nr, rerr := p.src.Read(buf)
		if nr > 0 {
			nw, werr := p.dst.Write(buf[:nr])
			total += int64(nw)
			if werr != nil {
				return total, werr
			}
			if nw != nr {
				return total, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return total, rerr
		}
	}

	if f, ok := p.dst.(flusher); ok {
		if err := f.Flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (p *Pipe) close() {
	if p.CloseSource {
		if c, ok := p.src.(io.Closer); ok {
			if err := c.Close(); err != nil {
				p.log.WithError(err).Debug("closing source")
			}
		}
	}
	if p.CloseSink {
		if c, ok := p.dst.(io.Closer); ok {
			if err := c.Close(); err != nil {
				p.log.WithError(err).Debug("closing sink")
			}
		}
	}
}
