package core

import (
	"errors"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/abiosoft/readline"
)

// lineInput reads lines one byte at a time so nothing past the newline is
// taken from input the commands it runs share with the shell.
type lineInput struct {
	r io.Reader
}

var _ LineReader = (*lineInput)(nil)

func newLineInput(r io.Reader) *lineInput {
	return &lineInput{r: r}
}

// SetPrompt does nothing, prompts are only shown on terminals.
func (l *lineInput) SetPrompt(string) {}

// Readline returns the next line without its newline. A final line with no
// newline is returned before io.EOF.
func (l *lineInput) Readline() (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := l.r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return string(line), nil
			}
			line = append(line, buf[0])
			continue
		}

		switch {
		case err == io.EOF && len(line) > 0:
			return string(line), nil
		case err != nil:
			return "", err
		}
	}
}

// pausableInput reads a terminal through a non-blocking duplicate of its
// descriptor. While paused nothing is read, so a foreground command gets
// everything typed until the input is resumed.
type pausableInput struct {
	f *os.File

	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	reading bool
	closed  bool
}

// newPausableInput starts out paused. It fails if stdin can't be polled.
func newPausableInput(stdin *os.File) (*pausableInput, error) {
	syscall.ForkLock.RLock()
	fd, err := syscall.Dup(int(stdin.Fd()))
	if err == nil {
		syscall.CloseOnExec(fd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return nil, err
	}

	if err := syscall.SetNonblock(fd, true); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	in := &pausableInput{
		f:      os.NewFile(uintptr(fd), stdin.Name()),
		paused: true,
	}
	in.cond = sync.NewCond(&in.mu)

	if err := in.f.SetReadDeadline(time.Now()); err != nil {
		in.setNonblock(false)
		in.f.Close()
		return nil, err
	}
	in.setNonblock(false)

	return in, nil
}

// setNonblock changes the mode of the shared open file, commands must see
// blocking input.
func (in *pausableInput) setNonblock(nonblocking bool) {
	rc, err := in.f.SyscallConn()
	if err != nil {
		return
	}
	rc.Control(func(fd uintptr) {
		syscall.SetNonblock(int(fd), nonblocking)
	})
}

func (in *pausableInput) Read(p []byte) (int, error) {
	for {
		in.mu.Lock()
		for in.paused && !in.closed {
			in.cond.Wait()
		}
		if in.closed {
			in.mu.Unlock()
			return 0, io.EOF
		}
		in.reading = true
		in.mu.Unlock()

		n, err := in.f.Read(p)

		in.mu.Lock()
		in.reading = false
		in.cond.Broadcast()
		in.mu.Unlock()

		if n == 0 && errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		return n, err
	}
}

// Pause stops reading. It returns once a pending read has given up.
func (in *pausableInput) Pause() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.paused || in.closed {
		return
	}

	in.paused = true
	in.f.SetReadDeadline(time.Now())
	for in.reading {
		in.cond.Wait()
	}
	in.setNonblock(false)
}

// Resume lets blocked reads continue.
func (in *pausableInput) Resume() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.paused || in.closed {
		return
	}

	in.setNonblock(true)
	in.f.SetReadDeadline(time.Time{})
	in.paused = false
	in.cond.Broadcast()
}

// Close ends pending and future reads with io.EOF and leaves the terminal in
// blocking mode.
func (in *pausableInput) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}

	in.closed = true
	in.f.SetReadDeadline(time.Now())
	in.cond.Broadcast()
	for in.reading {
		in.cond.Wait()
	}
	in.setNonblock(false)
	return in.f.Close()
}

// terminalReader only lets readline see input while it waits for a line.
type terminalReader struct {
	*readline.Instance
	input *pausableInput
}

func (t *terminalReader) Readline() (string, error) {
	t.input.Resume()
	defer t.input.Pause()
	return t.Instance.Readline()
}
