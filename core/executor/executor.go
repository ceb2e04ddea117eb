// Package executor realizes a command tree as operating system processes.
//
// Each node kind has a fixed rule for which processes run, how their standard
// streams are wired and which single Status the node reports. Go can't fork a
// running program, so places where a classic shell would fork a copy of
// itself (the two sides of a pipe) run the subtree in a goroutine over a
// copied process state instead: its own working directory, environment and
// file table. Only the files listed in that table are inherited by programs
// started from it, so the shell's own descriptors are never rewired.
package executor

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"syscall"

	"github.com/josephlewis42/myshell/core/logger"
	"github.com/josephlewis42/myshell/core/tree"
)

// DefaultName prefixes diagnostics if Options.Name is empty.
const DefaultName = "myshell"

// SubshellPolicy selects the status a SubShell node reports.
type SubshellPolicy int

const (
	// DiscardSubshellStatus always reports success for a group, whatever the
	// enclosed command returned.
	DiscardSubshellStatus SubshellPolicy = iota
	// PropagateSubshellStatus reports the status of the enclosed command.
	PropagateSubshellStatus
)

func (p SubshellPolicy) String() string {
	switch p {
	case DiscardSubshellStatus:
		return "discard"
	case PropagateSubshellStatus:
		return "propagate"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseSubshellPolicy converts a name produced by SubshellPolicy.String.
func ParseSubshellPolicy(s string) (SubshellPolicy, error) {
	switch s {
	case "discard", "":
		return DiscardSubshellStatus, nil
	case "propagate":
		return PropagateSubshellStatus, nil
	default:
		return 0, fmt.Errorf("unknown subshell status policy: %q", s)
	}
}

// Options configure an Executor. Zero values fall back to the state of the
// current process.
type Options struct {
	// Name prefixes every diagnostic.
	Name string
	// Dir is the initial working directory.
	Dir string
	// Env is the shell environment, a snapshot of os.Environ if nil.
	Env *MapEnv

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	Subshell SubshellPolicy
	Events   logger.EventRecorder
}

// Executor runs command trees. It isn't safe for concurrent use, the shell
// runs one line at a time.
type Executor struct {
	name           string
	subshellPolicy SubshellPolicy
	events         logger.EventRecorder

	root     *process
	stdFiles []*os.File
}

// New creates an Executor.
func New(opts Options) (*Executor, error) {
	ex := &Executor{
		name:           opts.Name,
		subshellPolicy: opts.Subshell,
		events:         opts.Events,
		root: &process{
			dir: opts.Dir,
			env: opts.Env,
		},
		stdFiles: []*os.File{opts.Stdin, opts.Stdout, opts.Stderr},
	}

	if ex.name == "" {
		ex.name = DefaultName
	}
	if ex.events == nil {
		ex.events = logger.NopEventRecorder{}
	}
	if ex.root.env == nil {
		ex.root.env = NewOSEnv()
	}
	if ex.root.dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		ex.root.dir = wd
	}
	dir, err := filepath.Abs(ex.root.dir)
	if err != nil {
		return nil, err
	}
	ex.root.dir = dir

	for i, std := range []*os.File{os.Stdin, os.Stdout, os.Stderr} {
		if ex.stdFiles[i] == nil {
			ex.stdFiles[i] = std
		}
	}

	return ex, nil
}

// Dir returns the shell's working directory.
func (e *Executor) Dir() string {
	return e.root.dir
}

// Env returns the shell's environment.
func (e *Executor) Env() *MapEnv {
	return e.root.env
}

// Execute runs the tree rooted at n and returns its status.
func (e *Executor) Execute(n *tree.Node) Status {
	fm := &frame{Executor: e, proc: e.root, files: e.stdFiles}
	return fm.execute(n)
}

// process is the state a forked copy of the shell would inherit by value.
type process struct {
	dir string
	env *MapEnv
}

func (p *process) fork() *process {
	return &process{
		dir: p.dir,
		env: NewMapEnvFrom(p.env),
	}
}

func (p *process) chdir(dir string) error {
	dir = resolve(p.dir, dir)

	stat, err := os.Stat(dir)
	switch {
	case err != nil:
		return err
	case !stat.IsDir():
		return fmt.Errorf("%s: not a directory", dir)
	}

	p.dir = filepath.Clean(dir)
	p.env.Setenv("PWD", p.dir)
	return nil
}

// frame is a view of a process through a file table: slots 0, 1 and 2 are
// the standard input, output and error any program started from it gets.
type frame struct {
	*Executor

	proc  *process
	files []*os.File
}

// clone copies the file table, keeping the process.
func (fm *frame) clone() *frame {
	return &frame{
		Executor: fm.Executor,
		proc:     fm.proc,
		files:    append([]*os.File(nil), fm.files...),
	}
}

// fork copies both the file table and the process.
func (fm *frame) fork() *frame {
	out := fm.clone()
	out.proc = fm.proc.fork()
	return out
}

func (fm *frame) stdout() *os.File {
	return fm.files[1]
}

func (fm *frame) stderr() *os.File {
	return fm.files[2]
}

func (fm *frame) errorf(format string, a ...interface{}) {
	fmt.Fprintf(fm.stderr(), "%s: %s\n", fm.name, fmt.Sprintf(format, a...))
}

func (fm *frame) record(event logger.LogType) {
	if err := fm.events.Record(event); err != nil {
		log.Printf("recording event: %v", err)
	}
}

func (fm *frame) execute(n *tree.Node) Status {
	if n == nil {
		fm.errorf("nothing to execute")
		return StatusUnknown
	}

	switch n.Kind {
	case tree.Plain:
		return fm.plain(n)
	case tree.Sequence:
		return fm.sequence(n)
	case tree.And:
		return fm.and(n)
	case tree.Or:
		return fm.or(n)
	case tree.Pipe:
		return fm.pipe(n)
	case tree.SubShell:
		return fm.subshell(n)
	default:
		fm.errorf("don't know how to execute a %s node", n.Kind)
		return StatusUnknown
	}
}

func (fm *frame) plain(n *tree.Node) Status {
	if len(n.Argv) == 0 {
		fm.errorf("empty command")
		return StatusUnknown
	}

	// Builtins run in this process and ignore redirections.
	if b := LookupBuiltin(n.Argv[0]); b != NotBuiltin {
		return fm.builtin(b, n.Argv)
	}

	child, release, err := fm.applyRedirections(n)
	if err != nil {
		return StatusRedirectFailed
	}
	defer release()

	return child.spawn(n.Argv)
}

// spawn starts argv with the frame's file table and waits for it.
func (fm *frame) spawn(argv []string) Status {
	path, err := LookPath(fm.proc.env, fm.proc.dir, argv[0])
	if err != nil {
		return fm.execFailed(argv, err)
	}

	proc, err := os.StartProcess(path, argv, &os.ProcAttr{
		Dir:   fm.proc.dir,
		Env:   fm.proc.env.Environ(),
		Files: fm.files,
	})
	switch {
	case isResourceExhausted(err):
		fm.errorf("fork: %v", err)
		fm.record(&logger.ExecFailure{Command: argv, Error: err.Error()})
		return StatusUnknown
	case err != nil:
		return fm.execFailed(argv, err)
	}

	fm.record(&logger.RunCommand{
		Command:             argv,
		ResolvedCommandPath: path,
		Dir:                 fm.proc.dir,
		Pid:                 proc.Pid,
	})

	state, err := proc.Wait()
	if err != nil {
		fm.errorf("wait: %v", err)
		return StatusUnknown
	}

	status, signaled := statusFromProcessState(state)
	fm.record(&logger.CommandExit{
		Command:  argv,
		Pid:      proc.Pid,
		Status:   int(status),
		Signaled: signaled,
	})
	return status
}

func (fm *frame) execFailed(argv []string, err error) Status {
	fm.errorf("%s: %v", argv[0], err)
	fm.record(&logger.ExecFailure{Command: argv, Error: err.Error()})
	return StatusExecFailed
}

func isResourceExhausted(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM)
}

func (fm *frame) sequence(n *tree.Node) Status {
	if status := fm.execute(n.Left); status != StatusSuccess {
		fm.errorf("left side of sequence exited with status %d", status)
	}

	status := fm.execute(n.Right)
	if status != StatusSuccess {
		fm.errorf("right side of sequence exited with status %d", status)
	}
	return status
}

func (fm *frame) and(n *tree.Node) Status {
	if status := fm.execute(n.Left); status != StatusSuccess {
		return status
	}
	return fm.execute(n.Right)
}

func (fm *frame) or(n *tree.Node) Status {
	if status := fm.execute(n.Left); status == StatusSuccess {
		return status
	}
	return fm.execute(n.Right)
}

// pipe runs both sides concurrently, each over its own copy of the process.
// The writer owns the write end and the reader owns the read end, each closes
// its end once its subtree is done so the reader sees end of input as soon
// as the last writer is gone.
func (fm *frame) pipe(n *tree.Node) Status {
	r, w, err := os.Pipe()
	if err != nil {
		fm.errorf("pipe: %v", err)
		return StatusUnknown
	}

	writer := fm.fork()
	writer.files[1] = w
	reader := fm.fork()
	reader.files[0] = r

	left := writer.start(n.Left, w)
	right := reader.start(n.Right, r)

	<-left
	return <-right
}

// start runs n in the background like a forked child that exits with the
// subtree's status. end is closed when the subtree finishes.
func (fm *frame) start(n *tree.Node, end *os.File) <-chan Status {
	done := make(chan Status, 1)
	go func() {
		status := fm.execute(n)
		end.Close()
		done <- Status(status.ExitCode())
	}()
	return done
}

func (fm *frame) subshell(n *tree.Node) Status {
	group, release, err := fm.applyRedirections(n)
	if err != nil {
		return StatusRedirectFailed
	}
	defer release()

	status := group.execute(n.Left)
	if fm.subshellPolicy == PropagateSubshellStatus {
		return status
	}
	return StatusSuccess
}
