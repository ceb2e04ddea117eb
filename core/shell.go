package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/user"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/myshell/core/config"
	"github.com/josephlewis42/myshell/core/executor"
	"github.com/josephlewis42/myshell/core/logger"
	"github.com/josephlewis42/myshell/core/shell"
)

// StatusSyntaxError is reported for lines that can't be parsed.
const StatusSyntaxError executor.Status = 2

// LineReader supplies input lines, *readline.Instance is the interactive
// implementation.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

var _ LineReader = (*readline.Instance)(nil)

// Options configure where a Shell reads and writes. Nil files default to the
// process's own standard streams.
type Options struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Dir is the starting directory, the process working directory if empty.
	Dir string

	Events logger.EventRecorder
}

// Shell reads lines, parses them and hands the trees to an executor.
type Shell struct {
	config   *config.Configuration
	executor *executor.Executor
	events   logger.EventRecorder
	aliases  aliases

	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	user string
	host string
	root bool

	lastStatus executor.Status
}

// NewShell creates a shell for the configuration.
func NewShell(cfg *config.Configuration, opts Options) (*Shell, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Events == nil {
		opts.Events = logger.NopEventRecorder{}
	}

	policy, err := cfg.SubshellPolicy()
	if err != nil {
		return nil, err
	}
	aliasWords, err := parseAliases(cfg.Aliases)
	if err != nil {
		return nil, err
	}

	ex, err := executor.New(executor.Options{
		Name:     cfg.Name,
		Dir:      opts.Dir,
		Stdin:    opts.Stdin,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
		Subshell: policy,
		Events:   opts.Events,
	})
	if err != nil {
		return nil, err
	}

	s := &Shell{
		config:   cfg,
		executor: ex,
		events:   opts.Events,
		aliases:  aliasWords,
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		root:     os.Getuid() == 0,
	}

	if u, err := user.Current(); err == nil {
		s.user = u.Username
	} else {
		s.user = ex.Env().Getenv("USER")
	}
	s.host, _ = os.Hostname()

	return s, nil
}

// Executor returns the executor commands run on.
func (s *Shell) Executor() *executor.Executor {
	return s.executor
}

// LastStatus returns the status of the most recent line.
func (s *Shell) LastStatus() executor.Status {
	return s.lastStatus
}

// Prompt renders the configured prompt for the current state.
func (s *Shell) Prompt() string {
	return ExpandPrompt(s.config.Prompt, PromptVars{
		Name:  s.config.Name,
		User:  s.user,
		Host:  s.host,
		Dir:   s.executor.Dir(),
		Home:  s.executor.Env().Getenv("HOME"),
		Root:  s.root,
		Color: s.config.ColorPrompt,
	})
}

// RunCommand parses and executes one line, replacing aliased command names
// first. Lines without commands leave the last status alone.
func (s *Shell) RunCommand(line string) executor.Status {
	node, err := shell.Parse(line)
	switch {
	case err != nil:
		fmt.Fprintf(s.stderr, "%s: syntax error: %v\n", s.config.Name, err)
		s.lastStatus = StatusSyntaxError
	case node == nil:
		return s.lastStatus
	default:
		s.lastStatus = s.executor.Execute(s.aliases.expand(node))
	}

	if err := s.events.Record(&logger.InputLine{Line: line, Status: int(s.lastStatus)}); err != nil {
		log.Printf("recording input: %v", err)
	}
	return s.lastStatus
}

// RunInteractive runs the read loop on the shell's input until end of input.
// Terminals get line editing and history. Other input is read a line at a
// time without prompts, leaving the rest for the commands that run.
func (s *Shell) RunInteractive() (executor.Status, error) {
	if !readline.IsTerminal(int(s.stdin.Fd())) {
		return s.Run(newLineInput(s.stdin)), nil
	}

	input, err := newPausableInput(s.stdin)
	if err != nil {
		log.Printf("line editing unavailable: %v", err)
		return s.Run(newLineInput(s.stdin)), nil
	}
	defer input.Close()

	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:       s.config.HistoryPath(),
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		Stdin:             input,
		Stdout:            s.stdout,
		Stderr:            s.stderr,
	})
	if err != nil {
		return executor.StatusUnknown, err
	}
	defer rl.Close()

	return s.Run(&terminalReader{Instance: rl, input: input}), nil
}

// Run reads lines from r until end of input and returns the last status.
func (s *Shell) Run(r LineReader) executor.Status {
	if s.config.Banner {
		fmt.Fprintf(s.stdout, "welcome to %s!\n", s.config.Name)
	}

	for {
		r.SetPrompt(s.Prompt())
		line, err := r.Readline()

		switch {
		case err == io.EOF:
			if s.config.Banner {
				fmt.Fprintln(s.stdout, "goodbye!")
			}
			return s.lastStatus

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			return executor.StatusUnknown

		case strings.TrimSpace(line) == "":
			continue // empty line

		default:
			s.RunCommand(line)
		}
	}
}
