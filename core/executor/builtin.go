package executor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/josephlewis42/myshell/core/logger"
	"github.com/pborman/getopt/v2"
)

// Builtin enumerates the commands the shell interprets itself.
type Builtin int

const (
	NotBuiltin Builtin = iota
	BuiltinCd
)

var builtinNames = map[string]Builtin{
	"cd": BuiltinCd,
}

// LookupBuiltin resolves a command name, NotBuiltin if it names a program.
func LookupBuiltin(name string) Builtin {
	return builtinNames[name]
}

// BuiltinNames lists the builtin command names in sorted order.
func BuiltinNames() []string {
	var out []string
	for name := range builtinNames {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (b Builtin) String() string {
	for name, v := range builtinNames {
		if v == b {
			return name
		}
	}
	return fmt.Sprintf("builtin(%d)", int(b))
}

// builtin runs b in the current process. Redirections don't apply, output
// goes to the frame's own files.
func (fm *frame) builtin(b Builtin, argv []string) Status {
	var err error
	switch b {
	case BuiltinCd:
		err = fm.cd(argv)
	default:
		err = errors.New("not a builtin")
	}

	status := StatusSuccess
	event := &logger.Builtin{Command: argv}
	if err != nil {
		status = StatusUnknown
		event.Error = err.Error()
		fm.errorf("%s: %v", argv[0], err)
	}
	event.Status = int(status)
	fm.record(event)

	return status
}

// cd changes the working directory of the frame's process: to $HOME with no
// argument, otherwise to the first argument. Only -h and --help are options,
// anything else starting with a dash is a directory name.
func (fm *frame) cd(argv []string) error {
	opts := getopt.New()
	opts.SetProgram(argv[0])
	opts.SetParameters("[dir]")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(argv, nil); err != nil {
		return fm.proc.chdir(argv[1])
	}

	if *helpOpt {
		w := fm.stdout()
		fmt.Fprintln(w, "usage: cd [dir]")
		fmt.Fprintln(w, "Change the shell working directory, $HOME if dir is omitted.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		opts.PrintOptions(w)
		return nil
	}

	var target string
	if args := opts.Args(); len(args) > 0 {
		target = args[0]
	} else {
		home, ok := fm.proc.env.LookupEnv("HOME")
		if !ok || home == "" {
			return errors.New("HOME not set")
		}
		target = home
	}

	return fm.proc.chdir(target)
}
