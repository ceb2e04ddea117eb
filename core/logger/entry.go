package logger

// LogEntry is a single line in the event log. Exactly one of the event fields
// is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	InputLine       *InputLine       `json:"input_line,omitempty"`
	RunCommand      *RunCommand      `json:"run_command,omitempty"`
	CommandExit     *CommandExit     `json:"command_exit,omitempty"`
	Builtin         *Builtin         `json:"builtin,omitempty"`
	RedirectFailure *RedirectFailure `json:"redirect_failure,omitempty"`
	ExecFailure     *ExecFailure     `json:"exec_failure,omitempty"`
}

// LogType is implemented by every event that can be stored in a LogEntry.
type LogType interface {
	setOn(le *LogEntry)
}

// GetLogType returns the event held by the entry or nil if none is set.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.InputLine != nil:
		return le.InputLine
	case le.RunCommand != nil:
		return le.RunCommand
	case le.CommandExit != nil:
		return le.CommandExit
	case le.Builtin != nil:
		return le.Builtin
	case le.RedirectFailure != nil:
		return le.RedirectFailure
	case le.ExecFailure != nil:
		return le.ExecFailure
	default:
		return nil
	}
}

// InputLine is a line read by the interactive loop along with the status of
// the tree it produced.
type InputLine struct {
	Line   string `json:"line"`
	Status int    `json:"status"`
}

func (e *InputLine) setOn(le *LogEntry) { le.InputLine = e }

// RunCommand is logged when an external program is started.
type RunCommand struct {
	Command             []string `json:"command"`
	ResolvedCommandPath string   `json:"resolved_command_path"`
	Dir                 string   `json:"dir"`
	Pid                 int      `json:"pid"`
}

func (e *RunCommand) setOn(le *LogEntry) { le.RunCommand = e }

// CommandExit is logged when an external program has been waited for.
type CommandExit struct {
	Command  []string `json:"command"`
	Pid      int      `json:"pid"`
	Status   int      `json:"status"`
	Signaled bool     `json:"signaled,omitempty"`
}

func (e *CommandExit) setOn(le *LogEntry) { le.CommandExit = e }

// Builtin is logged when a shell builtin runs.
type Builtin struct {
	Command []string `json:"command"`
	Status  int      `json:"status"`
	Error   string   `json:"error,omitempty"`
}

func (e *Builtin) setOn(le *LogEntry) { le.Builtin = e }

// RedirectFailure is logged when a redirection target can't be opened.
type RedirectFailure struct {
	Command []string `json:"command,omitempty"`
	Path    string   `json:"path"`
	Error   string   `json:"error"`
}

func (e *RedirectFailure) setOn(le *LogEntry) { le.RedirectFailure = e }

// ExecFailure is logged when a program can't be found or started.
type ExecFailure struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

func (e *ExecFailure) setOn(le *LogEntry) { le.ExecFailure = e }
