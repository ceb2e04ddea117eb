package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`
	Sessions       StrCounter `json:"sessions"`

	Input           InputReport           `json:"input_report"`
	RunCommand      RunCommandReport      `json:"run_command_report"`
	CommandExit     CommandExitReport     `json:"command_exit_report"`
	Builtin         BuiltinReport         `json:"builtin_report"`
	RedirectFailure RedirectFailureReport `json:"redirect_failure_report"`
	ExecFailure     ExecFailureReport     `json:"exec_failure_report"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		RedirectFailure: RedirectFailureReport{Paths: NewPathCounter("path", "error")},
		ExecFailure:     ExecFailureReport{Commands: NewPathCounter("command", "error")},
	}
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	if le.SessionID != "" {
		r.Sessions.Increment(le.SessionID)
	}

	switch event := le.GetLogType().(type) {
	case *InputLine:
		r.Input.update(event)
	case *RunCommand:
		r.RunCommand.update(event)
	case *CommandExit:
		r.CommandExit.update(event)
	case *Builtin:
		r.Builtin.update(event)
	case *RedirectFailure:
		r.RedirectFailure.update(event)
	case *ExecFailure:
		r.ExecFailure.update(event)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type InputReport struct {
	Lines int `json:"lines"`
	// Statuses of whole input lines.
	Statuses StrCounter `json:"statuses"`
}

func (r *InputReport) update(e *InputLine) {
	r.Lines++
	r.Statuses.Increment(fmt.Sprintf("%d", e.Status))
}

type RunCommandReport struct {
	// Name of the resolved command
	ResolvedCommandPaths StrCounter `json:"resolved_command_paths"`
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	r.ResolvedCommandPaths.Increment(rc.ResolvedCommandPath)
	if len(rc.Command) > 0 {
		r.CommandNames.Increment(rc.Command[0])
	}
}

type CommandExitReport struct {
	Statuses StrCounter `json:"statuses"`
	Signaled int        `json:"signaled"`
}

func (r *CommandExitReport) update(ce *CommandExit) {
	r.Statuses.Increment(fmt.Sprintf("%d", ce.Status))
	if ce.Signaled {
		r.Signaled++
	}
}

type BuiltinReport struct {
	CommandLines StrCounter `json:"command_lines"`
	Failures     int        `json:"failures"`
}

func (r *BuiltinReport) update(b *Builtin) {
	r.CommandLines.Increment(strings.Join(b.Command, " "))
	if b.Status != 0 {
		r.Failures++
	}
}

type RedirectFailureReport struct {
	Paths *PathCounter `json:"paths"`
}

func (r *RedirectFailureReport) update(rf *RedirectFailure) {
	if r.Paths == nil {
		r.Paths = NewPathCounter("path", "error")
	}
	r.Paths.Increment(rf.Path, rf.Error)
}

type ExecFailureReport struct {
	Commands *PathCounter `json:"commands"`
}

func (r *ExecFailureReport) update(ef *ExecFailure) {
	if r.Commands == nil {
		r.Commands = NewPathCounter("command", "error")
	}
	name := ""
	if len(ef.Command) > 0 {
		name = ef.Command[0]
	}
	r.Commands.Increment(name, ef.Error)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for the given key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of times a tuple of strings is seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the given tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
