// Package tree holds the command tree produced by the parser for a single line
// of shell input.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
)

// Kind identifies which execution rule applies to a Node.
type Kind int

const (
	Plain    Kind = iota // a simple command: argv plus redirections
	Sequence             // left ; right
	And                  // left && right
	Or                   // left || right
	Pipe                 // left | right
	SubShell             // ( left ) with optional redirections
)

var kindNames = map[Kind]string{
	Plain:    "plain",
	Sequence: "sequence",
	And:      "and",
	Or:       "or",
	Pipe:     "pipe",
	SubShell: "subshell",
}

var kindTitles = map[Kind]string{
	Sequence: "Sequence",
	And:      "And",
	Or:       "Or",
	Pipe:     "Pipe",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts the name produced by Kind.String back into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind: %q", s)
}

// MarshalJSON implements json.Marshaler.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Node is one vertex of a command tree. Nodes are owned by whoever built them
// and are only ever read during execution.
type Node struct {
	Kind Kind `json:"kind"`

	// Argv holds the program name and its arguments, Plain only.
	Argv []string `json:"argv,omitempty"`

	// Redirection targets, Plain and SubShell only. Empty means unset.
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
	Append string `json:"append,omitempty"`
	Error  string `json:"error,omitempty"`

	// Left and Right are the operands of the binary kinds. SubShell uses Left
	// for the enclosed command.
	Left  *Node `json:"left,omitempty"`
	Right *Node `json:"right,omitempty"`
}

// NewPlain creates a simple command node.
func NewPlain(argv ...string) *Node {
	return &Node{Kind: Plain, Argv: argv}
}

// NewSequence creates a node running left then right.
func NewSequence(left, right *Node) *Node {
	return &Node{Kind: Sequence, Left: left, Right: right}
}

// NewAnd creates a node running right only if left succeeds.
func NewAnd(left, right *Node) *Node {
	return &Node{Kind: And, Left: left, Right: right}
}

// NewOr creates a node running right only if left fails.
func NewOr(left, right *Node) *Node {
	return &Node{Kind: Or, Left: left, Right: right}
}

// NewPipe creates a node feeding the output of left into right.
func NewPipe(left, right *Node) *Node {
	return &Node{Kind: Pipe, Left: left, Right: right}
}

// NewSubShell creates a grouping node around inner.
func NewSubShell(inner *Node) *Node {
	return &Node{Kind: SubShell, Left: inner}
}

// Simple builds a Plain node by splitting a single command line into words.
// Operators are not recognized, they become ordinary arguments.
func Simple(line string) (*Node, error) {
	argv, err := shlex.Split(line, true)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	return NewPlain(argv...), nil
}

// WithInput returns a copy of n that reads standard input from path.
func (n *Node) WithInput(path string) *Node {
	out := *n
	out.Input = path
	return &out
}

// WithOutput returns a copy of n that truncates path and writes standard
// output to it.
func (n *Node) WithOutput(path string) *Node {
	out := *n
	out.Output = path
	return &out
}

// WithAppend returns a copy of n that appends standard output to path.
func (n *Node) WithAppend(path string) *Node {
	out := *n
	out.Append = path
	return &out
}

// WithError returns a copy of n that writes standard error to path.
func (n *Node) WithError(path string) *Node {
	out := *n
	out.Error = path
	return &out
}

// HasRedirects reports whether any redirection target is set.
func (n *Node) HasRedirects() bool {
	return n.Input != "" || n.Output != "" || n.Append != "" || n.Error != ""
}

// Validate checks the structural invariants of the tree rooted at n.
func (n *Node) Validate() error {
	if n == nil {
		return errors.New("nil node")
	}

	switch n.Kind {
	case Plain:
		if len(n.Argv) == 0 {
			return errors.New("plain command has no arguments")
		}
		if n.Left != nil || n.Right != nil {
			return errors.New("plain command has operands")
		}
		return nil

	case Sequence, And, Or, Pipe:
		if n.HasRedirects() {
			return fmt.Errorf("%s node carries redirections", n.Kind)
		}
		if n.Left == nil || n.Right == nil {
			return fmt.Errorf("%s node is missing an operand", n.Kind)
		}
		if err := n.Left.Validate(); err != nil {
			return err
		}
		return n.Right.Validate()

	case SubShell:
		if n.Left == nil {
			return errors.New("subshell is empty")
		}
		if n.Right != nil {
			return errors.New("subshell has a right operand")
		}
		return n.Left.Validate()

	default:
		return fmt.Errorf("unknown node kind: %s", n.Kind)
	}
}

// String renders the tree on one line, e.g. Pipe(Plain[echo hi], Plain[cat]).
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	var sb strings.Builder
	switch n.Kind {
	case Plain:
		sb.WriteString("Plain[")
		for i, arg := range n.Argv {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(quoteWord(arg))
		}
		sb.WriteString(n.redirectString())
		sb.WriteByte(']')
	case Sequence, And, Or, Pipe:
		fmt.Fprintf(&sb, "%s(%s, %s)", kindTitles[n.Kind], n.Left, n.Right)
	case SubShell:
		fmt.Fprintf(&sb, "SubShell(%s%s)", n.Left, n.redirectString())
	default:
		fmt.Fprintf(&sb, "Unknown<%s>", n.Kind)
	}
	return sb.String()
}

func (n *Node) redirectString() string {
	var sb strings.Builder
	for _, r := range []struct {
		op, path string
	}{
		{"<", n.Input},
		{">", n.Output},
		{">>", n.Append},
		{"2>", n.Error},
	} {
		if r.path != "" {
			fmt.Fprintf(&sb, " %s%s", r.op, quoteWord(r.path))
		}
	}
	return sb.String()
}

func quoteWord(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'\\[]()") {
		return strconv.Quote(s)
	}
	return s
}
