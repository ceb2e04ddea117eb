// Package shell turns a line of shell input into a command tree.
//
// The accepted language is a subset of the POSIX shell grammar: simple
// commands made of literal words, the list operators ;, &&, || and |,
// parenthesized groups, and the redirections <, >, >> and 2>. Anything that
// would need expansion or a scripting construct is rejected with an error
// pointing at its position rather than silently misinterpreted.
//
// Defined by
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
package shell

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/myshell/core/tree"
	"mvdan.cc/sh/v3/syntax"
)

// Parse converts line into a command tree. Lines that contain no commands,
// only blanks or comments, return a nil node and no error.
func Parse(line string) (*tree.Node, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	file, err := parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, err
	}

	return list(file.Stmts)
}

// list joins statements into a left-leaning chain of Sequence nodes.
func list(stmts []*syntax.Stmt) (*tree.Node, error) {
	var out *tree.Node
	for _, stmt := range stmts {
		n, err := statement(stmt)
		if err != nil {
			return nil, err
		}

		if out == nil {
			out = n
		} else {
			out = tree.NewSequence(out, n)
		}
	}
	return out, nil
}

func statement(stmt *syntax.Stmt) (*tree.Node, error) {
	switch {
	case stmt.Background:
		return nil, unsupported(stmt, "background jobs (&)")
	case stmt.Coprocess:
		return nil, unsupported(stmt, "coprocesses")
	case stmt.Negated:
		return nil, unsupported(stmt, "negation (!)")
	}

	var n *tree.Node
	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		call, err := callExpr(stmt, cmd)
		if err != nil {
			return nil, err
		}
		n = call

	case *syntax.BinaryCmd:
		if len(stmt.Redirs) > 0 {
			return nil, unsupported(stmt.Redirs[0], "redirecting a list")
		}
		return binaryCmd(cmd)

	case *syntax.Subshell:
		inner, err := list(cmd.Stmts)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, unsupported(cmd, "empty groups")
		}
		n = tree.NewSubShell(inner)

	case nil:
		// Redirections without a command, e.g. "> file".
		return nil, unsupported(stmt, "redirections without a command")

	default:
		return nil, unsupported(cmd, describeCommand(cmd))
	}

	for _, redir := range stmt.Redirs {
		if err := redirect(n, redir); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func callExpr(stmt *syntax.Stmt, cmd *syntax.CallExpr) (*tree.Node, error) {
	if len(cmd.Assigns) > 0 {
		return nil, unsupported(cmd.Assigns[0], "variable assignments")
	}
	if len(cmd.Args) == 0 {
		return nil, unsupported(stmt, "redirections without a command")
	}

	argv := make([]string, 0, len(cmd.Args))
	for _, word := range cmd.Args {
		arg, err := literal(word)
		if err != nil {
			return nil, err
		}
		argv = append(argv, arg)
	}
	return tree.NewPlain(argv...), nil
}

func binaryCmd(cmd *syntax.BinaryCmd) (*tree.Node, error) {
	if cmd.Op == syntax.Pipe {
		return pipeline(cmd)
	}

	left, err := statement(cmd.X)
	if err != nil {
		return nil, err
	}
	right, err := statement(cmd.Y)
	if err != nil {
		return nil, err
	}

	switch cmd.Op {
	case syntax.AndStmt:
		return tree.NewAnd(left, right), nil
	case syntax.OrStmt:
		return tree.NewOr(left, right), nil
	default:
		return nil, unsupported(cmd, fmt.Sprintf("the %s operator", cmd.Op))
	}
}

// pipeline flattens a | b | c into its stages and rebuilds it leaning left
// like the other lists.
func pipeline(cmd *syntax.BinaryCmd) (*tree.Node, error) {
	var stages []*syntax.Stmt
	var collect func(stmt *syntax.Stmt)
	collect = func(stmt *syntax.Stmt) {
		if bin, ok := stmt.Cmd.(*syntax.BinaryCmd); ok && bin.Op == syntax.Pipe && isPlainStmt(stmt) {
			collect(bin.X)
			collect(bin.Y)
			return
		}
		stages = append(stages, stmt)
	}
	collect(cmd.X)
	collect(cmd.Y)

	var out *tree.Node
	for _, stage := range stages {
		n, err := statement(stage)
		if err != nil {
			return nil, err
		}

		if out == nil {
			out = n
		} else {
			out = tree.NewPipe(out, n)
		}
	}
	return out, nil
}

func isPlainStmt(stmt *syntax.Stmt) bool {
	return !stmt.Background && !stmt.Coprocess && !stmt.Negated && len(stmt.Redirs) == 0
}

func redirect(n *tree.Node, redir *syntax.Redirect) error {
	fd := "0"
	if redir.Op != syntax.RdrIn {
		fd = "1"
	}
	if redir.N != nil {
		fd = redir.N.Value
	}

	if redir.Word == nil {
		return unsupported(redir, fmt.Sprintf("the %s redirection", redir.Op))
	}
	target, err := literal(redir.Word)
	if err != nil {
		return err
	}
	if target == "" {
		return unsupported(redir, "empty redirection targets")
	}

	switch {
	case redir.Op == syntax.RdrIn && fd == "0":
		n.Input = target
	case redir.Op == syntax.RdrOut && fd == "1":
		n.Output = target
	case redir.Op == syntax.AppOut && fd == "1":
		n.Append = target
	case redir.Op == syntax.RdrOut && fd == "2":
		n.Error = target
	case redir.N != nil:
		return unsupported(redir, fmt.Sprintf("the %s%s redirection", redir.N.Value, redir.Op))
	default:
		return unsupported(redir, fmt.Sprintf("the %s redirection", redir.Op))
	}
	return nil
}

// literal returns the text of a word after quote removal. Words that would
// need any expansion are rejected.
func literal(word *syntax.Word) (string, error) {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch part := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescape(part.Value, false))

		case *syntax.SglQuoted:
			if part.Dollar {
				return "", unsupported(part, "$'...' quoting")
			}
			sb.WriteString(part.Value)

		case *syntax.DblQuoted:
			if part.Dollar {
				return "", unsupported(part, `$"..." quoting`)
			}
			for _, inner := range part.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", unsupported(inner, describeWordPart(inner))
				}
				sb.WriteString(unescape(lit.Value, true))
			}

		default:
			return "", unsupported(part, describeWordPart(part))
		}
	}
	return sb.String(), nil
}

// unescape removes backslash quoting. Inside double quotes a backslash only
// escapes $, `, ", \ and newline and is kept before anything else.
func unescape(s string, quoted bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch {
		case next == '\n':
			i++
		case !quoted || strings.IndexByte("$`\"\\", next) >= 0:
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func describeWordPart(part syntax.WordPart) string {
	switch part.(type) {
	case *syntax.ParamExp:
		return "parameter expansion"
	case *syntax.CmdSubst:
		return "command substitution"
	case *syntax.ArithmExp:
		return "arithmetic expansion"
	case *syntax.ProcSubst:
		return "process substitution"
	case *syntax.ExtGlob:
		return "extended globs"
	case *syntax.BraceExp:
		return "brace expansion"
	default:
		return fmt.Sprintf("%T", part)
	}
}

func describeCommand(cmd syntax.Command) string {
	switch cmd.(type) {
	case *syntax.Block:
		return "blocks"
	case *syntax.IfClause:
		return "if statements"
	case *syntax.WhileClause:
		return "while loops"
	case *syntax.ForClause:
		return "for loops"
	case *syntax.CaseClause:
		return "case statements"
	case *syntax.FuncDecl:
		return "function declarations"
	case *syntax.ArithmCmd:
		return "arithmetic commands"
	case *syntax.TestClause:
		return "test expressions"
	case *syntax.DeclClause:
		return "declarations"
	case *syntax.LetClause:
		return "let"
	case *syntax.TimeClause:
		return "time"
	default:
		return fmt.Sprintf("%T", cmd)
	}
}

// UnsupportedError reports valid shell syntax this shell can't run.
type UnsupportedError struct {
	Line, Col uint
	What      string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%d:%d: %s not supported", e.Line, e.Col, e.What)
}

func unsupported(node syntax.Node, what string) error {
	pos := node.Pos()
	return &UnsupportedError{Line: pos.Line(), Col: pos.Col(), What: what}
}
