package core

import (
	"fmt"

	"github.com/josephlewis42/myshell/core/tree"
)

// aliases maps a command name to the words it's replaced with.
type aliases map[string][]string

// parseAliases splits each definition into words, quoting works as it does on
// the command line but operators are plain words.
func parseAliases(defs map[string]string) (aliases, error) {
	out := make(aliases, len(defs))
	for name, def := range defs {
		n, err := tree.Simple(def)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", name, err)
		}
		out[name] = n.Argv
	}
	return out, nil
}

// expand returns n with the first word of every simple command replaced by
// its alias. Replacements aren't expanded again. n itself is never modified.
func (a aliases) expand(n *tree.Node) *tree.Node {
	if n == nil || len(a) == 0 {
		return n
	}

	out := *n
	switch n.Kind {
	case tree.Plain:
		if len(n.Argv) == 0 {
			return n
		}
		if words, ok := a[n.Argv[0]]; ok {
			out.Argv = append(append([]string(nil), words...), n.Argv[1:]...)
		}
	default:
		out.Left = a.expand(n.Left)
		out.Right = a.expand(n.Right)
	}
	return &out
}
