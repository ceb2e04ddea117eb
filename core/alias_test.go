package core

import (
	"testing"

	"github.com/josephlewis42/myshell/core/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAliases(t *testing.T) {
	got, err := parseAliases(map[string]string{
		"ll":    "ls -l",
		"greet": `echo "hello there"`,
		"both":  "a && b",
	})
	require.NoError(t, err)

	assert.Equal(t, aliases{
		"ll":    {"ls", "-l"},
		"greet": {"echo", "hello there"},
		"both":  {"a", "&&", "b"},
	}, got)

	_, err = parseAliases(map[string]string{"blank": "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `alias "blank"`)
}

func TestAliasExpand(t *testing.T) {
	a := aliases{
		"ll": {"ls", "-l"},
		"ls": {"ls", "--color=never"},
	}

	cases := map[string]struct {
		node *tree.Node
		want string
	}{
		"plain": {
			node: tree.NewPlain("ll", "/tmp"),
			want: "Plain[ls -l /tmp]",
		},
		"not expanded twice": {
			node: tree.NewPlain("ll"),
			want: "Plain[ls -l]",
		},
		"only the command name": {
			node: tree.NewPlain("echo", "ll"),
			want: "Plain[echo ll]",
		},
		"keeps redirections": {
			node: tree.NewPlain("ll").WithOutput("out.txt"),
			want: "Plain[ls -l >out.txt]",
		},
		"nested": {
			node: tree.NewPipe(tree.NewSubShell(tree.NewPlain("ls")), tree.NewAnd(tree.NewPlain("true"), tree.NewPlain("ll"))),
			want: "Pipe(SubShell(Plain[ls --color=never]), And(Plain[true], Plain[ls -l]))",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			before := tc.node.String()

			assert.Equal(t, tc.want, a.expand(tc.node).String())
			assert.Equal(t, before, tc.node.String())
		})
	}

	var none aliases
	n := tree.NewPlain("ll")
	assert.Same(t, n, none.expand(n))
	assert.Nil(t, a.expand(nil))
}
