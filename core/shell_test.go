package core

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/myshell/core/config"
	"github.com/josephlewis42/myshell/core/executor"
	"github.com/josephlewis42/myshell/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	lines   []interface{}
	prompts []string
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	next := r.lines[0]
	r.lines = r.lines[1:]

	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

type testShell struct {
	*Shell

	dir    string
	stdout *os.File
	stderr *os.File
	events *bytes.Buffer
}

func newTestShell(t *testing.T, modify func(*config.Configuration)) *testShell {
	t.Helper()
	return newTestShellInput(t, os.DevNull, modify)
}

// newTestShellInput creates a shell reading standard input from stdinPath.
func newTestShellInput(t *testing.T, stdinPath string, modify func(*config.Configuration)) *testShell {
	t.Helper()

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Name = "testsh"
	cfg.Prompt = `\s:\w\$ `
	cfg.Banner = true
	cfg.ColorPrompt = false
	cfg.SubshellStatus = "discard"
	if modify != nil {
		modify(cfg)
	}

	ioDir := t.TempDir()
	ts := &testShell{
		dir:    t.TempDir(),
		events: &bytes.Buffer{},
	}
	stdin, err := os.Open(stdinPath)
	require.NoError(t, err)
	ts.stdout, err = os.Create(filepath.Join(ioDir, "stdout"))
	require.NoError(t, err)
	ts.stderr, err = os.Create(filepath.Join(ioDir, "stderr"))
	require.NoError(t, err)
	t.Cleanup(func() {
		stdin.Close()
		ts.stdout.Close()
		ts.stderr.Close()
	})

	ts.Shell, err = NewShell(cfg, Options{
		Stdin:  stdin,
		Stdout: ts.stdout,
		Stderr: ts.stderr,
		Dir:    ts.dir,
		Events: logger.NewJsonLinesLogRecorder(ts.events).NewSession(),
	})
	require.NoError(t, err)
	return ts
}

func (ts *testShell) output(t *testing.T) (stdout, stderr string) {
	t.Helper()
	out, err := os.ReadFile(ts.stdout.Name())
	require.NoError(t, err)
	errOut, err := os.ReadFile(ts.stderr.Name())
	require.NoError(t, err)
	return string(out), string(errOut)
}

func TestRunCommand(t *testing.T) {
	ts := newTestShell(t, nil)

	assert.Equal(t, executor.StatusSuccess, ts.RunCommand(`echo "hello world" | cat > out.txt && cat out.txt`))
	assert.Equal(t, executor.Status(1), ts.RunCommand(`false || false`))
	assert.Equal(t, executor.Status(1), ts.LastStatus())

	stdout, stderr := ts.output(t)
	assert.Equal(t, "hello world\n", stdout)
	assert.Empty(t, stderr)
}

func TestRunCommandSyntaxError(t *testing.T) {
	ts := newTestShell(t, nil)

	assert.Equal(t, StatusSyntaxError, ts.RunCommand(`echo $HOME`))
	assert.Equal(t, StatusSyntaxError, ts.RunCommand(`echo "unterminated`))

	_, stderr := ts.output(t)
	assert.Contains(t, stderr, "testsh: syntax error: 1:6: parameter expansion not supported")
}

func TestRunCommandBlankKeepsStatus(t *testing.T) {
	ts := newTestShell(t, nil)

	ts.RunCommand("false")
	assert.Equal(t, executor.Status(1), ts.RunCommand("# nothing to do"))
}

func TestRunCommandSubshellPolicy(t *testing.T) {
	discard := newTestShell(t, nil)
	assert.Equal(t, executor.StatusSuccess, discard.RunCommand("(false)"))

	propagate := newTestShell(t, func(c *config.Configuration) {
		c.SubshellStatus = "propagate"
	})
	assert.Equal(t, executor.Status(1), propagate.RunCommand("(false)"))
}

func TestRunCommandAliases(t *testing.T) {
	ts := newTestShell(t, func(c *config.Configuration) {
		c.Aliases = map[string]string{
			"greet": `echo "hello there"`,
			"up":    "cd ..",
		}
	})
	require.NoError(t, os.Mkdir(filepath.Join(ts.dir, "sub"), 0755))

	assert.Equal(t, executor.StatusSuccess, ts.RunCommand("greet world | cat"))
	assert.Equal(t, executor.StatusSuccess, ts.RunCommand("cd sub && up"))
	assert.Equal(t, ts.dir, ts.Executor().Dir())

	stdout, stderr := ts.output(t)
	assert.Equal(t, "hello there world\n", stdout)
	assert.Empty(t, stderr)
}

func TestNewShellBadAlias(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Aliases = map[string]string{"broken": `echo "unterminated`}

	_, err = NewShell(cfg, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `alias "broken"`)
}

func TestRun(t *testing.T) {
	ts := newTestShell(t, nil)
	require.NoError(t, os.Mkdir(filepath.Join(ts.dir, "sub"), 0755))

	reader := &scriptedReader{lines: []interface{}{
		"echo one",
		"",
		"   ",
		readline.ErrInterrupt,
		"cd sub",
		"echo two; false",
	}}

	status := ts.Run(reader)

	assert.Equal(t, executor.Status(1), status)
	stdout, _ := ts.output(t)
	assert.Equal(t, "welcome to testsh!\none\ntwo\ngoodbye!\n", stdout)

	sign := "$"
	if os.Getuid() == 0 {
		sign = "#"
	}
	require.Len(t, reader.prompts, 7)
	assert.Equal(t, "testsh:"+ts.dir+sign+" ", reader.prompts[0])
	assert.Equal(t, "testsh:"+filepath.Join(ts.dir, "sub")+sign+" ", reader.prompts[6])

	report := logger.NewReport()
	require.NoError(t, logger.ReadJSONLinesLog(ts.events, report.Update))
	assert.Equal(t, 3, report.Input.Lines)
	assert.Equal(t, 1, report.Builtin.CommandLines.Get("cd sub"))
}

func TestRunWithoutBanner(t *testing.T) {
	ts := newTestShell(t, func(c *config.Configuration) {
		c.Banner = false
	})

	assert.Equal(t, executor.StatusSuccess, ts.Run(&scriptedReader{lines: []interface{}{"echo quiet"}}))
	stdout, _ := ts.output(t)
	assert.Equal(t, "quiet\n", stdout)
}

func TestRunReaderError(t *testing.T) {
	ts := newTestShell(t, nil)

	status := ts.Run(&scriptedReader{lines: []interface{}{io.ErrUnexpectedEOF}})
	assert.Equal(t, executor.StatusUnknown, status)
}

func TestRunInteractiveFileInput(t *testing.T) {
	cases := map[string]struct {
		input      string
		wantStatus executor.Status
		wantOut    string
	}{
		"command reads the rest of the input": {
			input:   "cat\nhello\nworld\n",
			wantOut: "welcome to testsh!\nhello\nworld\ngoodbye!\n",
		},
		"commands without input leave the lines alone": {
			input:   "echo start\ntrue < /dev/null\necho last\n",
			wantOut: "welcome to testsh!\nstart\nlast\ngoodbye!\n",
		},
		"last line without newline": {
			input:      "echo one\nfalse",
			wantStatus: 1,
			wantOut:    "welcome to testsh!\none\ngoodbye!\n",
		},
		"blank lines": {
			input:   "\n\n   \necho two\n",
			wantOut: "welcome to testsh!\ntwo\ngoodbye!\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			inPath := filepath.Join(t.TempDir(), "input")
			require.NoError(t, os.WriteFile(inPath, []byte(tc.input), 0644))
			ts := newTestShellInput(t, inPath, nil)

			status, err := ts.RunInteractive()
			require.NoError(t, err)

			stdout, stderr := ts.output(t)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantOut, stdout)
			assert.Empty(t, stderr)
		})
	}
}

func TestLineInput(t *testing.T) {
	r := strings.NewReader("one\n\ntwo")
	in := newLineInput(r)
	in.SetPrompt("ignored> ")

	for _, want := range []string{"one", "", "two"} {
		line, err := in.Readline()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}

	_, err := in.Readline()
	assert.Equal(t, io.EOF, err)
}

func TestLineInputStopsAtNewline(t *testing.T) {
	r := strings.NewReader("first\nsecond\n")
	in := newLineInput(r)

	line, err := in.Readline()
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(rest))
}
