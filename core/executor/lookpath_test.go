package executor

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookPath(t *testing.T) {
	bin := t.TempDir()
	work := t.TempDir()

	script := "#!/bin/sh\nexit 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "tool"), []byte(script), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "data"), []byte(script), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(work, "local"), []byte(script), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(bin, "dir"), 0755))

	env := NewMapEnvFrom(EnvList{"PATH=/no/such/dir:" + bin})

	cases := map[string]struct {
		file    string
		want    string
		wantErr error
	}{
		"on path":          {file: "tool", want: filepath.Join(bin, "tool")},
		"not on path":      {file: "missing", wantErr: ErrNotFound},
		"not executable":   {file: "data", wantErr: ErrNotFound},
		"directory":        {file: "dir", wantErr: ErrNotFound},
		"relative":         {file: "./local", want: filepath.Join(work, "local")},
		"absolute":         {file: filepath.Join(bin, "tool"), want: filepath.Join(bin, "tool")},
		"absolute no exec": {file: filepath.Join(bin, "data"), wantErr: fs.ErrPermission},
		"relative missing": {file: "./missing", wantErr: fs.ErrNotExist},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := LookPath(env, work, tc.file)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLookPathEmptyElementIsWorkingDir(t *testing.T) {
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "here"), []byte("#!/bin/sh\n"), 0755))

	got, err := LookPath(NewMapEnvFrom(EnvList{"PATH=:/no/such/dir"}), work, "here")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(work, "here"), got)
}
