package executor

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories named by
// the PATH variable of env. If file contains a slash, it is tried directly
// and the PATH is not consulted. Relative results are resolved against dir,
// which stands in for the working directory of the shell.
func LookPath(env *MapEnv, dir, file string) (string, error) {
	if strings.Contains(file, "/") {
		path := resolve(dir, file)
		if err := findExecutable(path); err != nil {
			return "", err
		}
		return path, nil
	}

	for _, pathDir := range filepath.SplitList(env.Getenv("PATH")) {
		if pathDir == "" {
			// Unix shell semantics: path element "" means "."
			pathDir = "."
		}
		path := resolve(dir, filepath.Join(pathDir, file))
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// resolve makes path absolute relative to dir.
func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
