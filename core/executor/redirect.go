package executor

import (
	"os"

	"github.com/josephlewis42/myshell/core/logger"
	"github.com/josephlewis42/myshell/core/tree"
)

// redirectPerm is the mode output targets are created with, before umask.
const redirectPerm = 0644

type redirection struct {
	path string
	slot int
	flag int
	name string
}

// redirections lists a node's targets in the order they are applied. Output
// and append both land on standard output so the later one wins.
func redirections(n *tree.Node) []redirection {
	return []redirection{
		{n.Input, 0, os.O_RDONLY, "input"},
		{n.Output, 1, os.O_WRONLY | os.O_CREATE | os.O_TRUNC, "output"},
		{n.Append, 1, os.O_WRONLY | os.O_CREATE | os.O_APPEND, "output"},
		{n.Error, 2, os.O_WRONLY | os.O_CREATE | os.O_TRUNC, "error"},
	}
}

// applyRedirections returns a copy of the frame with the node's targets
// substituted into its file table. The process is shared, not copied.
//
// release closes every file that was opened and must be called once nothing
// started from child is running. On failure a diagnostic has already been
// written, the files opened so far are closed and child is nil.
func (fm *frame) applyRedirections(n *tree.Node) (child *frame, release func(), err error) {
	child = fm.clone()

	var opened []*os.File
	release = func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, r := range redirections(n) {
		if r.path == "" {
			continue
		}

		f, openErr := os.OpenFile(resolve(fm.proc.dir, r.path), r.flag, redirectPerm)
		if openErr != nil {
			child.errorf("error opening %s file: %v", r.name, openErr)
			fm.record(&logger.RedirectFailure{
				Command: n.Argv,
				Path:    r.path,
				Error:   openErr.Error(),
			})
			release()
			return nil, nil, openErr
		}

		opened = append(opened, f)
		child.files[r.slot] = f
	}

	return child, release, nil
}
