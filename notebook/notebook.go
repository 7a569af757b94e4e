/*
Copyright © 2026 the gridcast authors.
This file is part of gridcast.

gridcast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gridcast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gridcast.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package notebook executes every Jupyter notebook in a directory tree.
package notebook

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const checkpointDir = ".ipynb_checkpoints"

// Find returns the paths of all notebooks below root, sorted, skipping
// the copies saved in checkpoint directories.
func Find(root string) ([]string, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".ipynb" {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) == checkpointDir {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("notebook: finding notebooks: %v", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Executor executes a notebook with dir as the working directory.
type Executor interface {
	Execute(ctx context.Context, path, dir string) error
}

// Papermill executes notebooks with the papermill command-line tool,
// discarding the executed notebook.
type Papermill struct {
	// Executable is the papermill command. If empty, "papermill"
	// is looked up in the PATH.
	Executable string

	// Kernel is the name of the kernel to execute notebooks with.
	// If empty, "python3" is used.
	Kernel string
}

// Execute runs papermill on the notebook at path.
func (p Papermill) Execute(ctx context.Context, path, dir string) error {
	exe := p.Executable
	if exe == "" {
		exe = "papermill"
	}
	kernel := p.Kernel
	if kernel == "" {
		kernel = "python3"
	}
	cmd := exec.CommandContext(ctx, exe, path, os.DevNull, "-k", kernel, "--cwd", dir)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notebook: executing %s: %v\n%s", path, err, strings.TrimSpace(out.String()))
	}
	return nil
}

// Runner executes notebooks one at a time.
type Runner struct {
	// Executor executes each notebook. If nil, Papermill{} is used.
	Executor Executor

	// Log receives progress information. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

// RunAll executes every notebook found below root, in sorted order.
// Before each notebook is executed, all zarr stores below its
// directory are deleted. Execution stops at the first failure.
func (r *Runner) RunAll(ctx context.Context, root string) error {
	paths, err := Find(root)
	if err != nil {
		return err
	}
	ex := r.Executor
	if ex == nil {
		ex = Papermill{}
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := filepath.Dir(path)
		if err := removeZarr(dir); err != nil {
			return err
		}
		r.log().WithField("notebook", path).Infof("executing %s", path)
		if err := ex.Execute(ctx, path, dir); err != nil {
			return err
		}
	}
	return nil
}

// removeZarr deletes every file or directory with the .zarr extension
// below dir.
func removeZarr(dir string) error {
	var stores []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if filepath.Ext(path) != ".zarr" || path == dir {
			return nil
		}
		stores = append(stores, path)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("notebook: finding zarr stores: %v", err)
	}
	for _, s := range stores {
		if err := os.RemoveAll(s); err != nil {
			return fmt.Errorf("notebook: removing zarr store: %v", err)
		}
	}
	return nil
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
