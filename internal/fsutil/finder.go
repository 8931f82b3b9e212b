// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// TaskFileNames lists the file names recognized as task files, in lookup
// order. The first match within a directory wins.
var TaskFileNames = []string{"rnr.hcl", "rnr.yaml", "rnr.yml"}

// FindTaskFile returns the path of the task file inside dir, or an empty
// string if the directory contains none.
func FindTaskFile(dir string) (string, error) {
	for _, name := range TaskFileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

// FindProjectTaskFile walks upward from startDir to the filesystem root and
// returns the first task file found. The directory containing that file is
// the project root.
func FindProjectTaskFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		path, err := FindTaskFile(dir)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no task file (%v) found in %s or any parent directory", TaskFileNames, startDir)
}
