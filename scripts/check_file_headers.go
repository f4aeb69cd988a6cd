// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Prefixed so this file's own copy is not a match.
var gHeader = "// " + `This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
`

// skipDir matches what the go tool ignores: testdata and directories
// starting with '.' or '_'.
func skipDir(name string) bool {
	return name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func hasHeader(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(string(content), gHeader), nil
}

// findHeaderIssues returns every .go file under roots that does not
// start with the license header.
func findHeaderIssues(roots []string) ([]string, error) {
	var issues []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" {
				return nil
			}
			ok, err := hasHeader(path)
			if err != nil {
				return err
			}
			if !ok {
				issues = append(issues, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return issues, nil
}

func main() {
	roots := os.Args[1:]
	if len(roots) == 0 {
		roots = []string{"."}
	}

	issues, err := findHeaderIssues(roots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "header check failed: %s\n", err.Error())
		os.Exit(2)
	}
	for _, path := range issues {
		fmt.Printf("%s:1:1: bad license header\n", path)
	}
	if len(issues) > 0 {
		os.Exit(1)
	}
}
