// Package extract pulls URLs out of arbitrarily nested YAML documents.
package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// urlPattern accepts absolute http(s) URLs and bare host/path links
// such as m-a-p.ai, matching what the curated YAML files contain.
var urlPattern = regexp.MustCompile(`^(https?://)?([a-zA-Z0-9-]+\.)*[a-zA-Z0-9-]+\.[a-zA-Z]{2,}(/[^\s]*)?$`)

// IsURL reports whether s looks like a link worth archiving.
func IsURL(s string) bool {
	return urlPattern.MatchString(s)
}

// FromDocument walks a parsed YAML document (mappings, sequences, scalars)
// and returns every scalar that qualifies as a URL, deduplicated and
// sorted for deterministic processing.
func FromDocument(doc any) []string {
	seen := make(map[string]struct{})
	walk(doc, seen)

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

func walk(node any, seen map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for _, value := range v {
			walk(value, seen)
		}
	case map[any]any:
		for _, value := range v {
			walk(value, seen)
		}
	case []any:
		for _, item := range v {
			walk(item, seen)
		}
	case string:
		if IsURL(v) {
			seen[v] = struct{}{}
		}
	}
}

// ParseError reports a file that was read successfully but is not valid
// YAML. Callers treat it as skippable, unlike a read failure.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FromFile parses a YAML file and extracts its URLs. A file that cannot
// be parsed yields a ParseError; any other error means the file could
// not be read at all.
func FromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if doc == nil {
		return nil, nil
	}
	return FromDocument(doc), nil
}

// FindFiles walks root collecting every .yaml/.yml file, skipping VCS
// metadata directories. Results are sorted by path.
func FindFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == ".github" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
