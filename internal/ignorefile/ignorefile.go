// Package ignorefile loads ".unusedignore" files and answers whether a given
// path is ignored, using gitignore-compatible pattern syntax: comments,
// blank lines, "!"-negation, trailing-slash-as-directory, and "**" for
// recursive matches.
package ignorefile

import (
	"bufio"
	"fmt"
	"os"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/unused-finder/monorepo-core/internal/pathutil"
)

const FileName = ".unusedignore"

// File is one parsed ignore file, anchored at the directory that contains
// it. Patterns are matched relative to that directory.
type File struct {
	Dir     string
	Lines   []string
	matcher *gitignore.GitIgnore
}

// Load reads and compiles the ignore file at path. path's parent directory
// becomes the matching anchor.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", path, err)
	}

	return FromLines(dirOf(path), lines)
}

// FromLines builds a File from already-split lines, anchored at dir. Useful
// for tests and for in-memory fixtures.
func FromLines(dir string, lines []string) (*File, error) {
	matcher := gitignore.CompileIgnoreLines(lines...)
	return &File{Dir: pathutil.ToSlash(dir), Lines: append([]string(nil), lines...), matcher: matcher}, nil
}

func dirOf(path string) string {
	idx := lastSlash(path)
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

func lastSlash(p string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return i
		}
	}
	return -1
}

// IsIgnored reports whether absPath (an absolute path, which IsIgnored makes
// relative to File.Dir in slash form) is matched by this file's patterns. Order-sensitive
// last-match-wins negation is handled by the compiled matcher.
func (f *File) IsIgnored(absPath string) bool {
	rel := pathutil.Rel(f.Dir, absPath)
	if rel == "." || rel == "" {
		return false
	}
	return f.matcher.MatchesPath(rel)
}

// Stack is an ordered set of ignore Files collected while walking down a
// directory tree; every descendant file is tested against every File on the
// stack whose Dir is an ancestor of (or equal to) the file's directory.
type Stack struct {
	files []*File
}

// Push appends f to the stack. Ignore files closer to the walk root should
// be pushed first so Files() preserves discovery order, though match
// disposition within a single File is independent of stack order.
func (s *Stack) Push(f *File) *Stack {
	if f == nil {
		return s
	}
	next := &Stack{files: append(append([]*File(nil), s.files...), f)}
	return next
}

// IsIgnored reports whether absPath is ignored by any File on the stack.
// Each ignore file in the stack is evaluated independently (a lower-level
// negation cannot un-ignore a pattern matched by a higher-level file);
// this mirrors how a .gitignore in a subdirectory only ever adds rules, it
// cannot reach upward to override a parent's ignore file.
func (s *Stack) IsIgnored(absPath string) bool {
	for _, f := range s.files {
		if !pathutil.IsWithin(f.Dir, dirOf(absPath)) && f.Dir != dirOf(absPath) {
			continue
		}
		if f.IsIgnored(absPath) {
			return true
		}
	}
	return false
}

// Files returns the ignore files currently on the stack, root-first.
func (s *Stack) Files() []*File {
	if s == nil {
		return nil
	}
	return s.files
}
