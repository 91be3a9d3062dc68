// Package loader handles reading source files including nested file inclusion.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/retrogolib/set"
)

// ErrIncludeCycle is returned when a file includes itself directly or indirectly.
var ErrIncludeCycle = errors.New("include cycle")

// Line is a single source line.
type Line struct {
	File   string
	Number int
	Text   string
}

// Loader handles loading source files from disk or a file system.
type Loader struct {
	readFile func(name string) ([]byte, error)
	join     func(elem ...string) string
	dir      func(name string) string

	active set.Set[string]
}

// New creates a new source loader that reads from the operating system.
func New() *Loader {
	return &Loader{
		readFile: os.ReadFile,
		join:     filepath.Join,
		dir:      filepath.Dir,
	}
}

// NewFS creates a new source loader that reads from the given file system.
func NewFS(fsys fs.FS) *Loader {
	return &Loader{
		readFile: func(name string) ([]byte, error) {
			return fs.ReadFile(fsys, name)
		},
		join: path.Join,
		dir:  path.Dir,
	}
}

// Load reads all given files in order and returns the flattened lines.
// Include lines are returned followed by the lines of the included file,
// include file names are resolved relative to the including file.
func (l *Loader) Load(files []string) ([]Line, error) {
	l.active = set.New[string]()

	var lines []Line
	for _, file := range files {
		var err error
		lines, err = l.load(file, lines)
		if err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func (l *Loader) load(file string, lines []Line) ([]Line, error) {
	if l.active.Contains(file) {
		return nil, fmt.Errorf("%w: %s", ErrIncludeCycle, file)
	}
	l.active.Add(file)
	defer delete(l.active, file)

	data, err := l.readFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading source file %s: %w", file, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for number := 1; scanner.Scan(); number++ {
		text := scanner.Text()
		lines = append(lines, Line{
			File:   file,
			Number: number,
			Text:   text,
		})

		name, ok := parser.IncludeName(text)
		if !ok {
			continue
		}
		lines, err = l.load(l.join(l.dir(file), name), lines)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, number, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning source file %s: %w", file, err)
	}

	return lines, nil
}
