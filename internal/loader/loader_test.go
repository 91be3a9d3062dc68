package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/retroenv/retrogolib/assert"
)

func TestLoad(t *testing.T) {
	t.Run("load single file", func(t *testing.T) {
		tmpFile := createTempFile(t, "main.agc", "\t\tTC\tFOO\nFOO\tEQUALS\t100\n")

		lines, err := New().Load([]string{tmpFile})
		assert.NoError(t, err)
		assert.Equal(t, 2, len(lines))
		assert.Equal(t, tmpFile, lines[0].File)
		assert.Equal(t, 1, lines[0].Number)
		assert.Equal(t, "\t\tTC\tFOO", lines[0].Text)
		assert.Equal(t, 2, lines[1].Number)
	})

	t.Run("include is resolved relative to the including file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "sub.agc"), "A\tEQUALS\t1\n")
		main := writeFile(t, filepath.Join(dir, "main.agc"), "$sub.agc\n\t\tTC\tA\n")

		lines, err := New().Load([]string{main})
		assert.NoError(t, err)
		assert.Equal(t, 3, len(lines))
		assert.Equal(t, "$sub.agc", lines[0].Text)
		assert.Equal(t, filepath.Join(dir, "sub.agc"), lines[1].File)
		assert.Equal(t, main, lines[2].File)
		assert.Equal(t, 2, lines[2].Number)
	})

	t.Run("error on non-existent file", func(t *testing.T) {
		_, err := New().Load([]string{"/nonexistent/file.agc"})
		assert.Error(t, err)
	})
}

func TestLoadFS(t *testing.T) {
	t.Run("nested includes keep order", func(t *testing.T) {
		fsys := fstest.MapFS{
			"main.agc":       {Data: []byte("# main\n$lib/a.agc\nEND\n")},
			"lib/a.agc":      {Data: []byte("$b.agc\nA\n")},
			"lib/b.agc":      {Data: []byte("B\n")},
			"lib/unused.agc": {Data: []byte("X\n")},
		}

		lines, err := NewFS(fsys).Load([]string{"main.agc"})
		assert.NoError(t, err)

		var texts []string
		for _, line := range lines {
			texts = append(texts, line.Text)
		}
		expected := []string{"# main", "$lib/a.agc", "$b.agc", "B", "A", "END"}
		assert.Equal(t, len(expected), len(texts))
		for i := range expected {
			assert.Equal(t, expected[i], texts[i])
		}
	})

	t.Run("multiple top level files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"a.agc": {Data: []byte("A\n")},
			"b.agc": {Data: []byte("B\n")},
		}

		lines, err := NewFS(fsys).Load([]string{"a.agc", "b.agc"})
		assert.NoError(t, err)
		assert.Equal(t, 2, len(lines))
		assert.Equal(t, "b.agc", lines[1].File)
	})

	t.Run("same file included twice", func(t *testing.T) {
		fsys := fstest.MapFS{
			"main.agc": {Data: []byte("$c.agc\n$c.agc\n")},
			"c.agc":    {Data: []byte("C\n")},
		}

		lines, err := NewFS(fsys).Load([]string{"main.agc"})
		assert.NoError(t, err)
		assert.Equal(t, 4, len(lines))
	})

	t.Run("include cycle", func(t *testing.T) {
		fsys := fstest.MapFS{
			"a.agc": {Data: []byte("$b.agc\n")},
			"b.agc": {Data: []byte("$a.agc\n")},
		}

		_, err := NewFS(fsys).Load([]string{"a.agc"})
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncludeCycle))
	})

	t.Run("missing include", func(t *testing.T) {
		fsys := fstest.MapFS{
			"main.agc": {Data: []byte("$missing.agc\n")},
		}

		_, err := NewFS(fsys).Load([]string{"main.agc"})
		assert.ErrorContains(t, err, "main.agc:1")
	})
}

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	return writeFile(t, filepath.Join(t.TempDir(), name), content)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return name
}
