// Package writer implements the output file writing: the binary image, the
// symbol table and the assembly listing.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/objectcode"
	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/agcasm/internal/symbols"
)

const (
	addressWidth = 9  // 4000, 02,2000 or E5,1400
	codeWidth    = 11 // two octal words
)

// Writer writes the results of an assembly run.
type Writer struct {
	geometry *memory.Geometry
	writer   io.Writer
}

// New creates a new writer.
func New(geometry *memory.Geometry, writer io.Writer) *Writer {
	return &Writer{
		geometry: geometry,
		writer:   writer,
	}
}

// Binary writes the serialized image.
func (w Writer) Binary(img *objectcode.Image) error {
	if _, err := img.WriteTo(w.writer); err != nil {
		return fmt.Errorf("writing binary image: %w", err)
	}
	return nil
}

// Symbols writes all symbols sorted by name with their octal value.
// Symbols without value are written with a question mark placeholder.
func (w Writer) Symbols(table *symbols.Table) error {
	for _, entry := range table.Sorted() {
		value := "??????"
		if entry.Defined {
			value = fmt.Sprintf("%06o", entry.Value)
		}
		if _, err := fmt.Fprintf(w.writer, "%-8s  %s\n", entry.Name, value); err != nil {
			return fmt.Errorf("writing symbol: %w", err)
		}
	}
	return nil
}

// Listing writes every record with its address, the generated words and the
// source text. Records that failed are marked with an E in the first column.
func (w Writer) Listing(records []*parser.Record, table *symbols.Table) error {
	for _, rec := range records {
		marker := " "
		if rec.State == parser.StateFailed {
			marker = "E"
		}

		line := fmt.Sprintf("%s%6d  %-*s  %-*s  %s",
			marker, rec.Line,
			addressWidth, w.address(rec, table),
			codeWidth, code(rec),
			rec.Text)

		if _, err := fmt.Fprintln(w.writer, strings.TrimRight(line, " ")); err != nil {
			return fmt.Errorf("writing listing line: %w", err)
		}
	}
	return nil
}

// address returns the address column of a record: the bank relative address
// for code and labels, the value for symbol definitions.
func (w Writer) address(rec *parser.Record, table *symbols.Table) string {
	switch rec.Kind {
	case parser.KindCodeConstant, parser.KindExecutable, parser.KindInterpretive, parser.KindLabelOnly:
		segmented, err := w.geometry.PseudoToSegmented(rec.Address)
		if err != nil {
			return ""
		}
		return segmented.String()

	case parser.KindAssemblerConstant:
		if rec.Label == "" || table == nil {
			return ""
		}
		value, defined, _ := table.Lookup(rec.Label)
		if !defined {
			return ""
		}
		return fmt.Sprintf("=%06o", value)

	default:
		return ""
	}
}

func code(rec *parser.Record) string {
	words := make([]string, len(rec.Code))
	for i, word := range rec.Code {
		words[i] = fmt.Sprintf("%05o", word)
	}
	return strings.Join(words, " ")
}
