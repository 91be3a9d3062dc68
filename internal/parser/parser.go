// Package parser splits source lines into the fields of a record.
package parser

import (
	"fmt"
	"strings"
)

const (
	includeMarker = '$'
	commentMarker = '#'
)

// Kind is the classification of a record.
type Kind int

const (
	KindUnclassified Kind = iota
	KindInclude
	KindBlank
	KindComment
	KindLabelOnly
	KindAssemblerConstant // directives that do not generate code
	KindCodeConstant      // directives that generate data words
	KindExecutable
	KindInterpretive
	KindIgnored
)

var kindNames = map[Kind]string{
	KindUnclassified:      "unclassified",
	KindInclude:           "include",
	KindBlank:             "blank",
	KindComment:           "comment",
	KindLabelOnly:         "label",
	KindAssemblerConstant: "assembler constant",
	KindCodeConstant:      "code constant",
	KindExecutable:        "executable",
	KindInterpretive:      "interpretive",
	KindIgnored:           "ignored",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is the processing state of a record.
type State int

const (
	StatePending State = iota
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Record is a parsed source line. Records are created once and updated in
// place every time the line gets processed again.
type Record struct {
	File  string
	Line  int
	Index int // position in the ordered record list
	Text  string

	Kind        Kind
	Label       string
	PseudoLabel string
	Mnemonic    string
	Operands    []string
	Comment     string

	Address int   // pseudo-address of the first word
	Code    []int // generated words
	Target  int   // value assigned by symbol defining directives

	State      State
	Unresolved []string // symbols the record is waiting for
}

// Complete returns whether the record is fully processed.
func (r *Record) Complete() bool {
	return r.State == StateComplete
}

// Generative returns whether the record places words into fixed memory.
func (r *Record) Generative() bool {
	switch r.Kind {
	case KindCodeConstant, KindExecutable, KindInterpretive:
		return true
	default:
		return false
	}
}

// Position returns the source location for messages.
func (r *Record) Position() string {
	return fmt.Sprintf("%s:%d", r.File, r.Line)
}

// IncludeName returns the referenced file name of an include line.
func IncludeName(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed[0] != includeMarker {
		return "", false
	}

	name := trimmed[1:]
	if i := strings.IndexByte(name, commentMarker); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	return name, name != ""
}

// Parse splits a source line into its fields. The returned record is not
// classified beyond the line structure, the assembler assigns the kind of
// code lines once the mnemonic is looked up.
func Parse(file string, line int, text string) *Record {
	rec := &Record{
		File: file,
		Line: line,
		Text: text,
	}

	if name, ok := IncludeName(text); ok {
		rec.Kind = KindInclude
		rec.Operands = []string{name}
		rec.State = StateComplete
		return rec
	}

	code := text
	if i := strings.IndexByte(text, commentMarker); i >= 0 {
		code = text[:i]
		rec.Comment = strings.TrimSpace(text[i+1:])
	}

	fields := strings.Fields(code)
	if len(fields) == 0 {
		if strings.TrimSpace(text) == "" {
			rec.Kind = KindBlank
		} else {
			rec.Kind = KindComment
		}
		rec.State = StateComplete
		return rec
	}

	// a label starts in the first column
	if code[0] != ' ' && code[0] != '\t' {
		label := fields[0]
		fields = fields[1:]
		if label[0] == '+' || label[0] == '-' {
			rec.PseudoLabel = label
		} else {
			rec.Label = label
		}
	}

	if len(fields) == 0 {
		rec.Kind = KindLabelOnly
		return rec
	}

	rec.Mnemonic = fields[0]
	rec.Operands = fields[1:]
	return rec
}
