// Package options contains the program options.
package options

// DefaultMaxPasses is the default limit of symbol resolution passes.
const DefaultMaxPasses = 10

// Parameters contains file path options.
type Parameters struct {
	Input   []string `flag:"i" usage:"input source files"`
	Output  string   `flag:"o" usage:"output binary file (default: first source file with .bin extension)"`
	Symbols string   `flag:"s" usage:"output symbol table file"`
	Listing string   `flag:"l" usage:"output listing file"`
	Verify  string   `flag:"verify" usage:"reference binary to compare the output against"`
	Batch   string   `flag:"batch" usage:"batch process files matching pattern (e.g. *.agc)"`
}

// Flags contains behavior options.
type Flags struct {
	MaxPasses int  `flag:"passes" usage:"maximum number of symbol resolution passes" default:"10"`
	Debug     bool `flag:"debug" usage:"enable debug logging"`
	Quiet     bool `flag:"q" usage:"quiet mode"`
}

// Program options of the assembler.
type Program struct {
	Parameters
	Flags
}

// Assembler defines options to control the assembly engine.
type Assembler struct {
	MaxPasses int // limit of symbol resolution passes after the initial pass
}

// NewAssembler returns a new options instance with default options.
func NewAssembler() Assembler {
	return Assembler{
		MaxPasses: DefaultMaxPasses,
	}
}
