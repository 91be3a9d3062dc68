package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/retroenv/agcasm/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		input     []string
		output    string
		listing   string
		maxPasses int
	}{
		{
			name:      "single file",
			args:      []string{"prog", "main.agc"},
			input:     []string{"main.agc"},
			maxPasses: options.DefaultMaxPasses,
		},
		{
			name:      "multiple files",
			args:      []string{"prog", "-o", "out.bin", "erasable.agc", "main.agc"},
			input:     []string{"erasable.agc", "main.agc"},
			output:    "out.bin",
			maxPasses: options.DefaultMaxPasses,
		},
		{
			name:      "listing and passes",
			args:      []string{"prog", "-l", "main.lst", "-passes", "3", "main.agc"},
			input:     []string{"main.agc"},
			listing:   "main.lst",
			maxPasses: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			opts, asmOpts, err := ParseFlags()
			assert.NoError(t, err)
			assert.Len(t, opts.Input, len(tt.input))
			for i, file := range tt.input {
				assert.Equal(t, file, opts.Input[i])
			}
			assert.Equal(t, tt.output, opts.Output)
			assert.Equal(t, tt.listing, opts.Listing)
			assert.Equal(t, tt.maxPasses, asmOpts.MaxPasses)
		})
	}
}

func TestParseFlagsUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no files", args: []string{"prog"}},
		{name: "flag after file", args: []string{"prog", "main.agc", "-q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			_, _, err := ParseFlags()
			var usageErr *UsageError
			assert.True(t, errors.As(err, &usageErr))
		})
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name        string
		opts        options.Program
		expectError bool
	}{
		{
			name: "defaults",
			opts: options.Program{Flags: options.Flags{MaxPasses: options.DefaultMaxPasses}},
		},
		{
			name:        "no passes",
			opts:        options.Program{},
			expectError: true,
		},
		{
			name: "verify single file",
			opts: options.Program{
				Parameters: options.Parameters{Verify: "ref.bin"},
				Flags:      options.Flags{MaxPasses: 1},
			},
		},
		{
			name: "verify and batch conflict",
			opts: options.Program{
				Parameters: options.Parameters{Verify: "ref.bin", Batch: "*.agc"},
				Flags:      options.Flags{MaxPasses: 1},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOptions(tt.opts)
			if tt.expectError {
				assert.True(t, err != nil)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
