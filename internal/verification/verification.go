// Package verification verifies that a written binary image is consistent
// and optionally matches a reference binary.
package verification

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/objectcode"
	"github.com/retroenv/retrogolib/log"
)

const maxLoggedMismatches = 10

// VerifyOutput reads the written binary back, checks the checksum of every
// bank and compares it with the reference binary if one is given.
func VerifyOutput(logger *log.Logger, geometry *memory.Geometry, output, reference string) error {
	if output == "" {
		return errors.New("can not verify without output file")
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return fmt.Errorf("reading output file for verification: %w", err)
	}

	if err := checkBanks(logger, geometry, data); err != nil {
		return err
	}

	if reference == "" {
		return nil
	}

	expected, err := os.ReadFile(reference)
	if err != nil {
		return fmt.Errorf("reading reference file for comparison: %w", err)
	}
	if err := checkBufferEqual(logger, expected, data); err != nil {
		return fmt.Errorf("comparing with reference '%s': %w", reference, err)
	}
	return nil
}

// checkBanks verifies the checksum invariant of all banks of the image.
func checkBanks(logger *log.Logger, geometry *memory.Geometry, data []byte) error {
	img, err := objectcode.Decode(geometry, data)
	if err != nil {
		return fmt.Errorf("decoding output file: %w", err)
	}

	var errs []error
	for _, bank := range img.Banks() {
		if err := objectcode.Verify(bank.Number, img.Words(bank.Number)); err != nil {
			logger.Error("Bank checksum mismatch", log.Int("bank", bank.Number))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkBufferEqual(logger *log.Logger, input, output []byte) error {
	if len(input) != len(output) {
		return fmt.Errorf("mismatched lengths, %d != %d", len(input), len(output))
	}

	var diffs uint64
	for i := 0; i+1 < len(input); i += 2 {
		expected := binary.BigEndian.Uint16(input[i:])
		got := binary.BigEndian.Uint16(output[i:])
		if expected == got {
			continue
		}

		diffs++
		if diffs < maxLoggedMismatches {
			logger.Error("Word mismatch",
				log.Hex("offset", i),
				log.String("expected", fmt.Sprintf("%05o", expected>>1)),
				log.String("got", fmt.Sprintf("%05o", got>>1)))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d word mismatches", diffs)
}
