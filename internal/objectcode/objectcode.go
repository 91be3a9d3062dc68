// Package objectcode places the generated words of completed records into
// per bank memory images and finalizes every fixed bank with its marker and
// checksum words.
package objectcode

import (
	"errors"
	"fmt"
	"slices"

	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/number"
	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/retrogolib/set"
)

// Reserved words at the end of every fixed bank: two marker words followed
// by the checksum word.
const (
	MarkerWords   = 2
	ReservedWords = MarkerWords + 1
)

// Machine address bases of the marker words.
const (
	switchedMarkerBase = 0o2000
	bank2MarkerBase    = 0o4000
	bank3MarkerBase    = 0o6000
)

var (
	ErrMissingCode = errors.New("generative record without code")
	ErrReserved    = errors.New("address is reserved for the bank checksum")
	ErrOverlap     = errors.New("address is already in use")
	ErrNotFixed    = errors.New("address is not in fixed memory")
	ErrChecksum    = errors.New("bank checksum mismatch")
)

// Image contains the words of all fixed banks.
type Image struct {
	banks []memory.Bank // fixed banks sorted by bank number
	words map[int][]int // bank number to words
	used  set.Set[int]  // pseudo-addresses that contain placed code
}

// New returns a zero filled image for all fixed banks of the geometry.
func New(geometry *memory.Geometry) *Image {
	img := &Image{
		banks: geometry.FixedBanks(),
		words: map[int][]int{},
		used:  set.New[int](),
	}
	for _, bank := range img.banks {
		img.words[bank.Number] = make([]int, bank.Size)
	}
	return img
}

// Build places the code of all completed generative records into a new
// image and finalizes it. A completed generative record without code is a
// fatal error, placement conflicts are returned joined after all records
// have been processed.
func Build(geometry *memory.Geometry, records []*parser.Record) (*Image, error) {
	img := New(geometry)

	var errs []error
	for _, rec := range records {
		if !rec.Generative() || rec.State != parser.StateComplete {
			continue
		}
		if len(rec.Code) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingCode, rec.Position())
		}
		if err := img.Place(geometry, rec.Address, rec.Code); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rec.Position(), err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	img.Finalize()
	return img, nil
}

// Place copies the words into the image starting at the pseudo-address.
func (img *Image) Place(geometry *memory.Geometry, address int, words []int) error {
	for i, w := range words {
		pa := address + i
		bank, err := geometry.BankFor(pa)
		if err != nil {
			return fmt.Errorf("%w: %06o", ErrNotFixed, pa)
		}
		if bank.Kind != memory.Fixed {
			return fmt.Errorf("%w: %06o", ErrNotFixed, pa)
		}

		offset := pa - bank.Start
		if offset >= bank.Size-ReservedWords {
			return fmt.Errorf("%w: %06o", ErrReserved, pa)
		}
		if img.used.Contains(pa) {
			return fmt.Errorf("%w: %06o", ErrOverlap, pa)
		}

		img.used.Add(pa)
		img.words[bank.Number][offset] = w & number.SingleMask
	}
	return nil
}

// Finalize writes the marker words and the checksum word of every bank.
func (img *Image) Finalize() {
	for _, bank := range img.banks {
		words := img.words[bank.Number]
		base := markerBase(bank.Number)

		for i := bank.Size - ReservedWords; i < bank.Size-1; i++ {
			words[i] = base + i
		}
		words[bank.Size-1] = Checksum(bank.Number, words[:bank.Size-1])
	}
}

// Banks returns the fixed banks of the image in ascending bank number order.
func (img *Image) Banks() []memory.Bank {
	return img.banks
}

// Words returns the words of the fixed bank with the given number.
func (img *Image) Words(bank int) []int {
	return img.words[bank]
}

// UsedBanks returns the numbers of all banks that contain placed code.
func (img *Image) UsedBanks() []int {
	banks := set.New[int]()
	for pa := range img.used {
		for _, bank := range img.banks {
			if bank.Contains(pa) {
				banks.Add(bank.Number)
				break
			}
		}
	}

	result := make([]int, 0, len(banks))
	for n := range banks {
		result = append(result, n)
	}
	slices.Sort(result)
	return result
}

// Checksum returns the word that makes the ones'-complement sum of the bank
// equal to the bank number, or to its complement if the sum of the other
// words is negative.
func Checksum(bank int, words []int) int {
	sum, _ := number.Sum(words)
	n := number.Single(bank)
	if sum.Negative() {
		n = n.Complement()
	}
	checksum, _ := n.Add(sum.Complement())
	return checksum.Value()
}

// Verify checks the checksum invariant of a complete bank.
func Verify(bank int, words []int) error {
	if len(words) == 0 {
		return fmt.Errorf("%w: bank %02o is empty", ErrChecksum, bank)
	}

	sum, _ := number.Sum(words)
	expected := bank
	if sum.Negative() {
		expected = -bank
	}
	if sum.Int() != expected {
		return fmt.Errorf("%w: bank %02o sums to %05o", ErrChecksum, bank, sum.Value())
	}
	return nil
}

func markerBase(bank int) int {
	switch bank {
	case 2:
		return bank2MarkerBase
	case 3:
		return bank3MarkerBase
	default:
		return switchedMarkerBase
	}
}
