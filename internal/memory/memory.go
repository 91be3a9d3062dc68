// Package memory describes the bank layout of the AGC4 memory and translates
// between pseudo-addresses and bank/offset pairs.
package memory

import (
	"errors"
	"fmt"
	"sort"
)

// Architecture constants of the AGC4 memory layout.
const (
	ErasableBankSize = 0o400
	FixedBankSize    = 0o2000

	ErasableBanks = 8
	FixedBanks    = 0o44

	// SwitchedErasableWindow is the machine address at which the selected
	// switched erasable bank appears.
	SwitchedErasableWindow = 0o1400
	// SwitchedFixedWindow is the machine address at which the selected
	// switched fixed bank appears.
	SwitchedFixedWindow = 0o2000

	fixedFixedStart = 0o4000
	switchedStart   = 0o10000
	superBankFirst  = 0o30
	superBankSecond = 0o40
	noSuperBank     = -1
)

// ErrNoBank is returned for addresses that do not belong to an existing bank.
var ErrNoBank = errors.New("address does not belong to a memory bank")

// Kind is the memory kind of a bank.
type Kind int

const (
	Nonexistent Kind = iota
	Erasable
	Fixed
)

func (k Kind) String() string {
	switch k {
	case Erasable:
		return "erasable"
	case Fixed:
		return "fixed"
	default:
		return "nonexistent"
	}
}

// Switching defines whether a bank needs a bank register value to be accessed.
type Switching int

const (
	Unswitched Switching = iota
	Switched
)

// Bank describes a single memory bank.
type Bank struct {
	Start     int // first pseudo-address
	Kind      Kind
	Switching Switching
	Number    int
	Size      int
	SuperBank int // super-bank group, -1 if not part of one
}

// End returns the first pseudo-address after the bank.
func (b Bank) End() int {
	return b.Start + b.Size
}

// Contains returns whether the pseudo-address is inside the bank interval.
func (b Bank) Contains(address int) bool {
	return address >= b.Start && address < b.End()
}

// Segmented is a bank relative address.
type Segmented struct {
	Kind      Kind
	Switching Switching
	Bank      int
	Offset    int
}

// String returns the address as the processor sees it. Unswitched banks are
// printed as plain machine address, switched banks are prefixed with the
// bank number and use the address of the switched window.
func (s Segmented) String() string {
	switch {
	case s.Switching == Unswitched && s.Kind == Erasable:
		return fmt.Sprintf("%04o", s.Bank*ErasableBankSize+s.Offset)
	case s.Switching == Unswitched:
		return fmt.Sprintf("%04o", fixedFixedStart+(s.Bank-2)*FixedBankSize+s.Offset)
	case s.Kind == Erasable:
		return fmt.Sprintf("E%o,%04o", s.Bank, SwitchedErasableWindow+s.Offset)
	default:
		return fmt.Sprintf("%02o,%04o", s.Bank, SwitchedFixedWindow+s.Offset)
	}
}

// Geometry contains all banks of the architecture, sorted by start address.
type Geometry struct {
	banks []Bank
}

// New returns the AGC4 memory geometry.
func New() *Geometry {
	var banks []Bank

	for i := range ErasableBanks {
		switching := Unswitched
		if i > 2 {
			switching = Switched
		}
		banks = append(banks, Bank{
			Start:     i * ErasableBankSize,
			Kind:      Erasable,
			Switching: switching,
			Number:    i,
			Size:      ErasableBankSize,
			SuperBank: noSuperBank,
		})
	}

	// fixed-fixed banks 2 and 3 are always mapped
	for i := 2; i <= 3; i++ {
		banks = append(banks, fixedBank(fixedFixedStart+(i-2)*FixedBankSize, i, Unswitched))
	}

	for i := range FixedBanks {
		if i == 2 || i == 3 {
			// the switched window of the fixed-fixed banks does not exist separately
			banks = append(banks, Bank{
				Start:     switchedStart + i*FixedBankSize,
				Kind:      Nonexistent,
				Number:    -1,
				Size:      FixedBankSize,
				SuperBank: noSuperBank,
			})
			continue
		}
		banks = append(banks, fixedBank(switchedStart+i*FixedBankSize, i, Switched))
	}

	sort.Slice(banks, func(i, j int) bool {
		return banks[i].Start < banks[j].Start
	})
	return &Geometry{banks: banks}
}

func fixedBank(start, number int, switching Switching) Bank {
	superBank := noSuperBank
	switch {
	case number >= superBankSecond:
		superBank = 4
	case number >= superBankFirst:
		superBank = 3
	}
	return Bank{
		Start:     start,
		Kind:      Fixed,
		Switching: switching,
		Number:    number,
		Size:      FixedBankSize,
		SuperBank: superBank,
	}
}

// Banks returns all banks including the nonexistent ones.
func (g *Geometry) Banks() []Bank {
	return g.banks
}

// FixedBanks returns all fixed banks sorted by bank number.
func (g *Geometry) FixedBanks() []Bank {
	var banks []Bank
	for _, b := range g.banks {
		if b.Kind == Fixed {
			banks = append(banks, b)
		}
	}
	sort.Slice(banks, func(i, j int) bool {
		return banks[i].Number < banks[j].Number
	})
	return banks
}

// End returns the first pseudo-address after the last bank.
func (g *Geometry) End() int {
	return g.banks[len(g.banks)-1].End()
}

// BankFor returns the bank that contains the given pseudo-address.
func (g *Geometry) BankFor(address int) (Bank, error) {
	i := sort.Search(len(g.banks), func(i int) bool {
		return g.banks[i].End() > address
	})
	if address < 0 || i == len(g.banks) || !g.banks[i].Contains(address) {
		return Bank{}, fmt.Errorf("%w: %06o", ErrNoBank, address)
	}
	b := g.banks[i]
	if b.Kind == Nonexistent {
		return Bank{}, fmt.Errorf("%w: %06o is in nonexistent memory", ErrNoBank, address)
	}
	return b, nil
}

// Lookup returns the bank of the given kind and number.
func (g *Geometry) Lookup(kind Kind, number int) (Bank, error) {
	for _, b := range g.banks {
		if b.Kind == kind && b.Number == number {
			return b, nil
		}
	}
	return Bank{}, fmt.Errorf("%w: %s bank %o", ErrNoBank, kind, number)
}

// PseudoToSegmented translates a pseudo-address into a bank relative address.
func (g *Geometry) PseudoToSegmented(address int) (Segmented, error) {
	b, err := g.BankFor(address)
	if err != nil {
		return Segmented{}, err
	}
	return Segmented{
		Kind:      b.Kind,
		Switching: b.Switching,
		Bank:      b.Number,
		Offset:    address - b.Start,
	}, nil
}

// SegmentedToPseudo translates a bank relative address into a pseudo-address.
func (g *Geometry) SegmentedToPseudo(s Segmented) (int, error) {
	b, err := g.Lookup(s.Kind, s.Bank)
	if err != nil {
		return 0, err
	}
	if s.Offset < 0 || s.Offset >= b.Size {
		return 0, fmt.Errorf("%w: offset %04o outside of bank %o", ErrNoBank, s.Offset, s.Bank)
	}
	return b.Start + s.Offset, nil
}

// MachineAddress returns the 12 bit address that the processor uses to access
// the pseudo-address, assuming the matching bank is selected.
func (g *Geometry) MachineAddress(address int) (int, Bank, error) {
	b, err := g.BankFor(address)
	if err != nil {
		return 0, Bank{}, err
	}

	offset := address - b.Start
	switch {
	case b.Switching == Unswitched:
		return address, b, nil
	case b.Kind == Erasable:
		return SwitchedErasableWindow + offset, b, nil
	default:
		return SwitchedFixedWindow + offset, b, nil
	}
}
