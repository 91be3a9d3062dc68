package objectcode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/number"
)

const bytesPerWord = 2

// WriteTo serializes the image. Every word is written as 16 bit big endian
// value of the word shifted left by one bit, the banks in ascending bank
// number order.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, bank := range img.banks {
		words := img.words[bank.Number]
		buf := make([]byte, len(words)*bytesPerWord)
		for i, word := range words {
			binary.BigEndian.PutUint16(buf[i*bytesPerWord:], uint16(word<<1))
		}

		n, err := w.Write(buf)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("writing bank %02o: %w", bank.Number, err)
		}
	}
	return written, nil
}

// Size returns the size in bytes of a serialized image.
func Size(geometry *memory.Geometry) int {
	size := 0
	for _, bank := range geometry.FixedBanks() {
		size += bank.Size * bytesPerWord
	}
	return size
}

// Decode parses a serialized image.
func Decode(geometry *memory.Geometry, data []byte) (*Image, error) {
	if len(data) != Size(geometry) {
		return nil, fmt.Errorf("invalid image size %d, expected %d", len(data), Size(geometry))
	}

	img := New(geometry)
	offset := 0
	for _, bank := range img.banks {
		words := img.words[bank.Number]
		for i := range words {
			value := binary.BigEndian.Uint16(data[offset:])
			words[i] = int(value>>1) & number.SingleMask
			offset += bytesPerWord
		}
	}
	return img, nil
}
