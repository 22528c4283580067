package internal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MaxFiles is the number of payload slots in an offset table.
	MaxFiles = 6

	// PasswordSize is the size of the (always zeroed) password field.
	PasswordSize = 80

	// FieldSize is the size of a single slot offset field.
	FieldSize = 8

	// fixedSize is what the stub's loader adds to the separator and password
	// when it locates the first payload.
	fixedSize = 64
)

// headerSize is the number of bytes from the separator up to and including the last slot pad.
var headerSize = SeparatorSize + PasswordSize + 1 + 2 + MaxFiles*(FieldSize+1)

// Table (=offset table) tells the stub where each signed file starts.
// Offsets are absolute positions inside the final image. Unused slots hold zero.
type Table struct {
	Count   int
	Offsets [MaxFiles]int64
}

// FirstOffset returns the offset recorded for slot 1 when the stub has the given size.
func FirstOffset(capSize int64) int64 {
	return int64(SeparatorSize+PasswordSize+fixedSize) + capSize
}

// RawTableSize returns the length of a serialized table before alignment.
func RawTableSize(count int) int {
	return headerSize + 2 + (MaxFiles-count)*2
}

// TableSize returns the length of a table holding count files, as it appears in an image.
func TableSize(count int) int {
	return Align4(RawTableSize(count))
}

// Align4 rounds n down to a multiple of 4.
func Align4(n int) int {
	return n - n%4
}

// EncodeField renders v as a slot field: the significant bytes of v in
// little-endian order, right-aligned in 8 zero bytes.
//
// 987654321 (0x3ADE68B1) becomes 00 00 00 00 B1 68 DE 3A.
// Values whose low bytes are zero share an encoding with smaller values (0x100 and 0x1 both end in 01),
// so DecodeField is not an exact inverse for them.
func EncodeField(v int64) [FieldSize]byte {
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], uint64(v))
	sig := bytes.TrimLeft(be[:], "\x00")

	var field [FieldSize]byte
	pos := FieldSize - len(sig)
	for i := len(sig) - 1; i >= 0; i-- {
		field[pos] = sig[i]
		pos++
	}
	return field
}

// DecodeField reads a slot field written by EncodeField.
func DecodeField(field [FieldSize]byte) int64 {
	sig := bytes.TrimLeft(field[:], "\x00")

	var v uint64
	for i := len(sig) - 1; i >= 0; i-- {
		v = v<<8 | uint64(sig[i])
	}
	return int64(v)
}

// MarshalBinary serializes the table without alignment.
// The caller is responsible for truncating the result to TableSize(t.Count).
func (t Table) MarshalBinary() ([]byte, error) {
	if t.Count < 1 || t.Count > MaxFiles {
		return nil, fmt.Errorf("invalid file count %d", t.Count)
	}

	buf := bytes.NewBuffer(make([]byte, 0, RawTableSize(t.Count)))
	if err := WriteSeparator(buf); err != nil {
		return nil, err
	}
	buf.Write(make([]byte, PasswordSize))
	// the count is stored as the byte value of its decimal digit ("06" -> 0x06)
	buf.WriteByte(byte(t.Count))
	buf.Write([]byte{0, 0})
	for slot := 0; slot < MaxFiles; slot++ {
		if slot < t.Count {
			field := EncodeField(t.Offsets[slot])
			buf.Write(field[:])
		} else {
			buf.Write(make([]byte, FieldSize))
		}
		buf.WriteByte(0)
	}
	buf.Write([]byte{0, 0})
	buf.Write(make([]byte, (MaxFiles-t.Count)*2))
	return buf.Bytes(), nil
}

// UnmarshalBinary parses a table starting at the separator.
// Trailing padding is optional, since alignment may have cut it.
func (t *Table) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return errors.New("incomplete offset table")
	}
	if !IsSeparator(data[:SeparatorSize]) {
		return errors.New("missing separator")
	}

	pos := SeparatorSize + PasswordSize
	count := int(data[pos])
	if count < 1 || count > MaxFiles {
		return fmt.Errorf("invalid file count %d", count)
	}
	pos += 1 + 2

	var parsed Table
	parsed.Count = count
	for slot := 0; slot < MaxFiles; slot++ {
		var field [FieldSize]byte
		copy(field[:], data[pos:pos+FieldSize])
		pos += FieldSize + 1

		v := DecodeField(field)
		if slot >= count && v != 0 {
			return fmt.Errorf("unused slot %d holds offset %d", slot+1, v)
		}
		parsed.Offsets[slot] = v
	}
	*t = parsed
	return nil
}
