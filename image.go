// Package autoloader reads images produced by the pseudocap packer.
//
// An image is a bootstrap stub, the offset table (starting with a fixed separator)
// and up to six signed files in slot order.
package autoloader

import (
	"io"
	"math"
	"os"

	"github.com/capforge/autoloader/internal"
)

// Image represents an opened autoloader.
type Image struct {
	file      *os.File
	stubSize  int64
	table     internal.Table
	dataStart int64
	offsets   [internal.MaxFiles]int64
	sizes     [internal.MaxFiles]int64
}

// Open parses the autoloader at path.
//
// The stub size is taken from the separator position, payload sizes from the
// distance between consecutive offsets. The last signed file runs to the end of the image.
//
// The stub's loader carries the separator itself, so every occurrence is tried
// until one is followed by a consistent offset table.
func Open(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dontClose := false
	defer func() {
		if !dontClose {
			_ = file.Close()
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	var lastErr error = newImageErr("not an autoloader (separator not found)")
	var searched int64
	for {
		if _, err := file.Seek(searched, io.SeekStart); err != nil {
			return nil, err
		}
		// locate offset table
		sepEnd := internal.SeekSeparator(file)
		if sepEnd < 0 {
			return nil, lastErr
		}
		searched += sepEnd

		img := &Image{file: file}
		err := img.readTable(searched-int64(internal.SeparatorSize), info.Size())
		if err == nil {
			dontClose = true
			return img, nil
		}
		if _, ok := err.(*ImageErr); !ok {
			return nil, err
		}
		lastErr = err
	}
}

// readTable parses the offset table behind a stub of the given size.
func (i *Image) readTable(stubSize, fileSize int64) error {
	i.stubSize = stubSize
	if _, err := i.file.Seek(stubSize, io.SeekStart); err != nil {
		return err
	}
	// the smallest aligned table still holds every slot
	var data = make([]byte, internal.TableSize(internal.MaxFiles))
	if _, err := io.ReadFull(i.file, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return newImageErr("corrupt offset table (incomplete)")
		}
		return err
	}
	if err := i.table.UnmarshalBinary(data); err != nil {
		return newImageErr("corrupt offset table (%s)", err)
	}
	first := internal.FirstOffset(stubSize)
	if i.table.Offsets[0] != roundTrip(first) {
		return newImageErr("corrupt offset table (stub size mismatch)")
	}

	// calc offsets and sizes
	count := i.table.Count
	i.offsets[0] = first
	i.dataStart = stubSize + int64(internal.TableSize(count))
	remaining := fileSize - i.dataStart
	for slot := 0; slot < count-1; slot++ {
		// slot 2 follows the exact offset of slot 1, later slots follow the previous field as written
		base := i.offsets[slot]
		if slot >= 1 {
			base = roundTrip(base)
		}
		next, ok := restoreOffset(i.table.Offsets[slot+1], base)
		if !ok {
			return newImageErr("corrupt offset table (invalid offsets)")
		}
		i.offsets[slot+1] = next
		i.sizes[slot] = next - base
		remaining -= i.sizes[slot]
	}
	if remaining < 0 { // offsets point outside the image (missing data?)
		return newImageErr("corrupt offset table (offsets too large)")
	}
	i.sizes[count-1] = remaining
	return nil
}

// roundTrip returns v as the offset table stores it.
func roundTrip(v int64) int64 {
	return internal.DecodeField(internal.EncodeField(v))
}

// restoreOffset undoes the trailing zero bytes the field encoding drops:
// decoded is scaled by 256 until it reaches base.
func restoreOffset(decoded, base int64) (int64, bool) {
	if decoded <= 0 {
		return 0, false
	}
	v := decoded
	for v < base {
		if v > math.MaxInt64>>8 {
			return 0, false
		}
		v <<= 8
	}
	return v, true
}

// Close the image file.
// Close will return an error if it has already been called.
func (i *Image) Close() error {
	return i.file.Close()
}

// Count returns the number of signed files.
func (i *Image) Count() int {
	return i.table.Count
}

// StubSize returns the size of the bootstrap stub in bytes.
func (i *Image) StubSize() int64 {
	return i.stubSize
}

// TableSize returns the size of the offset table in bytes.
func (i *Image) TableSize() int64 {
	return int64(internal.TableSize(i.table.Count))
}

// Reader groups basic methods available on image sections.
type Reader interface {
	io.ReadSeeker
	io.ReaderAt
	Size() int64
}

// Stub returns a reader for the bootstrap stub.
func (i *Image) Stub() Reader {
	return io.NewSectionReader(i.file, 0, i.stubSize)
}

// Reader returns a reader for the signed file in the given slot (1-based).
// Returns nil if the slot is unused.
func (i *Image) Reader(slot int) Reader {
	if !i.used(slot) {
		return nil
	}
	return io.NewSectionReader(i.file, i.position(slot), i.sizes[slot-1])
}

// Size returns the size of the signed file in the given slot.
// Returns zero if the slot is unused.
func (i *Image) Size(slot int) int64 {
	if !i.used(slot) {
		return 0
	}
	return i.sizes[slot-1]
}

// Offset returns the offset the packer computed for the given slot.
// Returns zero if the slot is unused.
//
// The offset is what the stub's loader works with;
// it is not necessarily the position of the data inside the image file.
func (i *Image) Offset(slot int) int64 {
	if !i.used(slot) {
		return 0
	}
	return i.offsets[slot-1]
}

func (i *Image) used(slot int) bool {
	return slot >= 1 && slot <= i.table.Count
}

// position returns where the data of a slot starts inside the image file.
func (i *Image) position(slot int) int64 {
	pos := i.dataStart
	for s := 0; s < slot-1; s++ {
		pos += i.sizes[s]
	}
	return pos
}
