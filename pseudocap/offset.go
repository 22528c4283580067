package pseudocap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/capforge/autoloader/internal"
)

// OffsetFileName is the name of the transient offset table inside the working directory.
const OffsetFileName = "offset.hex"

// Offset describes a freshly written offset table.
type Offset struct {
	Path     string         // location of offset.hex
	Table    internal.Table // decoded content
	Size     int64          // length after alignment
	CapSize  int64          // size of the stub the offsets were computed for
	Files    []string       // resolved signed files, in slot order
	FileSize []int64        // sizes of Files
}

// MakeOffset writes the offset table for the given signed files into workDir.
//
// files are glob patterns; empty entries are unused slots and are skipped.
// Every other entry has to resolve to exactly one file.
// stub is the bootstrap stub the image will start with; only its size is used.
//
// The table is written as offset.hex and then truncated to a multiple of 4 bytes.
func MakeOffset(stub string, files []string, workDir string) (*Offset, error) {
	if workDir == "" {
		workDir = DefaultWorkDir
	}
	files = compact(files)
	if len(files) < 1 || len(files) > internal.MaxFiles {
		return nil, fmt.Errorf("%w (got %d)", ErrFileCount, len(files))
	}

	capInfo, err := os.Stat(stub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStubNotFound, err)
	}

	off := &Offset{
		Path:     filepath.Join(workDir, OffsetFileName),
		CapSize:  capInfo.Size(),
		Files:    make([]string, len(files)),
		FileSize: make([]int64, len(files)),
	}
	for i, pattern := range files {
		path, err := ResolveOne(pattern)
		if err != nil {
			return nil, fmt.Errorf("signed file #%d: %w", i+1, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("signed file #%d: %w", i+1, err)
		}
		off.Files[i] = path
		off.FileSize[i] = info.Size()
	}

	off.Table = computeTable(off.CapSize, off.FileSize)
	data, err := off.Table.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(off.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write offset table: %w", err)
	}
	if off.Size, err = alignFile(off.Path); err != nil {
		_ = os.Remove(off.Path)
		return nil, fmt.Errorf("align offset table: %w", err)
	}
	return off, nil
}

// computeTable derives the slot offsets.
//
// Slot 2 starts at slot 1's offset plus the size of file 1.
// Slots 3 to 6 start at the previous slot's *encoded* field, read back, plus the previous file's size.
// The two only differ when an offset ends in a zero byte; the stub's reference packer
// produced exactly these values, so they are kept bit for bit.
func computeTable(capSize int64, sizes []int64) internal.Table {
	table := internal.Table{Count: len(sizes)}
	table.Offsets[0] = internal.FirstOffset(capSize)

	for slot := 1; slot < len(sizes); slot++ {
		prev := table.Offsets[slot-1]
		if slot >= 2 {
			prev = internal.DecodeField(internal.EncodeField(prev))
		}
		table.Offsets[slot] = prev + sizes[slot-1]
	}
	return table
}

// alignFile cuts up to 3 trailing bytes so that the file length is a multiple of 4.
func alignFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if aligned := size - size%4; aligned != size {
		if err := os.Truncate(path, aligned); err != nil {
			return 0, err
		}
		size = aligned
	}
	return size, nil
}
