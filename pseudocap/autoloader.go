package pseudocap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/capforge/autoloader/internal"
)

// MakeAutoloader builds the image described by req.
//
// The stub, the offset table and every signed file are streamed into WorkDir/Filename in that order.
// offset.hex is removed before returning.
//
// An error is returned only if nothing could be written: a file count outside 1..6,
// unresolvable signed files, a missing stub or an output file that cannot be created.
// Read or write failures of individual sections are recorded in the report,
// and the build carries on with the next section.
func MakeAutoloader(req Request) (*Report, error) {
	logger := req.logger()
	workDir := req.workDir()

	files := compact(req.Files)
	if len(files) < 1 || len(files) > internal.MaxFiles {
		logger("Invalid number of signed files: %d", len(files))
		return nil, fmt.Errorf("%w (got %d)", ErrFileCount, len(files))
	}

	stub, err := LocateStub(req.Stub, workDir)
	if err != nil {
		return nil, err
	}

	offset, err := MakeOffset(stub, files, workDir)
	if err != nil {
		return nil, fmt.Errorf("build offset table: %w", err)
	}

	report := &Report{
		Output: filepath.Join(workDir, req.Filename),
		Stub:   stub,
		Offset: offset,
	}

	logger("CREATING: %s", req.Filename)
	out, err := os.Create(report.Output)
	if err != nil {
		_ = os.Remove(offset.Path)
		return nil, fmt.Errorf("create image: %w", err)
	}

	buf := make([]byte, ChunkSize)
	appendSection := func(name, path, msg string) {
		logger(msg)
		written, err := appendFile(out, path, buf, req.Progress)
		if err != nil {
			logger("Operation failed: %s", err)
		}
		report.Sections = append(report.Sections, Section{
			Name:    name,
			Path:    path,
			Written: written,
			Err:     err,
		})
	}

	appendSection("cap", stub, "WRITING CAP.EXE...")
	appendSection("offset", offset.Path, "WRITING MAGIC OFFSET...")
	for i, path := range offset.Files {
		appendSection(fmt.Sprintf("signed file #%d", i+1), path, fmt.Sprintf("WRITING SIGNED FILE #%d...", i+1))
	}

	var closeErr, removeErr error
	if err := out.Close(); err != nil {
		closeErr = fmt.Errorf("close image: %w", err)
	}
	if err := os.Remove(offset.Path); err != nil {
		removeErr = fmt.Errorf("remove offset table: %w", err)
	}
	report.Finalized = errors.Join(closeErr, removeErr)

	logger("%s FINISHED!", req.Filename)
	return report, nil
}

// appendFile copies the file at path into out, one buffer at a time.
// It returns the number of bytes written, even on failure.
func appendFile(out io.Writer, path string, buf []byte, progress func(int)) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	var written int64
	for {
		n, rErr := in.Read(buf)
		if n > 0 {
			w, wErr := out.Write(buf[:n])
			written += int64(w)
			if progress != nil {
				progress(w)
			}
			if wErr != nil {
				return written, wErr
			}
		}
		if rErr == io.EOF {
			return written, nil
		}
		if rErr != nil {
			return written, rErr
		}
	}
}
