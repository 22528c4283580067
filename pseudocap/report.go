package pseudocap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Section is one part of an image: the stub, the offset table or a signed file.
type Section struct {
	Name    string
	Path    string
	Written int64
	Err     error
}

// Report summarizes an autoloader build.
// A build with failed sections still produces an image; it is simply incomplete.
type Report struct {
	Output    string
	Stub      string
	Offset    *Offset
	Sections  []Section
	Finalized error // closing the image or removing offset.hex
}

// Size returns the number of bytes written to the image.
func (r *Report) Size() int64 {
	var size int64
	for _, s := range r.Sections {
		size += s.Written
	}
	return size
}

// Complete reports whether every section was written without error.
func (r *Report) Complete() bool {
	return r.Err() == nil
}

// Err joins the errors of all failed sections.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Sections {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, s.Err))
		}
	}
	if r.Finalized != nil {
		errs = append(errs, r.Finalized)
	}
	return errors.Join(errs...)
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", r.Output, humanize.Bytes(uint64(r.Size())))
	for _, s := range r.Sections {
		status := "ok"
		if s.Err != nil {
			status = s.Err.Error()
		}
		fmt.Fprintf(&sb, "\t%-16s %10s  %s\n", s.Name, humanize.Bytes(uint64(s.Written)), status)
	}
	return sb.String()
}
