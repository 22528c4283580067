package hashes

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestExt is appended to the name of the checksummed file.
const ManifestExt = ".cksum"

// Entry is one line of a manifest: ALGORITHM (file) = value
type Entry struct {
	Algorithm string
	File      string
	Value     string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (%s) = %s", strings.ToUpper(e.Algorithm), e.File, e.Value)
}

// WriteManifest writes the results for file next to it and returns the manifest path.
func WriteManifest(file string, results []Result) (string, error) {
	path := file + ManifestExt
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(Entry{Algorithm: r.Algorithm, File: filepath.Base(file), Value: r.Value}.String())
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest parses a manifest written by WriteManifest.
func ReadManifest(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		entry, err := parseEntry(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseEntry(text string) (Entry, error) {
	open := strings.Index(text, " (")
	closing := strings.LastIndex(text, ") = ")
	if open < 0 || closing < open {
		return Entry{}, fmt.Errorf("malformed line %q", text)
	}
	entry := Entry{
		Algorithm: strings.ToLower(text[:open]),
		File:      text[open+2 : closing],
		Value:     text[closing+4:],
	}
	if !Known(entry.Algorithm) {
		return Entry{}, fmt.Errorf("unknown hash algorithm %q", entry.Algorithm)
	}
	return entry, nil
}

// Mismatch is a manifest entry that does not match the file on disk.
type Mismatch struct {
	Entry
	Actual string
}

// VerifyManifest recomputes every entry of the manifest.
// Files are looked up relative to the manifest's directory.
func VerifyManifest(path string) ([]Mismatch, error) {
	entries, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}

	// group by file so every file is read only once
	var order []string
	byFile := make(map[string][]Entry)
	for _, e := range entries {
		if _, ok := byFile[e.File]; !ok {
			order = append(order, e.File)
		}
		byFile[e.File] = append(byFile[e.File], e)
	}

	var mismatches []Mismatch
	dir := filepath.Dir(path)
	for _, file := range order {
		group := byFile[file]
		algs := make([]string, len(group))
		for i, e := range group {
			algs[i] = e.Algorithm
		}
		results, err := Compute(filepath.Join(dir, file), algs)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", file, err)
		}
		for i, e := range group {
			if !strings.EqualFold(results[i].Value, e.Value) {
				mismatches = append(mismatches, Mismatch{Entry: e, Actual: results[i].Value})
			}
		}
	}
	return mismatches, nil
}
