// Package hashes computes checksums over finished images, reading each file only once.
package hashes

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"hash/crc32"
	"io"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// Algorithm is a named checksum.
type Algorithm struct {
	Name   string
	New    func() hash.Hash
	Format func(sum []byte) string
}

// algorithms lists every supported checksum in manifest order.
var algorithms = []Algorithm{
	{Name: "adler32", New: func() hash.Hash { return adler32.New() }},
	{Name: "crc32", New: func() hash.Hash { return crc32.NewIEEE() }},
	{Name: "md4", New: md4.New},
	{Name: "md5", New: md5.New},
	{Name: "sha1", New: sha1.New},
	{Name: "sha224", New: sha256.New224},
	{Name: "sha256", New: sha256.New},
	{Name: "sha384", New: sha512.New384},
	{Name: "sha512", New: sha512.New},
	{Name: "sha3-256", New: sha3.New256},
	{Name: "sha3-512", New: sha3.New512},
	{Name: "blake2b", New: newBlake2b},
	{Name: "ripemd160", New: ripemd160.New},
	{Name: "cid", New: sha256.New, Format: formatCID},
}

func newBlake2b() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	return h
}

// formatCID renders a sha2-256 digest as CIDv1 with the "raw" multicodec.
func formatCID(sum []byte) string {
	mh, err := multihash.Encode(sum, multihash.SHA2_256)
	if err != nil {
		return ""
	}
	return cid.NewCidV1(cid.Raw, multihash.Multihash(mh)).String()
}

// Lookup returns the algorithm with the given name.
func Lookup(name string) (Algorithm, bool) {
	for _, a := range algorithms {
		if a.Name == name {
			return a, true
		}
	}
	return Algorithm{}, false
}

// Known reports whether name is a supported algorithm.
func Known(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// Names returns all supported algorithm names.
func Names() []string {
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = a.Name
	}
	return names
}

// Result is a computed checksum.
type Result struct {
	Algorithm string
	Sum       []byte
	Value     string // printable form
}

// Compute returns the requested checksums of the file at path.
// Results follow the order of algs.
func Compute(path string, algs []string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ComputeReader(f, algs)
}

// ComputeReader returns the requested checksums of everything readable from r.
func ComputeReader(r io.Reader, algs []string) ([]Result, error) {
	if len(algs) == 0 {
		return nil, fmt.Errorf("no hash algorithms requested")
	}

	selected := make([]Algorithm, len(algs))
	hashers := make([]hash.Hash, len(algs))
	writers := make([]io.Writer, len(algs))
	for i, name := range algs {
		a, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown hash algorithm %q", name)
		}
		selected[i] = a
		hashers[i] = a.New()
		writers[i] = hashers[i]
	}

	buf := make([]byte, 4096)
	if _, err := io.CopyBuffer(io.MultiWriter(writers...), r, buf); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	results := make([]Result, len(selected))
	for i, a := range selected {
		sum := hashers[i].Sum(nil)
		value := hex.EncodeToString(sum)
		if a.Format != nil {
			value = a.Format(sum)
		}
		results[i] = Result{Algorithm: a.Name, Sum: sum, Value: value}
	}
	return results, nil
}
