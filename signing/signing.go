// Package signing signs checksum manifests so that a published autoloader can be traced back to its builder.
package signing

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Supported schemes.
const (
	Ed25519    = "ed25519"
	Dilithium3 = "dilithium3"
)

// SignatureExt is appended to the name of a signed file.
const SignatureExt = ".sig"

// ErrInvalidSignature is returned when a signature does not verify.
var ErrInvalidSignature = errors.New("signing: signature invalid")

// Known reports whether scheme is supported.
func Known(scheme string) bool {
	return scheme == Ed25519 || scheme == Dilithium3
}

// Key is a keypair in its binary encoding.
type Key struct {
	Scheme  string
	Private []byte
	Public  []byte
}

// GenerateKey returns a new keypair for scheme.
func GenerateKey(scheme string, rand io.Reader) (*Key, error) {
	switch scheme {
	case Ed25519:
		pub, priv, err := ed25519.GenerateKey(rand)
		if err != nil {
			return nil, err
		}
		return &Key{Scheme: scheme, Private: priv, Public: pub}, nil
	case Dilithium3:
		pub, priv, err := mode3.GenerateKey(rand)
		if err != nil {
			return nil, err
		}
		pubBytes, err := pub.MarshalBinary()
		if err != nil {
			return nil, err
		}
		privBytes, err := priv.MarshalBinary()
		if err != nil {
			return nil, err
		}
		return &Key{Scheme: scheme, Private: privBytes, Public: pubBytes}, nil
	default:
		return nil, fmt.Errorf("unsupported signing scheme %q", scheme)
	}
}

// Save writes the key as three lines: scheme, private key (hex), public key (hex).
func (k *Key) Save(path string) error {
	data := k.Scheme + "\n" + hex.EncodeToString(k.Private) + "\n" + hex.EncodeToString(k.Public) + "\n"
	return os.WriteFile(path, []byte(data), 0o600)
}

// LoadKey reads a key written by Save.
func LoadKey(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Fields(string(data))
	if len(lines) != 3 {
		return nil, fmt.Errorf("malformed key file %q", path)
	}
	if !Known(lines[0]) {
		return nil, fmt.Errorf("unsupported signing scheme %q", lines[0])
	}
	priv, err := hex.DecodeString(lines[1])
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	pub, err := hex.DecodeString(lines[2])
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	return &Key{Scheme: lines[0], Private: priv, Public: pub}, nil
}

// Sign returns a base64 signature over sha512(message).
func Sign(key *Key, message []byte) (string, error) {
	digest := sha512.Sum512(message)

	switch key.Scheme {
	case Ed25519:
		if len(key.Private) != ed25519.PrivateKeySize {
			return "", errors.New("invalid ed25519 private key length")
		}
		sig := ed25519.Sign(ed25519.PrivateKey(key.Private), digest[:])
		return base64.StdEncoding.EncodeToString(sig), nil
	case Dilithium3:
		var sk mode3.PrivateKey
		if err := sk.UnmarshalBinary(key.Private); err != nil {
			return "", fmt.Errorf("invalid dilithium3 private key: %w", err)
		}
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(&sk, digest[:], sig)
		return base64.StdEncoding.EncodeToString(sig), nil
	default:
		return "", fmt.Errorf("unsupported signing scheme %q", key.Scheme)
	}
}

// Verify checks a signature produced by Sign.
func Verify(scheme string, public []byte, message []byte, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return fmt.Errorf("invalid signature base64: %w", err)
	}
	digest := sha512.Sum512(message)

	switch scheme {
	case Ed25519:
		if len(public) != ed25519.PublicKeySize {
			return errors.New("invalid ed25519 public key length")
		}
		if !ed25519.Verify(ed25519.PublicKey(public), digest[:], sig) {
			return ErrInvalidSignature
		}
		return nil
	case Dilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(public); err != nil {
			return fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pk, digest[:], sig) {
			return ErrInvalidSignature
		}
		return nil
	default:
		return fmt.Errorf("unsupported signing scheme %q", scheme)
	}
}

// SignFile signs the file at path and writes the signature next to it.
func SignFile(key *Key, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sig, err := Sign(key, data)
	if err != nil {
		return "", err
	}
	sigPath := path + SignatureExt
	if err := os.WriteFile(sigPath, []byte(sig+"\n"), 0o644); err != nil {
		return "", err
	}
	return sigPath, nil
}

// VerifyFile checks the signature written by SignFile.
func VerifyFile(key *Key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sig, err := os.ReadFile(path + SignatureExt)
	if err != nil {
		return err
	}
	return Verify(key.Scheme, key.Public, data, string(sig))
}
