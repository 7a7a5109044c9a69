package domain

import (
	"crypto/sha1" //nolint:gosec // sha1 integrity strings exist in the wild and must be verifiable
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strings"

	"go.trai.ch/zerr"
)

// Integrity is a Subresource Integrity value: an algorithm tag plus the
// raw digest. The canonical text form is "<algo>-<base64(digest)>".
type Integrity struct {
	Algorithm string
	Digest    []byte
}

// ParseIntegrity parses an SRI string such as "sha512-MNGc…==".
func ParseIntegrity(s string) (Integrity, error) {
	algo, b64, ok := strings.Cut(s, "-")
	if !ok || algo == "" || b64 == "" {
		return Integrity{}, zerr.With(ErrInvalidIntegrity, "integrity", s)
	}
	digest, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Integrity{}, zerr.With(zerr.Wrap(err, ErrInvalidIntegrity.Error()), "integrity", s)
	}
	return Integrity{Algorithm: algo, Digest: digest}, nil
}

// IntegrityFromHex builds an Integrity from a hex digest, e.g. a legacy
// npm "shasum" field.
func IntegrityFromHex(algorithm, hexDigest string) (Integrity, error) {
	digest, err := hex.DecodeString(hexDigest)
	if err != nil {
		return Integrity{}, zerr.With(zerr.Wrap(err, ErrInvalidIntegrity.Error()), "digest", hexDigest)
	}
	return Integrity{Algorithm: algorithm, Digest: digest}, nil
}

// IntegrityOf hashes content with sha512 and returns its Integrity.
func IntegrityOf(content []byte) Integrity {
	sum := sha512.Sum512(content)
	return Integrity{Algorithm: "sha512", Digest: sum[:]}
}

// IsZero reports whether i holds no digest.
func (i Integrity) IsZero() bool {
	return i.Algorithm == "" && len(i.Digest) == 0
}

// String renders the canonical SRI form.
func (i Integrity) String() string {
	return i.Algorithm + "-" + base64.StdEncoding.EncodeToString(i.Digest)
}

// Hex returns the digest as lowercase hexadecimal.
func (i Integrity) Hex() string {
	return hex.EncodeToString(i.Digest)
}

// Equal reports whether two integrity values share algorithm and digest.
func (i Integrity) Equal(other Integrity) bool {
	return i.Algorithm == other.Algorithm &&
		subtle.ConstantTimeCompare(i.Digest, other.Digest) == 1
}

// NewHash returns a fresh hash.Hash for the integrity's algorithm.
func (i Integrity) NewHash() (hash.Hash, error) {
	switch i.Algorithm {
	case "sha512":
		return sha512.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha1":
		return sha1.New(), nil //nolint:gosec // verification of upstream-advertised sha1 digests
	default:
		return nil, zerr.With(ErrInvalidIntegrity, "algorithm", i.Algorithm)
	}
}

// Matches hashes content with the integrity's own algorithm and compares
// digests.
func (i Integrity) Matches(content []byte) (bool, error) {
	h, err := i.NewHash()
	if err != nil {
		return false, err
	}
	h.Write(content)
	return subtle.ConstantTimeCompare(h.Sum(nil), i.Digest) == 1, nil
}
