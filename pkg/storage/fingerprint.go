// Package storage holds the binary file conventions shared by every artifact
// the preprocessing pipeline writes: a leading fingerprint, little-endian
// fixed-width integers and temp-file-then-rename publication.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Format version written into every fingerprint. Readers accept files whose
// major and minor versions match.
const (
	MajorVersion = 1
	MinorVersion = 0
	PatchVersion = 0
)

// FingerprintSize is the encoded size of a Fingerprint in bytes.
const FingerprintSize = 8

var fingerprintMagic = [4]byte{'M', 'P', 'R', 'T'}

// ErrFingerprintMismatch is returned when a file does not start with a valid,
// compatible fingerprint.
var ErrFingerprintMismatch = errors.New("fingerprint mismatch")

// Fingerprint identifies the producer format and version of a binary file.
type Fingerprint struct {
	Magic    [4]byte
	Major    uint8
	Minor    uint8
	Patch    uint8
	Checksum uint8
}

// GenerateFingerprint returns the fingerprint of the running format version.
func GenerateFingerprint() Fingerprint {
	fp := Fingerprint{
		Magic: fingerprintMagic,
		Major: MajorVersion,
		Minor: MinorVersion,
		Patch: PatchVersion,
	}
	fp.Checksum = fp.checksum()
	return fp
}

func (fp Fingerprint) checksum() uint8 {
	b := [7]byte{fp.Magic[0], fp.Magic[1], fp.Magic[2], fp.Magic[3], fp.Major, fp.Minor, fp.Patch}
	return uint8(crc32.ChecksumIEEE(b[:]))
}

// IsValid reports whether the magic bytes and checksum are intact.
func (fp Fingerprint) IsValid() bool {
	return fp.Magic == fingerprintMagic && fp.Checksum == fp.checksum()
}

// IsCompatible reports whether data written with fp can be read by this build.
func (fp Fingerprint) IsCompatible(other Fingerprint) bool {
	return fp.IsValid() && other.IsValid() && fp.Major == other.Major && fp.Minor == other.Minor
}

func (fp Fingerprint) String() string {
	return fmt.Sprintf("%s v%d.%d.%d", fp.Magic[:], fp.Major, fp.Minor, fp.Patch)
}

// WriteFingerprint writes the current fingerprint to w.
func WriteFingerprint(w io.Writer) error {
	fp := GenerateFingerprint()
	return binary.Write(w, binary.LittleEndian, &fp)
}

// ReadFingerprint reads a fingerprint from r and fails with
// ErrFingerprintMismatch unless it is compatible with this build.
func ReadFingerprint(r io.Reader) error {
	var fp Fingerprint
	if err := binary.Read(r, binary.LittleEndian, &fp); err != nil {
		return fmt.Errorf("read fingerprint: %w", err)
	}
	if !fp.IsCompatible(GenerateFingerprint()) {
		return fmt.Errorf("%w: got %q, want %s", ErrFingerprintMismatch, fp.Magic[:], GenerateFingerprint())
	}
	return nil
}
