package storage

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFingerprint(&buf))
	assert.Equal(t, FingerprintSize, buf.Len())
	require.NoError(t, ReadFingerprint(&buf))
}

func TestFingerprintRejectsCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b []byte)
	}{
		{name: "magic", mutate: func(b []byte) { b[0] = 'X' }},
		{name: "major version", mutate: func(b []byte) { b[4]++ }},
		{name: "checksum", mutate: func(b []byte) { b[7]++ }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteFingerprint(&buf))
			b := buf.Bytes()
			tt.mutate(b)
			err := ReadFingerprint(bytes.NewReader(b))
			require.ErrorIs(t, err, ErrFingerprintMismatch)
		})
	}
}

func TestFingerprintCompatibility(t *testing.T) {
	cur := GenerateFingerprint()

	newerPatch := cur
	newerPatch.Patch++
	newerPatch.Checksum = newerPatch.checksum()
	assert.True(t, cur.IsCompatible(newerPatch))

	newerMinor := cur
	newerMinor.Minor++
	newerMinor.Checksum = newerMinor.checksum()
	assert.False(t, cur.IsCompatible(newerMinor))
}

func TestFileWriterPatchesCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.bin")

	fw, err := CreateFileWriter(path)
	require.NoError(t, err)
	require.NoError(t, fw.WriteElementCount64(0))
	require.NoError(t, fw.WriteOne(uint32(7)))
	require.NoError(t, fw.WriteOne(uint32(8)))
	require.NoError(t, fw.PatchElementCount64(2))
	require.NoError(t, fw.Close())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	fr, err := OpenFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	n, err := fr.ReadElementCount64()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	vals := make([]uint32, 2)
	require.NoError(t, fr.ReadOne(vals))
	assert.Equal(t, []uint32{7, 8}, vals)
	require.NoError(t, ExpectEOF(fr.Reader()))
}

func TestFileWriterCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.bin")
	fw, err := CreateFileWriter(path)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	require.NoError(t, fw.Close())
	assert.Error(t, fw.WriteOne(uint32(1)))
}

func TestFileWriterCreateFails(t *testing.T) {
	_, err := CreateFileWriter(filepath.Join(t.TempDir(), "missing", "dir", "x.bin"))
	require.Error(t, err)
}

func TestOpenFileReaderRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.bin")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_PARTITION_FILE"), 0o644))

	_, err := OpenFileReader(path)
	require.ErrorIs(t, err, ErrFingerprintMismatch)
}

func TestExpectEOF(t *testing.T) {
	require.NoError(t, ExpectEOF(bytes.NewReader(nil)))

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(1)))
	require.Error(t, ExpectEOF(&buf))
}

// linkTempToDevFull makes every write to path's temp file fail with ENOSPC.
func linkTempToDevFull(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skipf("no /dev/full: %v", err)
	}
	if err := os.Symlink("/dev/full", path+".tmp"); err != nil {
		t.Skipf("symlink: %v", err)
	}
}

func TestFileWriterWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "full.bin")
	linkTempToDevFull(t, path)

	fw, err := CreateFileWriter(path)
	require.NoError(t, err)

	var writeErr error
	for i := range 32 * 1024 { // 256 KiB, well past the buffer
		if writeErr = fw.WriteOne(uint64(i)); writeErr != nil {
			break
		}
	}
	require.Error(t, writeErr)
	assert.ErrorIs(t, fw.WriteOne(uint64(0)), writeErr, "write error is not sticky")

	closeErr := fw.Close()
	require.Error(t, closeErr)
	assert.Equal(t, closeErr, fw.Close())

	_, err = os.Lstat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file published after a write error")
}
