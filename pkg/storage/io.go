package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// FileWriter writes a fingerprinted binary file. Data goes to path+".tmp" and
// only replaces path when Close succeeds, so a crashed or failed run never
// leaves a file that looks complete.
type FileWriter struct {
	path    string
	tmpPath string
	f       *os.File
	w       *bufio.Writer
	err     error
	closed  bool
}

// CreateFileWriter opens the temp file for path and writes the fingerprint.
func CreateFileWriter(path string) (*FileWriter, error) {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	fw := &FileWriter{
		path:    path,
		tmpPath: tmpPath,
		f:       f,
		w:       bufio.NewWriterSize(f, 64*1024),
	}
	if err := WriteFingerprint(fw.w); err != nil {
		fw.fail(fmt.Errorf("write fingerprint: %w", err))
		return nil, fw.Close()
	}
	return fw, nil
}

func (fw *FileWriter) fail(err error) {
	if fw.err == nil {
		fw.err = err
	}
}

// WriteOne appends a fixed-size value in little-endian order. Writes after a
// failure are dropped and the first error is returned again.
func (fw *FileWriter) WriteOne(v any) error {
	if fw.err != nil {
		return fw.err
	}
	if fw.closed {
		return errors.New("write to closed file")
	}
	if err := binary.Write(fw.w, binary.LittleEndian, v); err != nil {
		fw.fail(fmt.Errorf("write %s: %w", fw.path, err))
	}
	return fw.err
}

// WriteElementCount64 appends a uint64 element count.
func (fw *FileWriter) WriteElementCount64(n uint64) error {
	return fw.WriteOne(n)
}

// PatchElementCount64 overwrites the uint64 directly after the fingerprint.
// Everything buffered so far is flushed first.
func (fw *FileWriter) PatchElementCount64(n uint64) error {
	if fw.err != nil {
		return fw.err
	}
	if err := fw.w.Flush(); err != nil {
		fw.fail(fmt.Errorf("flush %s: %w", fw.path, err))
		return fw.err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	if _, err := fw.f.WriteAt(buf[:], FingerprintSize); err != nil {
		fw.fail(fmt.Errorf("patch element count: %w", err))
	}
	return fw.err
}

// Close flushes and publishes the file. After a write error the temp file is
// removed and the error is returned. Close is idempotent.
func (fw *FileWriter) Close() error {
	if fw.closed {
		return fw.err
	}
	fw.closed = true

	if fw.err == nil {
		if err := fw.w.Flush(); err != nil {
			fw.fail(fmt.Errorf("flush %s: %w", fw.path, err))
		}
	}
	if err := fw.f.Close(); err != nil {
		fw.fail(fmt.Errorf("close temp file: %w", err))
	}
	if fw.err != nil {
		os.Remove(fw.tmpPath)
		return fw.err
	}
	if err := os.Rename(fw.tmpPath, fw.path); err != nil {
		os.Remove(fw.tmpPath)
		fw.fail(fmt.Errorf("rename: %w", err))
	}
	return fw.err
}

// FileReader reads a fingerprinted binary file.
type FileReader struct {
	f *os.File
	r *bufio.Reader
}

// OpenFileReader opens path and validates its fingerprint.
func OpenFileReader(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	fr := &FileReader{f: f, r: bufio.NewReaderSize(f, 64*1024)}
	if err := ReadFingerprint(fr.r); err != nil {
		f.Close()
		return nil, err
	}
	return fr, nil
}

// Reader exposes the buffered stream positioned after the fingerprint.
func (fr *FileReader) Reader() io.Reader { return fr.r }

// ReadOne reads a fixed-size little-endian value into v.
func (fr *FileReader) ReadOne(v any) error {
	return binary.Read(fr.r, binary.LittleEndian, v)
}

// ReadElementCount64 reads a uint64 element count.
func (fr *FileReader) ReadElementCount64() (uint64, error) {
	var n uint64
	err := fr.ReadOne(&n)
	return n, err
}

// Close closes the underlying file.
func (fr *FileReader) Close() error {
	return fr.f.Close()
}

// ExpectEOF fails if r has any bytes left.
func ExpectEOF(r io.Reader) error {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	switch {
	case err == io.EOF:
		return nil
	case err != nil:
		return err
	}
	return errors.New("unexpected trailing data")
}
