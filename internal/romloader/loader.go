// Package romloader reads Game Boy ROM images from plain files or from
// zip, 7z, gzip, tar.gz and rar archives.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxSize is the largest ROM image accepted, matching the biggest MBC5 cartridge.
const MaxSize = 8 * 1024 * 1024

// Extensions are the file names recognised as ROM images inside archives.
var Extensions = []string{".gb", ".gbc", ".sgb"}

var (
	ErrNoROMFile         = errors.New("romloader: no ROM file in archive")
	ErrUnsupportedFormat = errors.New("romloader: unsupported file format")
	ErrTooBig            = errors.New("romloader: file exceeds maximum ROM size")
)

type format int

const (
	formatUnknown format = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
)

var magics = []struct {
	prefix []byte
	format format
}{
	{[]byte{0x50, 0x4B, 0x03, 0x04}, formatZIP},
	{[]byte{0x50, 0x4B, 0x05, 0x06}, formatZIP}, // empty archive
	{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, format7z},
	{[]byte{0x1F, 0x8B}, formatGzip},
	{[]byte("Rar!"), formatRAR},
}

// ReadFile returns the ROM image stored at path.
func ReadFile(path string) ([]byte, error) {
	data, _, err := Load(path)
	return data, err
}

// Load returns the ROM image at path and the base name of the file it was
// taken from (the archive member for archives).
func Load(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("romloader: %w", err)
	}
	defer f.Close()

	head := make([]byte, 16)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("romloader: read header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("romloader: %w", err)
	}

	switch detect(head[:n], path) {
	case formatRaw:
		data, err := limitedRead(f)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(path), nil
	case formatZIP:
		return fromZIP(path)
	case format7z:
		return from7z(path)
	case formatGzip:
		return fromGzip(f, path)
	case formatRAR:
		return fromRAR(path)
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// detect prefers magic bytes and falls back to the file extension. A file
// with an unknown extension and no archive magic is treated as a raw ROM.
func detect(head []byte, path string) format {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.prefix) {
			return m.format
		}
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZIP
	case strings.HasSuffix(lower, ".7z"):
		return format7z
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return formatGzip
	case strings.HasSuffix(lower, ".rar"):
		return formatRAR
	}
	if len(head) == 0 {
		return formatUnknown
	}
	return formatRaw
}

func isROMName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("romloader: %w", err)
	}
	if len(data) > MaxSize {
		return nil, ErrTooBig
	}
	return data, nil
}
