package romloader

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// member is an archive entry that can be opened for reading.
type member interface {
	Open() (io.ReadCloser, error)
	FileInfo() fs.FileInfo
}

// firstROM reads the first regular member with a ROM extension.
func firstROM[M member](files []M, name func(M) string) ([]byte, string, error) {
	for _, f := range files {
		n := name(f)
		if f.FileInfo().IsDir() || !isROMName(n) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("romloader: open %s: %w", n, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(n), nil
	}
	return nil, "", ErrNoROMFile
}

func fromZIP(path string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("romloader: zip: %w", err)
	}
	defer r.Close()
	return firstROM(r.File, func(f *zip.File) string { return f.Name })
}

func from7z(path string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("romloader: 7z: %w", err)
	}
	defer r.Close()
	return firstROM(r.File, func(f *sevenzip.File) string { return f.Name })
}

// fromGzip handles both a single gzipped ROM and a gzipped tarball.
func fromGzip(r io.Reader, path string) ([]byte, string, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("romloader: gzip: %w", err)
	}
	defer gr.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return fromTar(gr)
	}
	data, err := limitedRead(gr)
	if err != nil {
		return nil, "", err
	}
	name := gr.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return data, filepath.Base(name), nil
}

func fromTar(r io.Reader) ([]byte, string, error) {
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, "", ErrNoROMFile
		}
		if err != nil {
			return nil, "", fmt.Errorf("romloader: tar: %w", err)
		}
		if h.Typeflag != tar.TypeReg || !isROMName(h.Name) {
			continue
		}
		data, err := limitedRead(tr)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(h.Name), nil
	}
}

func fromRAR(path string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("romloader: rar: %w", err)
	}
	defer r.Close()
	for {
		h, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil, "", ErrNoROMFile
		}
		if err != nil {
			return nil, "", fmt.Errorf("romloader: rar: %w", err)
		}
		if h.IsDir || !isROMName(h.Name) {
			continue
		}
		data, err := limitedRead(r)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(h.Name), nil
	}
}
