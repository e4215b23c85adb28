package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
)

// ResumeFile is the name of the session file inside the store directory.
const ResumeFile = "resume.fbr"

var resumeMagic = [4]byte{'F', 'B', 'R', 'S'}

var (
	ErrBadResume      = errors.New("persist: not a resume file")
	ErrResumeMismatch = errors.New("persist: resume file belongs to another ROM")
)

// Resume is the decoded content of the resume file.
type Resume struct {
	ROMPath string
	State   []byte
}

func (s *Store) ResumePath() string { return filepath.Join(s.Dir, ResumeFile) }

// WriteResume records the ROM path and a save state of the session,
// brotli compressed.
func (s *Store) WriteResume(m Machine, romPath string) error {
	var st bytes.Buffer
	if err := m.SaveState(&st); err != nil {
		return err
	}
	abs, err := filepath.Abs(romPath)
	if err != nil {
		abs = romPath
	}
	return writeAtomic(s.ResumePath(), func(w io.Writer) error {
		bw := brotli.NewWriterLevel(w, brotli.BestCompression)
		if err := encodeResume(bw, Resume{ROMPath: abs, State: st.Bytes()}); err != nil {
			return err
		}
		return bw.Close()
	})
}

func encodeResume(w io.Writer, r Resume) error {
	hdr := make([]byte, 0, 12)
	hdr = append(hdr, resumeMagic[:]...)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(len(r.ROMPath)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if _, err := io.WriteString(w, r.ROMPath); err != nil {
		return err
	}
	_, err := w.Write(r.State)
	return err
}

// ReadResume returns the stored session.
func (s *Store) ReadResume() (Resume, error) {
	f, err := os.Open(s.ResumePath())
	if err != nil {
		return Resume{}, err
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(brotli.NewReader(f), 1<<20))
	if err != nil {
		return Resume{}, fmt.Errorf("%w: %v", ErrBadResume, err)
	}
	if len(raw) < 8 || [4]byte(raw[:4]) != resumeMagic {
		return Resume{}, ErrBadResume
	}
	n := int(binary.LittleEndian.Uint32(raw[4:8]))
	if n > len(raw)-8 {
		return Resume{}, ErrBadResume
	}
	return Resume{ROMPath: string(raw[8 : 8+n]), State: raw[8+n:]}, nil
}

// RestoreResume reloads the ROM named in the resume file and applies its
// state. romPath, when set, must name the same file.
func (s *Store) RestoreResume(m Machine, romPath string) (string, error) {
	r, err := s.ReadResume()
	if err != nil {
		return "", err
	}
	if romPath != "" {
		abs, err := filepath.Abs(romPath)
		if err != nil {
			abs = romPath
		}
		if abs != r.ROMPath {
			return "", ErrResumeMismatch
		}
	}
	if st := m.LoadGame(r.ROMPath); st != cart.Loaded {
		return "", fmt.Errorf("persist: reload %s: %s", r.ROMPath, st)
	}
	if err := m.LoadState(bytes.NewReader(r.State)); err != nil {
		return "", err
	}
	return r.ROMPath, nil
}

// ClearResume removes the resume file. A missing file is not an error.
func (s *Store) ClearResume() error {
	err := os.Remove(s.ResumePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
