package cart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	headerEnd  = 0x014F
	titleStart = 0x0134
	titleLen   = 16
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// ErrShortROM is returned for images that end before the header does.
var ErrShortROM = errors.New("cart: ROM too small to contain a header")

// Header is the decoded cartridge header at 0x0100–0x014F.
type Header struct {
	RawTitle       [titleLen]byte // 0x0134-0x0143, including the CGB flag byte
	Title          string         // printable part of RawTitle
	CGBFlag        byte           // 0x0143
	NewLicensee    string         // 0x0144-0x0145
	SGBFlag        byte           // 0x0146
	CartType       byte           // 0x0147
	ROMSizeCode    byte           // 0x0148
	RAMSizeCode    byte           // 0x0149
	Destination    byte           // 0x014A
	OldLicensee    byte           // 0x014B
	ROMVersion     byte           // 0x014C
	HeaderChecksum byte           // 0x014D
	GlobalChecksum uint16         // 0x014E-0x014F, big-endian

	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int  // -1 for an unknown code
	LogoOK       bool // boot logo matches
	CartTypeStr  string
}

// ParseHeader decodes the header fields. It only fails on short images;
// use HeaderChecksumOK and the decoded sizes to validate the contents.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) <= headerEnd {
		return nil, ErrShortROM
	}
	h := &Header{
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
		LogoOK:         [48]byte(rom[0x0104:0x0134]) == nintendoLogo,
	}
	copy(h.RawTitle[:], rom[titleStart:titleStart+titleLen])
	h.Title = decodeTitle(h.RawTitle, h.CGBFlag)
	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	h.RAMSizeBytes = decodeRAMSize(h.RAMSizeCode)
	h.CartTypeStr = cartTypeString(h.CartType)
	return h, nil
}

// decodeTitle drops padding and, on CGB-aware carts, the flag byte.
func decodeTitle(raw [titleLen]byte, cgb byte) string {
	n := titleLen
	if cgb&0x80 != 0 {
		n--
	}
	var sb strings.Builder
	for _, c := range raw[:n] {
		if c == 0 {
			break
		}
		if c >= 0x20 && c < 0x7F {
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

// HeaderChecksumOK verifies the checksum over 0x0134–0x014C.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	return headerChecksum(rom) == rom[0x014D]
}

func headerChecksum(rom []byte) byte {
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum
}

// GlobalChecksum sums every byte except the checksum itself.
func GlobalChecksum(rom []byte) uint16 {
	var sum uint16
	for i, b := range rom {
		if i == 0x014E || i == 0x014F {
			continue
		}
		sum += uint16(b)
	}
	return sum
}

// SaveName identifies a game for save files: title, destination code and
// global checksum.
func (h *Header) SaveName() string {
	title := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_':
			return '_'
		}
		return -1
	}, h.Title)
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("%s_%d_%04x", title, h.Destination, h.GlobalChecksum)
}

func decodeROMSize(code byte) (size, banks int) {
	switch {
	case code <= 0x08:
		banks = 2 << code
	case code == 0x52:
		banks = 72
	case code == 0x53:
		banks = 80
	case code == 0x54:
		banks = 96
	default:
		return 0, 0
	}
	return banks * romBankSize, banks
}

func decodeRAMSize(code byte) int {
	switch code {
	case 0x00:
		return 0
	case 0x01:
		return 2 * 1024
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	default:
		return -1
	}
}

func cartTypeString(code byte) string {
	switch code {
	case 0x00:
		return "ROM ONLY"
	case 0x08:
		return "ROM+RAM"
	case 0x09:
		return "ROM+RAM+BATTERY"
	case 0x01:
		return "MBC1"
	case 0x02:
		return "MBC1+RAM"
	case 0x03:
		return "MBC1+RAM+BATTERY"
	case 0x05:
		return "MBC2"
	case 0x06:
		return "MBC2+BATTERY"
	case 0x0F:
		return "MBC3+TIMER+BATTERY"
	case 0x10:
		return "MBC3+TIMER+RAM+BATTERY"
	case 0x11:
		return "MBC3"
	case 0x12:
		return "MBC3+RAM"
	case 0x13:
		return "MBC3+RAM+BATTERY"
	case 0x19:
		return "MBC5"
	case 0x1A:
		return "MBC5+RAM"
	case 0x1B:
		return "MBC5+RAM+BATTERY"
	case 0x1C:
		return "MBC5+RUMBLE"
	case 0x1D:
		return "MBC5+RUMBLE+RAM"
	case 0x1E:
		return "MBC5+RUMBLE+RAM+BATTERY"
	default:
		return fmt.Sprintf("unknown (%#02x)", code)
	}
}
