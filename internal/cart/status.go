package cart

// Status is the outcome of loading a cartridge.
type Status int

const (
	NoROMLoaded Status = iota
	ROMFileNotReadable
	ROMParseError
	ROMTooBig
	ROMSizeMismatch
	ROMUnsupportedMBC
	RAMSizeUnsupported
	Loaded
)

var statusNames = [...]string{
	NoROMLoaded:        "no ROM loaded",
	ROMFileNotReadable: "ROM file not readable",
	ROMParseError:      "ROM header could not be parsed",
	ROMTooBig:          "ROM too big",
	ROMSizeMismatch:    "ROM size does not match header",
	ROMUnsupportedMBC:  "unsupported memory bank controller",
	RAMSizeUnsupported: "unsupported RAM size",
	Loaded:             "loaded",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown status"
}
