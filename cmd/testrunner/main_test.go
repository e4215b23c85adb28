package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

// serialROM builds a ROM that prints msg over the link port and spins.
func serialROM(msg string) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], []byte{0x00, 0xC3, 0x50, 0x01})
	copy(rom[0x0134:], "SERIAL")
	var x byte
	for i := 0x0134; i <= 0x014C; i++ {
		x = x - rom[i] - 1
	}
	rom[0x014D] = x
	code := []byte{}
	for _, c := range []byte(msg) {
		code = append(code, 0x3E, c, 0xE0, 0x01, 0x3E, 0x81, 0xE0, 0x02)
	}
	code = append(code, 0x18, 0xFE)
	copy(rom[0x0150:], code)
	return rom
}

func writeROM(t *testing.T, msg string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gb")
	if err := os.WriteFile(path, serialROM(msg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRunROM(t *testing.T) {
	tests := []struct {
		msg  string
		want int
	}{
		{"Passed", exitPass},
		{"Failed #3", exitFail},
		{"01:ok ", exitTimeout},
	}
	for _, tt := range tests {
		r := runROM(writeROM(t, tt.msg), nil, 5, 0, nil, quiet())
		if r.code != tt.want {
			t.Errorf("%q: code got %d want %d (out %q)", tt.msg, r.code, tt.want, r.out)
		}
		if r.out != tt.msg {
			t.Errorf("%q: serial got %q", tt.msg, r.out)
		}
	}
}

func TestRunROMMissing(t *testing.T) {
	if r := runROM(filepath.Join(t.TempDir(), "none.gb"), nil, 1, 0, nil, quiet()); r.code != exitUsage {
		t.Fatalf("code got %d want %d", r.code, exitUsage)
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		out          string
		done, passed bool
	}{
		{"cpu_instrs\n\n01:ok  02:ok", false, false},
		{"Passed all tests", true, true},
		{"Failed 2 tests", true, false},
		{"", false, false},
	}
	for _, tt := range tests {
		done, passed := verdict(tt.out)
		if done != tt.done || passed != tt.passed {
			t.Errorf("verdict(%q) got %v,%v want %v,%v", tt.out, done, passed, tt.done, tt.passed)
		}
	}
	if s := lastStage("01:ok 02:ok"); s != "" {
		t.Fatalf("unexpected stage %q", s)
	}
	if s := lastStage("run 10:01 then 11:02"); s != "11:02" {
		t.Fatalf("stage got %q want 11:02", s)
	}
}
