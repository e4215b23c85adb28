package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/emu"
)

// Exit codes.
const (
	exitPass    = 0
	exitFail    = 1
	exitTimeout = 2
	exitUsage   = 3
)

var (
	failRe  = regexp.MustCompile(`(?i)\bfailed\b`)
	stageRe = regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
)

// verdict inspects the serial output collected so far.
func verdict(out string) (done, passed bool) {
	if strings.Contains(strings.ToLower(out), "passed") {
		return true, true
	}
	if failRe.MatchString(out) {
		return true, false
	}
	return false, false
}

// lastStage returns the last "NN:NN" marker some suites print per sub test.
func lastStage(out string) string {
	m := stageRe.FindAllString(out, -1)
	if len(m) == 0 {
		return ""
	}
	return m[len(m)-1]
}

type result struct {
	code   int
	frames int
	out    string
}

func runROM(romPath string, boot []byte, maxFrames int, timeout time.Duration, echo io.Writer, log logrus.FieldLogger) result {
	var ser bytes.Buffer
	w := io.Writer(&ser)
	if echo != nil {
		w = io.MultiWriter(echo, &ser)
	}
	cfg := emu.Defaults()
	cfg.BootROM = boot
	e := emu.New(cfg, emu.WithSerial(w), emu.WithLogger(log))
	if st := e.LoadGame(romPath); st != cart.Loaded {
		log.WithField("rom", romPath).WithField("status", st).Error("load failed")
		return result{code: exitUsage}
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for i := 1; i <= maxFrames; i++ {
		e.DoTick()
		if done, passed := verdict(ser.String()); done {
			if passed {
				return result{code: exitPass, frames: i, out: ser.String()}
			}
			return result{code: exitFail, frames: i, out: ser.String()}
		}
		if st, locked := e.CPUState(); locked {
			log.WithField("state", st).Warn("cpu locked up")
			return result{code: exitFail, frames: i, out: ser.String()}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return result{code: exitTimeout, frames: i, out: ser.String()}
		}
	}
	return result{code: exitTimeout, frames: maxFrames, out: ser.String()}
}

func main() {
	romPath := flag.String("rom", "", "path to a test ROM reporting over serial")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM")
	frames := flag.Int("frames", 3600, "max frames to run")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	quiet := flag.Bool("quiet", false, "do not echo serial output")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	if lvl, err := logrus.ParseLevel(*level); err == nil {
		log.SetLevel(lvl)
	}
	if *romPath == "" {
		log.Error("-rom is required")
		os.Exit(exitUsage)
	}
	var boot []byte
	if *bootPath != "" {
		b, err := os.ReadFile(*bootPath)
		if err != nil {
			log.WithError(err).Error("read boot ROM")
			os.Exit(exitUsage)
		}
		boot = b
	}

	var echo io.Writer = os.Stdout
	if *quiet {
		echo = nil
	}
	start := time.Now()
	r := runROM(*romPath, boot, *frames, *timeout, echo, log)
	switch r.code {
	case exitPass:
		fmt.Printf("\nPASS")
	case exitFail:
		fmt.Printf("\nFAIL")
	case exitTimeout:
		fmt.Printf("\nTIMEOUT")
	}
	if s := lastStage(r.out); s != "" {
		fmt.Printf(" (last stage %s)", s)
	}
	fmt.Printf(" frames=%d elapsed=%s\n", r.frames, time.Since(start).Truncate(time.Millisecond))
	os.Exit(r.code)
}
