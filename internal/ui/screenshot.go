package ui

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.design/x/clipboard"
	xdraw "golang.org/x/image/draw"
)

// Scale returns src enlarged by an integer factor with nearest neighbour
// sampling, which keeps pixel edges sharp.
func Scale(src image.Image, factor int) *image.RGBA {
	factor = max(factor, 1)
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// EncodePNG scales src and returns it as PNG bytes.
func EncodePNG(src image.Image, factor int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Scale(src, factor)); err != nil {
		return nil, fmt.Errorf("ui: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveScreenshot writes a scaled PNG into dir and returns its path.
func SaveScreenshot(dir string, src image.Image, factor int, now time.Time) (string, error) {
	data, err := EncodePNG(src, factor)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "screenshot_"+now.Format("20060102_150405")+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

var (
	clipOnce sync.Once
	clipErr  error
)

// CopyScreenshot places a scaled PNG of src on the system clipboard.
func CopyScreenshot(src image.Image, factor int) error {
	clipOnce.Do(func() { clipErr = clipboard.Init() })
	if clipErr != nil {
		return fmt.Errorf("ui: clipboard: %w", clipErr)
	}
	data, err := EncodePNG(src, factor)
	if err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}
