// Package image normalizes frames before they go to the detection
// service: type validation, a size cap, and downscaling of oversized
// captures so uploads stay cheap.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	MaxFileSize  = 10 * 1024 * 1024 // 10MB
	MaxDimension = 1280
)

// Processor satisfies state.Preprocessor.
type Processor struct{}

func NewProcessor() *Processor { return &Processor{} }

// Prepare validates a frame and downscales it when either dimension
// exceeds MaxDimension. Downscaled frames are re-encoded as JPEG;
// frames already within bounds pass through untouched.
func (p *Processor) Prepare(filename string, frame []byte) (string, []byte, error) {
	if len(frame) > MaxFileSize {
		return "", nil, fmt.Errorf("frame size %d exceeds maximum %d bytes", len(frame), MaxFileSize)
	}

	contentType := http.DetectContentType(frame)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", nil, fmt.Errorf("invalid frame type %q: only jpeg and png are allowed", contentType)
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= MaxDimension && bounds.Dy() <= MaxDimension {
		return filename, frame, nil
	}

	scaled := imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", nil, fmt.Errorf("failed to encode scaled frame: %w", err)
	}

	return jpegName(filename), buf.Bytes(), nil
}

func jpegName(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		filename = filename[:idx]
	}
	return filename + ".jpg"
}
