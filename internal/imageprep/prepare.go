// Package imageprep normalizes an uploaded raster image into the bounded,
// analysis-ready artifact submitted to the vision model: fixed target width,
// preserved aspect ratio, PNG on disk at a per-request temporary path.
package imageprep

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// DecodeError indicates the input could not be parsed as a supported
// raster image (JPEG, PNG, BMP, GIF, TIFF).
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("imageprep: undecodable image: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// IOError indicates the normalized artifact could not be written.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("imageprep: write artifact: %v", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

type Options struct {
	TargetWidth int
	Grayscale   bool
	Contrast    float64 // percentage, 0 disables
	TempDir     string  // empty means os.TempDir()
}

// Prepared is a normalized image written to a unique temporary path.
// The caller owns the file and must call Release exactly once.
type Prepared struct {
	Path   string
	Width  int
	Height int
	Data   []byte // PNG encoding of the normalized image

	released bool
}

// Prepare decodes, resizes, and writes the image. Each call gets its own
// uuid-keyed temp file, so overlapping requests never share a path.
func Prepare(r io.Reader, opts Options) (*Prepared, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	width := opts.TargetWidth
	if width <= 0 {
		width = 500
	}
	bounds := src.Bounds()
	aspect := float64(bounds.Dx()) / float64(bounds.Dy())
	height := int(math.Round(float64(width) / aspect))
	if height < 1 {
		height = 1
	}

	out := imaging.Resize(src, width, height, imaging.Lanczos)
	if opts.Grayscale {
		out = imaging.Grayscale(out)
	}
	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, &IOError{Err: err}
	}

	dir := opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "radiolens-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, &IOError{Err: err}
	}

	return &Prepared{
		Path:   path,
		Width:  width,
		Height: height,
		Data:   buf.Bytes(),
	}, nil
}

// PrepareFile is Prepare for an on-disk source image.
func PrepareFile(path string, opts Options) (*Prepared, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Err: err}
	}
	defer f.Close()
	return Prepare(f, opts)
}

// Release deletes the temporary artifact. Deletion failures are logged and
// swallowed: a stale temp file must never fail the request that produced it.
func (p *Prepared) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("imageprep: remove %s: %v", p.Path, err)
	}
}
