// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package imaging turns uploaded images into the fixed-size WEBP renditions
// stored for players, managers and trophies.
//
// Process decodes the upload (JPEG, PNG, GIF or WEBP, honoring EXIF
// orientation), picks the most interesting region with an entropy-aware
// crop, resizes it to the target geometry and encodes it as lossy WEBP.
// Decoding and encoding are CPU-bound; a weighted semaphore bounds how many
// run at once so a burst of uploads cannot starve request handling.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"runtime"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
	"github.com/muesli/smartcrop/nfnt"
	_ "golang.org/x/image/webp" // register WEBP decoder
	"golang.org/x/sync/semaphore"
)

const (
	// ContentType is the MIME type of every processed image.
	ContentType = "image/webp"
	// Extension is the filename extension of every processed image.
	Extension = ".webp"

	// DefaultQuality is the lossy WEBP quality.
	DefaultQuality = 85
	// maxDimension is the largest side WEBP can encode.
	maxDimension = 16383
)

var (
	// ErrInvalidImage is returned when the input cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrTooLarge is returned when the input exceeds the byte or pixel limits.
	ErrTooLarge = errors.New("image too large")
	// ErrEncode is returned when WEBP encoding fails or yields malformed output.
	ErrEncode = errors.New("image encoding failed")
	// ErrUnknownKind is returned for an unsupported rendition kind.
	ErrUnknownKind = errors.New("unknown image kind")
)

// Kind selects the rendition geometry.
type Kind string

const (
	KindPlayer  Kind = "player"
	KindManager Kind = "manager"
	KindTrophy  Kind = "trophy"
)

// Size is a target geometry in pixels.
type Size struct {
	Width  int
	Height int
}

var sizes = map[Kind]Size{
	KindPlayer:  {Width: 300, Height: 400},
	KindManager: {Width: 300, Height: 400},
	KindTrophy:  {Width: 400, Height: 300},
}

// SizeOf returns the target geometry for kind.
func SizeOf(kind Kind) (Size, bool) {
	s, ok := sizes[kind]
	return s, ok
}

// Config bounds processor inputs and concurrency.
type Config struct {
	// MaxBytes rejects larger inputs before decoding.
	MaxBytes int64
	// MaxPixels rejects inputs whose decoded width*height is larger.
	MaxPixels int
	// Quality is the WEBP quality, 1-100. Default: 85
	Quality int
	// Workers is the number of concurrent decode/encode jobs. Default: NumCPU
	Workers int
}

// Processor produces WEBP renditions.
type Processor struct {
	cfg      Config
	sem      *semaphore.Weighted
	analyzer smartcrop.Analyzer
}

// New creates a Processor, applying defaults to zero fields.
func New(cfg Config) *Processor {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Processor{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		analyzer: smartcrop.NewAnalyzer(nfnt.NewDefaultResizer()),
	}
}

// Process converts data into the rendition for kind. It waits for a worker
// slot, so ctx bounds the total time spent.
func (p *Processor) Process(ctx context.Context, data []byte, kind Kind) ([]byte, error) {
	size, ok := sizes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if p.cfg.MaxBytes > 0 && int64(len(data)) > p.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), p.cfg.MaxBytes)
	}

	// Check the header before allocating the full bitmap.
	hdr, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrInvalidImage, format)
	}
	if hdr.Width > maxDimension || hdr.Height > maxDimension ||
		(p.cfg.MaxPixels > 0 && hdr.Width*hdr.Height > p.cfg.MaxPixels) {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, hdr.Width, hdr.Height)
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := p.fit(src, size)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, out, &webp.Options{Quality: float32(p.cfg.Quality)}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	encoded := buf.Bytes()
	if !IsWebP(encoded) {
		return nil, fmt.Errorf("%w: output is not webp", ErrEncode)
	}
	return encoded, nil
}

// fit crops src to the target aspect ratio around its most salient region
// and scales it to size.
func (p *Processor) fit(src image.Image, size Size) image.Image {
	nrgba := imaging.Clone(src)

	crop, err := p.analyzer.FindBestCrop(nrgba, size.Width, size.Height)
	if err != nil || crop.Empty() {
		return imaging.Fill(nrgba, size.Width, size.Height, imaging.Center, imaging.Lanczos)
	}
	cropped := imaging.Crop(nrgba, crop)
	return imaging.Resize(cropped, size.Width, size.Height, imaging.Lanczos)
}

// IsWebP reports whether data starts with a RIFF/WEBP container header.
func IsWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
