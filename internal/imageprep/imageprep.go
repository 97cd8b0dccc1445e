package imageprep

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1024
	DefaultQuality      = 80
)

// Options controls how a screenshot is shrunk before upload.
type Options struct {
	MaxDimension int
	Quality      int
}

// Stats describes the effect of compression.
type Stats struct {
	OriginalBytes   int
	CompressedBytes int
	Width           int
	Height          int
}

// ReductionPercent is the size saving relative to the original, rounded.
// It is negative when the JPEG came out larger.
func (s Stats) ReductionPercent() int {
	if s.OriginalBytes == 0 {
		return 0
	}
	saved := float64(s.OriginalBytes-s.CompressedBytes) / float64(s.OriginalBytes) * 100
	if saved < 0 {
		return int(saved - 0.5)
	}
	return int(saved + 0.5)
}

// Prepare decodes a PNG, JPEG, GIF or WebP screenshot, scales it so the
// longer side is at most MaxDimension and re-encodes it as JPEG.
func Prepare(r io.Reader, opts Options) ([]byte, Stats, error) {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to compress image: read: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to compress image: decode: %w", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), opts.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, Stats{}, fmt.Errorf("failed to compress image: encode: %w", err)
	}
	return buf.Bytes(), Stats{
		OriginalBytes:   len(raw),
		CompressedBytes: buf.Len(),
		Width:           w,
		Height:          h,
	}, nil
}

// fit scales (w, h) down so the longer side is at most limit, keeping the
// aspect ratio. Images already within bounds are left alone.
func fit(w, h, limit int) (int, int) {
	if w >= h {
		if w > limit {
			h = h * limit / w
			w = limit
		}
	} else if h > limit {
		w = w * limit / h
		h = limit
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
