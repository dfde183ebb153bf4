// Package codec loads and saves pixel buffers in common raster formats.
//
// Decoding sniffs the stream's signature instead of relying on the
// image.RegisterFormat table, so formats without a signature (TGA) never
// shadow the ones that have one.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/gogpu/euclase/pixel"
)

// Format names a file format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	WebP Format = "webp"
	TGA  Format = "tga"
)

// ErrUnknownFormat is returned for unrecognized extensions and streams.
var ErrUnknownFormat = errors.New("codec: unknown format")

var extensions = map[string]Format{
	".png":  PNG,
	".jpg":  JPEG,
	".jpeg": JPEG,
	".gif":  GIF,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".webp": WebP,
	".tga":  TGA,
}

// FormatFromPath returns the format implied by the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnknownFormat, ext)
}

// Sniff identifies a format from the first bytes of a file. TGA has no
// signature and is never sniffed.
func Sniff(head []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		return PNG, true
	case bytes.HasPrefix(head, []byte("\xff\xd8")):
		return JPEG, true
	case bytes.HasPrefix(head, []byte("GIF8")):
		return GIF, true
	case bytes.HasPrefix(head, []byte("BM")):
		return BMP, true
	case bytes.HasPrefix(head, []byte("II*\x00")), bytes.HasPrefix(head, []byte("MM\x00*")):
		return TIFF, true
	case len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WEBP":
		return WebP, true
	}
	return "", false
}

var decoders = map[Format]func(io.Reader) (image.Image, error){
	PNG:  png.Decode,
	JPEG: jpeg.Decode,
	GIF:  gif.Decode,
	BMP:  bmp.Decode,
	TIFF: tiff.Decode,
	WebP: webp.Decode,
	TGA:  tga.Decode,
}

// Decode reads an image. The format is sniffed from the stream; hint is
// used when sniffing fails, which is how TGA files are read. An empty hint
// means no fallback.
func Decode(r io.Reader, hint Format) (image.Image, Format, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(12)
	f, ok := Sniff(head)
	if !ok {
		if hint == "" {
			return nil, "", ErrUnknownFormat
		}
		f = hint
	}
	dec, ok := decoders[f]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	img, err := dec(br)
	if err != nil {
		return nil, f, fmt.Errorf("codec: decode %s: %w", f, err)
	}
	return img, f, nil
}

// Options tune encoding.
type Options struct {
	// Quality is the JPEG quality, 1..100. Zero selects jpeg.DefaultQuality.
	Quality int
}

// Encode writes img in format f. opts may be nil.
func Encode(w io.Writer, img image.Image, f Format, opts *Options) error {
	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		q := jpeg.DefaultQuality
		if opts != nil && opts.Quality > 0 {
			q = min(opts.Quality, 100)
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	case GIF:
		err = gif.Encode(w, img, nil)
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	case TGA:
		err = tga.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("codec: encode %s: %w", f, err)
	}
	return nil
}

// Load decodes the file at path into a host buffer of format pf.
func Load(path string, pf pixel.Format) (*pixel.Buffer, error) {
	hint, _ := FormatFromPath(path)
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	defer fh.Close()

	img, _, err := Decode(fh, hint)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return pixel.FromImage(img, pf)
}

// Save encodes buf to path in the format implied by its extension.
// Grayscale buffers without alpha are written as gray images.
func Save(path string, buf *pixel.Buffer, opts *Options) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	img, err := Image(buf)
	if err != nil {
		return err
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if err := Encode(fh, img, f, opts); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// Image returns buf as an image.Image suitable for encoding: *image.Gray
// for alpha-less grayscale formats, *image.NRGBA otherwise.
func Image(buf *pixel.Buffer) (image.Image, error) {
	if buf.Format().IsGrayscale() && !buf.Format().HasAlpha() {
		return buf.ToGray()
	}
	return buf.ToNRGBA()
}
