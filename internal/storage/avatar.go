package storage

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	AvatarMaxSize     = 512
	AvatarWebPQuality = 80
	AvatarContentType = "image/webp"
	// maxAvatarPixels bounds decode memory for hostile headers
	maxAvatarPixels = 40_000_000
)

var (
	ErrEmptyImage       = errors.New("no file uploaded")
	ErrImageTooLarge    = errors.New("file too large")
	ErrUnsupportedImage = errors.New("invalid image type")
	ErrCorruptImage     = errors.New("invalid image file")
	ErrContentMismatch  = errors.New("image content type mismatch")
)

// Avatar is a processed profile picture ready for upload.
type Avatar struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// ProcessAvatar sniffs and decodes an upload, crops it to a centred square,
// scales it down to AvatarMaxSize and re-encodes it as WebP. maxBytes <= 0
// disables the size check.
func ProcessAvatar(content []byte, providedType string, maxBytes int64) (*Avatar, error) {
	if len(content) == 0 {
		return nil, ErrEmptyImage
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, ErrImageTooLarge
	}

	detected := http.DetectContentType(content)
	if !isAllowedImageMIME(detected) {
		return nil, ErrUnsupportedImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, ErrCorruptImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxAvatarPixels {
		return nil, ErrCorruptImage
	}
	if provided := normalizeContentType(providedType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, ErrContentMismatch
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, ErrCorruptImage
	}

	x, y, side := centerSquare(decoded.Bounds().Dx(), decoded.Bounds().Dy())
	square := cropToRect(decoded, decoded.Bounds().Min.X+x, decoded.Bounds().Min.Y+y, side, side)
	out := resizeToFit(square, AvatarMaxSize, AvatarMaxSize)

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, out, &webp.Options{Quality: AvatarWebPQuality}); err != nil {
		return nil, err
	}
	return &Avatar{
		Data:        buf.Bytes(),
		ContentType: AvatarContentType,
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
	}, nil
}

func centerSquare(w, h int) (x, y, side int) {
	if w > h {
		return (w - h) / 2, 0, h
	}
	return 0, (h - w) / 2, w
}

func cropToRect(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
