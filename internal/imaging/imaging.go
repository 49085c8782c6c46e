package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/Conceptual-Machines/hybridation-api/internal/apperr"
)

const MIMETypePNG = "image/png"

type opaquer interface {
	Opaque() bool
}

// DecodeDataURL decodes a base64 image payload, with or without a
// "data:<mime>;base64," prefix.
func DecodeDataURL(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, apperr.New(apperr.KindBadInput, "imaging.decode_data_url", "missing image payload")
	}
	if _, rest, found := strings.Cut(payload, ","); found {
		payload = rest
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip the padding
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, apperr.Wrap(apperr.KindBadInput, "imaging.decode_data_url", "invalid base64 image payload", err)
		}
	}
	if len(raw) == 0 {
		return nil, apperr.New(apperr.KindBadInput, "imaging.decode_data_url", "empty image payload")
	}
	return raw, nil
}

// NormalizePNG decodes a png, jpeg, gif or webp image and re-encodes it as
// PNG. Images with an alpha channel or a palette lose the alpha channel.
func NormalizePNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, apperr.New(apperr.KindBadInput, "imaging.normalize", "empty image payload")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadInput, "imaging.normalize", "Invalid image file", err)
	}

	if needsFlatten(img) {
		img = dropAlpha(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s image as png: %w", format, err)
	}
	return buf.Bytes(), nil
}

func needsFlatten(img image.Image) bool {
	if _, ok := img.(*image.Paletted); ok {
		return true
	}
	if o, ok := img.(opaquer); ok {
		return !o.Opaque()
	}
	return true
}

// dropAlpha copies img into an NRGBA canvas, forcing every pixel opaque
// while keeping its stored colour.
func dropAlpha(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}

// DataURL renders an image as a data URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = MIMETypePNG
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsImageContentType reports whether a declared content type is an image type.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
