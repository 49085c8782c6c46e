package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/Conceptual-Machines/hybridation-api/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeDataURL(t *testing.T) {
	payload := []byte("hello image")
	encoded := base64.StdEncoding.EncodeToString(payload)

	tests := []struct {
		name  string
		input string
	}{
		{"plain base64", encoded},
		{"data url", "data:image/png;base64," + encoded},
		{"surrounding whitespace", "  " + encoded + "\n"},
		{"no padding", base64.RawStdEncoding.EncodeToString(payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDataURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	for _, input := range []string{"", "data:image/png;base64,", "not base64 !!"} {
		_, err := DecodeDataURL(input)
		require.Error(t, err, input)
		assert.True(t, apperr.IsKind(err, apperr.KindBadInput), input)
	}
}

func TestNormalizePNG_DropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})
	src.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	out, err := NormalizePNG(encodePNG(t, src))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, a := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(100), g>>8)
	assert.Equal(t, uint32(50), b>>8)

	_, _, _, a = decoded.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestNormalizePNG_Paletted(t *testing.T) {
	palette := color.Palette{color.Black, color.White}
	src := image.NewPaletted(image.Rect(0, 0, 3, 3), palette)
	src.SetColorIndex(1, 1, 1)

	out, err := NormalizePNG(encodePNG(t, src))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	_, isPaletted := decoded.(*image.Paletted)
	assert.False(t, isPaletted)
}

func TestNormalizePNG_JPEGBecomesPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	out, err := NormalizePNG(buf.Bytes())
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestNormalizePNG_RejectsNonImage(t *testing.T) {
	_, err := NormalizePNG([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindBadInput))

	_, err = NormalizePNG(nil)
	assert.True(t, apperr.IsKind(err, apperr.KindBadInput))
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,YWJj", DataURL("image/jpeg", []byte("abc")))
	assert.Equal(t, "data:image/png;base64,YWJj", DataURL("", []byte("abc")))
}

func TestIsImageContentType(t *testing.T) {
	assert.True(t, IsImageContentType("image/png"))
	assert.True(t, IsImageContentType("Image/JPEG"))
	assert.False(t, IsImageContentType("application/pdf"))
	assert.False(t, IsImageContentType(""))
}
