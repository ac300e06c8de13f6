package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/pkg/ooxml/ooxmltest"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestParseFitMode(t *testing.T) {
	assert.Equal(t, FitCover, ParseFitMode(""))
	assert.Equal(t, FitCover, ParseFitMode("unknown"))
	assert.Equal(t, FitContain, ParseFitMode(" Contain "))
	assert.Equal(t, FitStretch, ParseFitMode("stretch"))
}

func TestCoverRect(t *testing.T) {
	tests := []struct {
		name     string
		bounds   image.Rectangle
		aspect   float64
		expected image.Rectangle
	}{
		{"wide source", image.Rect(0, 0, 400, 100), 2, image.Rect(100, 0, 300, 100)},
		{"tall source", image.Rect(0, 0, 100, 400), 1, image.Rect(0, 150, 100, 250)},
		{"same ratio", image.Rect(0, 0, 300, 150), 2, image.Rect(0, 0, 300, 150)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CoverRect(tt.bounds, tt.aspect))
		})
	}
}

func TestFit_CoverCropsCenter(t *testing.T) {
	out, err := Fit(ooxmltest.PNG(40, 10, color.RGBA{10, 20, 30, 255}), 1, FitCover)
	require.NoError(t, err)
	assert.Equal(t, "png", out.Ext)

	img := decode(t, out.Data)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestFit_Contain(t *testing.T) {
	out, err := Fit(ooxmltest.PNG(40, 10, color.White), 1, FitContain)
	require.NoError(t, err)

	img := decode(t, out.Data)
	assert.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), a, "留白区域透明")
	_, _, _, a = img.At(20, 20).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestFit_Stretch(t *testing.T) {
	out, err := Fit(ooxmltest.PNG(40, 10, color.White), 2, FitStretch)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), decode(t, out.Data).Bounds())
}

func TestFit_KeepsJPEG(t *testing.T) {
	var buf bytes.Buffer
	src := image.NewRGBA(image.Rect(0, 0, 30, 20))
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	out, err := Fit(buf.Bytes(), 1.5, FitCover)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", out.Ext)

	out, err = Fit(buf.Bytes(), 1, FitContain)
	require.NoError(t, err)
	assert.Equal(t, "png", out.Ext)
}

func TestFit_Downscale(t *testing.T) {
	out, err := Fit(ooxmltest.PNG(MaxSide*2, 10, color.Black), 0, FitCover)
	require.NoError(t, err)
	b := decode(t, out.Data).Bounds()
	assert.Equal(t, MaxSide, b.Dx())
	assert.Equal(t, 5, b.Dy())
}

func TestFit_InvalidData(t *testing.T) {
	_, err := Fit([]byte("not an image"), 1, FitCover)
	assert.Error(t, err)
}

func TestSize(t *testing.T) {
	size, err := Size(ooxmltest.PNG(12, 5, color.White))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(12, 5), size)

	_, err = Size([]byte("pas une image"))
	assert.Error(t, err)
}
