package chart

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestHistogram(t *testing.T) {
	s := Histogram(100)
	require.Len(t, s.Labels, 13)
	require.Len(t, s.Values, 13)
	assert.Equal(t, "Septembre 1 à 7", s.Labels[8])
	assert.InDelta(t, 75, s.Values[0], 1e-9)
	assert.InDelta(t, 125, s.Values[10], 1e-9)
}

func TestRender(t *testing.T) {
	opts := DefaultOptions()
	data, err := Render(Histogram(120), opts)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, opts.Width, opts.Height), img.Bounds())

	// 第六个柱（系数最高）底部中心为柱颜色
	area, ok := opts.plotArea(13)
	require.True(t, ok)
	slot := float64(area.Dx()) / 13
	cx := area.Min.X + int(slot*5.5)
	got := color.RGBAModel.Convert(img.At(cx, area.Max.Y-5)).(color.RGBA)
	assert.Equal(t, opts.Bar, got)

	got = color.RGBAModel.Convert(img.At(opts.Width-2, opts.Height-2)).(color.RGBA)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, got)
}

func TestDraw_Errors(t *testing.T) {
	_, err := Draw(Series{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = Draw(Series{Labels: []string{"a"}, Values: []float64{1, 2}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrLengthMismatch)

	one := Series{Labels: []string{"a"}, Values: []float64{1}}
	small := DefaultOptions()
	small.Width, small.Height = 50, 50
	_, err = Draw(one, small)
	assert.ErrorIs(t, err, ErrTooSmall)

	// 宽度足够但没有绘图高度
	flat := DefaultOptions()
	flat.Height = marginTop + marginBottom
	_, err = Draw(one, flat)
	assert.ErrorIs(t, err, ErrTooSmall)

	// 刚好每根柱子一个像素
	narrow := DefaultOptions()
	narrow.Width = marginLeft + marginRight + 2
	_, err = Draw(Series{Labels: []string{"a", "b", "c"}, Values: []float64{1, 2, 3}}, narrow)
	assert.ErrorIs(t, err, ErrTooSmall)
	narrow.Width++
	img, err := Draw(Series{Labels: []string{"a", "b", "c"}, Values: []float64{1, 2, 3}}, narrow)
	require.NoError(t, err)
	assert.Equal(t, narrow.Width, img.Bounds().Dx())
}

func TestDraw_AllZero(t *testing.T) {
	_, err := Draw(Series{Labels: []string{"a", "b"}, Values: []float64{0, 0}}, DefaultOptions())
	assert.NoError(t, err)
}

func TestParseRowRange(t *testing.T) {
	tests := []struct {
		in       string
		expected RowRange
		wantErr  bool
	}{
		{"B4:N4", RowRange{Row: 4, ColStart: 2, ColEnd: 14}, false},
		{"C5", RowRange{Row: 5, ColStart: 3, ColEnd: 3}, false},
		{"N4:B4", RowRange{Row: 4, ColStart: 2, ColEnd: 14}, false},
		{"AA1:AB1", RowRange{Row: 1, ColStart: 27, ColEnd: 28}, false},
		{"B4:N5", RowRange{}, true},
		{"", RowRange{}, true},
		{"4B", RowRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRowRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1234.5, ParseAmount("1\u202f234,50 €"))
	assert.Equal(t, 80.0, ParseAmount(" 80 "))
	assert.Equal(t, 0.0, ParseAmount("n/a"))
}

func TestLoadSeries(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for i, v := range []any{"Janvier", "Février", "Mars"} {
		cell, _ := excelize.CoordinatesToCellName(2+i, 4)
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	for i, v := range []any{"1 000 €", 950.5, "n/a"} {
		cell, _ := excelize.CoordinatesToCellName(2+i, 5)
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	path := filepath.Join(t.TempDir(), "revenus.xlsx")
	require.NoError(t, f.SaveAs(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	s, err := LoadSeries(file, "Sheet1", "B4:D4", "B5:D5")
	require.NoError(t, err)
	assert.Equal(t, []string{"Janvier", "Février", "Mars"}, s.Labels)
	assert.Equal(t, []float64{1000, 950.5, 0}, s.Values)

	_, err = file.Seek(0, 0)
	require.NoError(t, err)
	_, err = LoadSeries(file, "Sheet1", "B4:D4", "B5:C5")
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
