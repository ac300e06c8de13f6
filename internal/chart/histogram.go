package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/allanpk716/docfill/internal/mapping"
)

var (
	ErrEmptySeries    = errors.New("图表数据为空")
	ErrLengthMismatch = errors.New("标签和数值数量不一致")
	ErrTooSmall       = errors.New("图表尺寸过小")
)

// Series 柱状图数据
type Series struct {
	Title  string
	Labels []string
	Values []float64
}

// Histogram 按季节系数生成夜间价格直方图数据
func Histogram(base float64) Series {
	return Series{
		Title:  mapping.HistogramTitle,
		Labels: append([]string(nil), mapping.SeasonLabels...),
		Values: mapping.NightlyPrices(base),
	}
}

// Options 渲染参数
type Options struct {
	Width      int
	Height     int
	Background color.Color
	Bar        color.RGBA
	Edge       color.RGBA
	Grid       color.RGBA
	Text       color.RGBA
}

// DefaultOptions 默认 1200x600 白底蓝色柱
func DefaultOptions() Options {
	return Options{
		Width:      1200,
		Height:     600,
		Background: color.White,
		Bar:        color.RGBA{0x2F, 0x55, 0x97, 0xff},
		Edge:       color.RGBA{0x1F, 0x3A, 0x6D, 0xff},
		Grid:       color.RGBA{0xD9, 0xD9, 0xD9, 0xff},
		Text:       color.RGBA{0x1F, 0x1F, 0x1F, 0xff},
	}
}

const (
	marginLeft   = 80
	marginRight  = 20
	marginTop    = 50
	marginBottom = 60
	gridLines    = 5
)

// plotArea 返回绘图区域；宽度不足以放下 bars 根柱子或高度为零时 ok 为 false
func (o Options) plotArea(bars int) (area image.Rectangle, ok bool) {
	w := o.Width - marginLeft - marginRight
	h := o.Height - marginTop - marginBottom
	if w < bars || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(marginLeft, marginTop, marginLeft+w, marginTop+h), true
}

// Render 渲染为 PNG
func Render(s Series, opts Options) ([]byte, error) {
	img, err := Draw(s, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码图表失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Draw 绘制柱状图
func Draw(s Series, opts Options) (*image.RGBA, error) {
	if len(s.Values) == 0 {
		return nil, ErrEmptySeries
	}
	if len(s.Labels) != len(s.Values) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(s.Labels), len(s.Values))
	}
	area, ok := opts.plotArea(len(s.Values))
	if !ok {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooSmall, opts.Width, opts.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	top := axisMax(s.Values)
	yOf := func(v float64) int {
		return area.Max.Y - int(math.Round(v/top*float64(area.Dy())))
	}

	for i := 0; i <= gridLines; i++ {
		v := top * float64(i) / gridLines
		y := yOf(v)
		fill(img, image.Rect(area.Min.X, y, area.Max.X, y+1), opts.Grid)
		label := mapping.FormatAmount(math.Round(v))
		text(img, label, area.Min.X-8-measure(label), y+4, opts.Text)
	}

	slot := float64(area.Dx()) / float64(len(s.Values))
	barWidth := max(1, int(slot*0.75))
	for i, v := range s.Values {
		cx := area.Min.X + int(slot*(float64(i)+0.5))
		x0 := cx - barWidth/2
		bar := image.Rect(x0, yOf(max(v, 0)), x0+barWidth, area.Max.Y)
		fill(img, bar, opts.Edge)
		fill(img, bar.Inset(1), opts.Bar)

		value := mapping.FormatAmount(v)
		text(img, value, cx-measure(value)/2, bar.Min.Y-6, opts.Text)

		// 标签较长，交错排成两行
		row := area.Max.Y + 18 + (i%2)*18
		text(img, s.Labels[i], cx-measure(s.Labels[i])/2, row, opts.Text)
	}

	fill(img, image.Rect(area.Min.X, area.Min.Y, area.Min.X+1, area.Max.Y+1), opts.Text)
	fill(img, image.Rect(area.Min.X, area.Max.Y, area.Max.X, area.Max.Y+1), opts.Text)

	// 标题加粗：错位绘制两次
	text(img, s.Title, marginLeft, marginTop/2+4, opts.Text)
	text(img, s.Title, marginLeft+1, marginTop/2+4, opts.Text)
	return img, nil
}

// axisMax 纵轴上限：最大值上浮 15%，全为 0 时取 1
func axisMax(values []float64) float64 {
	top := 0.0
	for _, v := range values {
		top = max(top, v)
	}
	if top <= 0 {
		return 1
	}
	return top * 1.15
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

func measure(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

func text(img *image.RGBA, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
