package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/allanpk716/docfill/pkg/ooxml"
)

// FitMode 图片适配槽位的方式
type FitMode string

const (
	FitCover   FitMode = "cover"   // 填满槽位，居中裁掉溢出部分
	FitContain FitMode = "contain" // 完整显示，透明留白
	FitStretch FitMode = "stretch" // 拉伸到槽位比例
)

// MaxSide 输出图片最长边的像素上限
const MaxSide = 2400

// ParseFitMode 解析适配方式，无法识别时使用 cover
func ParseFitMode(s string) FitMode {
	switch FitMode(strings.ToLower(strings.TrimSpace(s))) {
	case FitContain:
		return FitContain
	case FitStretch:
		return FitStretch
	}
	return FitCover
}

// Fit 解码图片并按槽位宽高比适配，aspect 为 0 时保持原比例。
// JPEG 来源在 cover/stretch 下仍输出 JPEG，其余输出 PNG
func Fit(data []byte, aspect float64, mode FitMode) (ooxml.Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ooxml.Image{}, fmt.Errorf("无法解码图片: %w", err)
	}
	b := src.Bounds()
	if b.Empty() {
		return ooxml.Image{}, fmt.Errorf("图片尺寸为空")
	}

	var out image.Image
	switch {
	case aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0):
		out = limit(src)
	case mode == FitContain:
		out = contain(src, aspect)
	case mode == FitStretch:
		out = stretch(src, aspect)
	default:
		out = cover(src, aspect)
	}

	if format == "jpeg" && mode != FitContain {
		return encodeJPEG(out)
	}
	return encodePNG(out)
}

// Size 返回图片的像素尺寸，只读取图片头
func Size(data []byte) (image.Point, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Point{}, fmt.Errorf("无法解码图片: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Point{}, fmt.Errorf("图片尺寸为空")
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// CoverRect 返回在 bounds 中居中、宽高比为 aspect 的最大矩形
func CoverRect(bounds image.Rectangle, aspect float64) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	cw, ch := w, h
	if float64(w)/float64(h) > aspect {
		cw = max(1, int(math.Round(float64(h)*aspect)))
	} else {
		ch = max(1, int(math.Round(float64(w)/aspect)))
	}
	x0 := bounds.Min.X + (w-cw)/2
	y0 := bounds.Min.Y + (h-ch)/2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

func cover(src image.Image, aspect float64) image.Image {
	r := CoverRect(src.Bounds(), aspect)
	return resample(src, r, fitSize(r.Dx(), r.Dy()))
}

func stretch(src image.Image, aspect float64) image.Image {
	b := src.Bounds()
	w := b.Dx()
	h := max(1, int(math.Round(float64(w)/aspect)))
	return resample(src, b, fitSize(w, h))
}

func contain(src image.Image, aspect float64) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	cw, ch := w, h
	if float64(w)/float64(h) > aspect {
		ch = max(1, int(math.Round(float64(w)/aspect)))
	} else {
		cw = max(1, int(math.Round(float64(h)*aspect)))
	}

	size := fitSize(cw, ch)
	scale := float64(size.X) / float64(cw)
	iw := max(1, int(math.Round(float64(w)*scale)))
	ih := max(1, int(math.Round(float64(h)*scale)))

	canvas := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	x0, y0 := (size.X-iw)/2, (size.Y-ih)/2
	draw.CatmullRom.Scale(canvas, image.Rect(x0, y0, x0+iw, y0+ih), src, b, draw.Over, nil)
	return canvas
}

func limit(src image.Image) image.Image {
	b := src.Bounds()
	return resample(src, b, fitSize(b.Dx(), b.Dy()))
}

// fitSize 按比例缩小到最长边不超过 MaxSide
func fitSize(w, h int) image.Point {
	longest := max(w, h)
	if longest <= MaxSide {
		return image.Pt(w, h)
	}
	scale := float64(MaxSide) / float64(longest)
	return image.Pt(max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale))))
}

func resample(src image.Image, sr image.Rectangle, size image.Point) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	if size.X == sr.Dx() && size.Y == sr.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sr.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return dst
}

func encodePNG(img image.Image) (ooxml.Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ooxml.Image{}, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return ooxml.Image{Data: buf.Bytes(), Ext: "png"}, nil
}

func encodeJPEG(img image.Image) (ooxml.Image, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return ooxml.Image{}, fmt.Errorf("编码 JPEG 失败: %w", err)
	}
	return ooxml.Image{Data: buf.Bytes(), Ext: "jpeg"}, nil
}
