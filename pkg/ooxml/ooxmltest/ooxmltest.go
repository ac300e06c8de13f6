// Package ooxmltest 构造测试用的最小 .pptx / .docx 文档
package ooxmltest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// 演示文稿的幻灯片尺寸 (16:9, EMU)
const (
	SlideWidth  = 12192000
	SlideHeight = 6858000
)

type file struct {
	name string
	data []byte
}

// Package 内存中的 OOXML 压缩包
type Package struct {
	files []file
}

// Add 追加或覆盖一个部件
func (p *Package) Add(name string, data []byte) *Package {
	for i, f := range p.files {
		if f.name == name {
			p.files[i].data = data
			return p
		}
	}
	p.files = append(p.files, file{name, data})
	return p
}

// Bytes 返回压缩包数据
func (p *Package) Bytes() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range p.files {
		w, err := zw.Create(f.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(f.data); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WriteFile 将压缩包写入 dir/name 并返回路径
func (p *Package) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, p.Bytes(), 0o644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}
	return path
}

// NewPptx 创建演示文稿，每个参数是一张幻灯片 p:spTree 的内容；
// 每张幻灯片的 rId2 指向 ppt/media/image1.png
func NewPptx(slides ...string) *Package {
	var ct, presRels, sldIDs strings.Builder
	ct.WriteString(xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	presRels.WriteString(xmlHeader + `<Relationships xmlns="` + nsRel + `">`)

	p := &Package{}
	p.Add("[Content_Types].xml", nil)
	p.Add("_rels/.rels", []byte(xmlHeader+`<Relationships xmlns="`+nsRel+`">`+
		`<Relationship Id="rId1" Type="`+nsR+`/officeDocument" Target="ppt/presentation.xml"/></Relationships>`))

	for i, body := range slides {
		n := i + 1
		fmt.Fprintf(&ct, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, n)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%s/slide" Target="slides/slide%d.xml"/>`, n+1, nsR, n)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n+1)

		p.Add(fmt.Sprintf("ppt/slides/slide%d.xml", n), []byte(xmlHeader+
			`<p:sld xmlns:a="`+nsA+`" xmlns:r="`+nsR+`" xmlns:p="`+nsP+`"><p:cSld><p:spTree>`+
			`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`+
			body+`</p:spTree></p:cSld></p:sld>`))
		p.Add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), []byte(xmlHeader+
			`<Relationships xmlns="`+nsRel+`">`+
			`<Relationship Id="rId1" Type="`+nsR+`/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`+
			`<Relationship Id="rId2" Type="`+nsR+`/image" Target="../media/image1.png"/>`+
			`</Relationships>`))
	}
	ct.WriteString(`</Types>`)
	presRels.WriteString(`</Relationships>`)

	p.Add("[Content_Types].xml", []byte(ct.String()))
	p.Add("ppt/presentation.xml", []byte(xmlHeader+
		`<p:presentation xmlns:a="`+nsA+`" xmlns:r="`+nsR+`" xmlns:p="`+nsP+`"><p:sldIdLst>`+
		sldIDs.String()+fmt.Sprintf(`</p:sldIdLst><p:sldSz cx="%d" cy="%d"/></p:presentation>`, SlideWidth, SlideHeight)))
	p.Add("ppt/_rels/presentation.xml.rels", []byte(presRels.String()))
	p.Add("ppt/media/image1.png", PNG(4, 4, color.RGBA{200, 200, 200, 255}))
	return p
}

// NewDocx 创建文字处理文档，body 为 w:body 的内容；
// document.xml 的 rId2 指向 word/media/image1.png
func NewDocx(body string) *Package {
	p := &Package{}
	p.Add("[Content_Types].xml", []byte(xmlHeader+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
		`<Default Extension="xml" ContentType="application/xml"/>`+
		`<Default Extension="png" ContentType="image/png"/>`+
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`+
		`</Types>`))
	p.Add("_rels/.rels", []byte(xmlHeader+`<Relationships xmlns="`+nsRel+`">`+
		`<Relationship Id="rId1" Type="`+nsR+`/officeDocument" Target="word/document.xml"/></Relationships>`))
	p.Add("word/document.xml", []byte(xmlHeader+
		`<w:document xmlns:w="`+nsW+`" xmlns:r="`+nsR+`" xmlns:wp="`+nsWP+`" xmlns:a="`+nsA+`" xmlns:pic="`+nsPic+`">`+
		`<w:body>`+body+`</w:body></w:document>`))
	p.Add("word/_rels/document.xml.rels", []byte(xmlHeader+`<Relationships xmlns="`+nsRel+`">`+
		`<Relationship Id="rId2" Type="`+nsR+`/image" Target="media/image1.png"/></Relationships>`))
	p.Add("word/media/image1.png", PNG(4, 4, color.RGBA{200, 200, 200, 255}))
	return p
}

// WithWordHeader 为文字处理文档追加页眉部件，body 为 w:hdr 的内容
func (p *Package) WithWordHeader(name, body string) *Package {
	return p.Add(name, []byte(xmlHeader+`<w:hdr xmlns:w="`+nsW+`" xmlns:r="`+nsR+`">`+body+`</w:hdr>`))
}

// TextShape 幻灯片文本框，每个段落由若干 run 文本组成
func TextShape(id int, name string, paragraphs ...[]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, esc(name))
	sb.WriteString(`<p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="3000000" cy="1000000"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`)
	sb.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, runs := range paragraphs {
		sb.WriteString(SlideParagraph(runs...))
	}
	sb.WriteString(`</p:txBody></p:sp>`)
	return sb.String()
}

// SlideParagraph 幻灯片段落，每个 run 使用不同的字号便于验证格式保留
func SlideParagraph(runs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<a:p>`)
	for i, r := range runs {
		fmt.Fprintf(&sb, `<a:r><a:rPr lang="fr-FR" sz="%d" dirty="0"/><a:t>%s</a:t></a:r>`, 1000+i*100, esc(r))
	}
	sb.WriteString(`<a:endParaRPr lang="fr-FR"/></a:p>`)
	return sb.String()
}

// Picture 幻灯片图片形状，descr 为替代文字
func Picture(id int, name, descr string, x, y, cx, cy int64) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s" descr="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
		`<p:blipFill><a:blip r:embed="rId2"/><a:srcRect l="10000" r="10000"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		id, esc(name), esc(descr), x, y, cx, cy)
}

// MaskShape 带椭圆遮罩和纯色填充的自选图形
func MaskShape(id int, name string, x, y, cx, cy int64) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="ellipse"><a:avLst/></a:prstGeom>`+
		`<a:solidFill><a:srgbClr val="FF0000"/></a:solidFill><a:ln><a:noFill/></a:ln></p:spPr></p:sp>`,
		id, esc(name), x, y, cx, cy)
}

// Group 组合形状
func Group(id int, name string, children ...string) string {
	return fmt.Sprintf(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="%s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:grpSp>`,
		id, esc(name), strings.Join(children, ""))
}

// WordParagraph 文字处理段落，每个 run 带粗体格式
func WordParagraph(runs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<w:p><w:pPr><w:jc w:val="left"/></w:pPr>`)
	for _, r := range runs {
		fmt.Fprintf(&sb, `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r>`, esc(r))
	}
	sb.WriteString(`</w:p>`)
	return sb.String()
}

// WordTable 单元格内含段落的表格
func WordTable(cells ...string) string {
	var sb strings.Builder
	sb.WriteString(`<w:tbl><w:tr>`)
	for _, c := range cells {
		sb.WriteString(`<w:tc>` + WordParagraph(c) + `</w:tc>`)
	}
	sb.WriteString(`</w:tr></w:tbl>`)
	return sb.String()
}

// WordPicture 包含内嵌图片的段落
func WordPicture(id int, name, descr string, cx, cy int64) string {
	return fmt.Sprintf(`<w:p><w:r><w:drawing><wp:inline><wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="%s" descr="%s"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:pic>`+
		`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		cx, cy, id, esc(name), esc(descr), id, esc(name), cx, cy)
}

// PNG 生成纯色 PNG 图片
func PNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func esc(s string) string {
	return html.EscapeString(s)
}
