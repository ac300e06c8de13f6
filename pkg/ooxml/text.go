package ooxml

import (
	"fmt"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// Paragraph 文档中的一个段落 (w:p 或 a:p)，持有按顺序排列的文本 run
type Paragraph struct {
	doc    *Document
	part   string
	el     *etree.Element
	runs   []*etree.Element
	format Format
}

// Paragraphs 返回所有正文部件中的段落，包括表格、文本框和组合形状中的段落
func (d *Document) Paragraphs() ([]*Paragraph, error) {
	var paras []*Paragraph
	for _, part := range d.TextParts() {
		doc, err := d.XML(part)
		if err != nil {
			return nil, err
		}
		d.walkParagraphs(part, doc.Root(), &paras)
	}
	return paras, nil
}

func (d *Document) walkParagraphs(part string, el *etree.Element, out *[]*Paragraph) {
	if d.isParagraph(el) {
		p := &Paragraph{doc: d, part: part, el: el, format: d.format}
		p.runs = d.collectRuns(el, nil)
		*out = append(*out, p)
	}
	for _, child := range el.ChildElements() {
		d.walkParagraphs(part, child, out)
	}
}

// collectRuns 收集段落中的 run，不进入嵌套段落
func (d *Document) collectRuns(el *etree.Element, runs []*etree.Element) []*etree.Element {
	for _, child := range el.ChildElements() {
		switch {
		case d.isParagraph(child):
		case d.isRun(child):
			runs = append(runs, child)
		default:
			runs = d.collectRuns(child, runs)
		}
	}
	return runs
}

func (d *Document) isParagraph(el *etree.Element) bool {
	if d.format == FormatDocx {
		return el.Space == "w" && el.Tag == "p"
	}
	return el.Space == "a" && el.Tag == "p"
}

func (d *Document) isRun(el *etree.Element) bool {
	if d.format == FormatDocx {
		return el.Space == "w" && el.Tag == "r"
	}
	return el.Space == "a" && (el.Tag == "r" || el.Tag == "fld" || el.Tag == "br")
}

// Part 返回段落所在部件
func (p *Paragraph) Part() string { return p.part }

// Texts 返回每个 run 的文本
func (p *Paragraph) Texts() []string {
	texts := make([]string, len(p.runs))
	for i, r := range p.runs {
		if p.format == FormatDocx {
			texts[i] = wordRunText(r)
		} else {
			texts[i] = drawingRunText(r)
		}
	}
	return texts
}

// Text 返回段落的完整文本
func (p *Paragraph) Text() string {
	return strings.Join(p.Texts(), "")
}

// SetRunText 替换 run 的文本，保留 run 的格式属性；多行文本在 docx 中用 w:br，
// 在 pptx 中拆分为 a:br 加复制格式的新 run
func (p *Paragraph) SetRunText(i int, text string) error {
	if i < 0 || i >= len(p.runs) {
		return fmt.Errorf("run 索引越界: %d", i)
	}
	r := p.runs[i]
	if p.format == FormatDocx {
		setWordRunText(r, text)
		p.doc.touch(p.part)
		return nil
	}

	if r.Tag == "br" {
		if text == "\n" {
			return nil
		}
		return fmt.Errorf("run %d 是换行符，不能写入文本", i)
	}
	lines := strings.Split(text, "\n")
	setDrawingRunText(r, lines[0])
	if len(lines) > 1 {
		inserted := insertDrawingLines(r, lines[1:])
		p.runs = slices.Insert(p.runs, i+1, inserted...)
	}
	p.doc.touch(p.part)
	return nil
}

// ReplaceText 将整段文本写入第一个文本 run，其余 run 清空
func (p *Paragraph) ReplaceText(text string) error {
	first := slices.IndexFunc(p.runs, func(r *etree.Element) bool {
		return p.format == FormatDocx || r.Tag != "br"
	})
	if first < 0 {
		return p.appendRun(text)
	}
	for i := len(p.runs) - 1; i > first; i-- {
		if p.format == FormatPptx && p.runs[i].Tag == "br" {
			continue
		}
		if err := p.SetRunText(i, ""); err != nil {
			return err
		}
	}
	return p.SetRunText(first, text)
}

func (p *Paragraph) appendRun(text string) error {
	var r *etree.Element
	if p.format == FormatDocx {
		r = p.el.CreateElement("w:r")
	} else {
		r = etree.NewElement("a:r")
		r.CreateElement("a:t")
		if end := p.el.SelectElement("a:endParaRPr"); end != nil {
			p.el.InsertChildAt(end.Index(), r)
		} else {
			p.el.AddChild(r)
		}
	}
	p.runs = append(p.runs, r)
	return p.SetRunText(len(p.runs)-1, text)
}

// wordRunText w:t 为文本，w:tab 为制表符，换行类元素为 \n
func wordRunText(r *etree.Element) string {
	var sb strings.Builder
	for _, c := range r.ChildElements() {
		if c.Space != "w" {
			continue
		}
		switch c.Tag {
		case "t":
			sb.WriteString(c.Text())
		case "tab":
			sb.WriteString("\t")
		case "br", "cr":
			if isLineBreak(c) {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func isLineBreak(c *etree.Element) bool {
	if c.Tag == "cr" {
		return true
	}
	t := c.SelectAttrValue("w:type", "")
	return t == "" || t == "textWrapping"
}

func isWordTextContent(c *etree.Element) bool {
	if c.Space != "w" {
		return false
	}
	switch c.Tag {
	case "t", "tab":
		return true
	case "br", "cr":
		return isLineBreak(c)
	}
	return false
}

func setWordRunText(r *etree.Element, text string) {
	pos := -1
	for i := 0; i < len(r.Child); {
		if c, ok := r.Child[i].(*etree.Element); ok && isWordTextContent(c) {
			if pos < 0 {
				pos = i
			}
			r.RemoveChildAt(i)
			continue
		}
		i++
	}
	if pos < 0 {
		pos = len(r.Child)
	}
	for _, el := range wordTextElements(text) {
		r.InsertChildAt(pos, el)
		pos++
	}
}

// wordTextElements 将文本转换为 w:t / w:tab / w:br 序列
func wordTextElements(text string) []*etree.Element {
	var out []*etree.Element
	for li, line := range strings.Split(text, "\n") {
		if li > 0 {
			out = append(out, etree.NewElement("w:br"))
		}
		for si, seg := range strings.Split(line, "\t") {
			if si > 0 {
				out = append(out, etree.NewElement("w:tab"))
			}
			if seg == "" {
				continue
			}
			t := etree.NewElement("w:t")
			if strings.TrimSpace(seg) != seg {
				t.CreateAttr("xml:space", "preserve")
			}
			t.SetText(seg)
			out = append(out, t)
		}
	}
	return out
}

func drawingRunText(r *etree.Element) string {
	if r.Tag == "br" {
		return "\n"
	}
	if t := r.SelectElement("a:t"); t != nil {
		return t.Text()
	}
	return ""
}

func setDrawingRunText(r *etree.Element, text string) {
	t := r.SelectElement("a:t")
	if t == nil {
		t = r.CreateElement("a:t")
	}
	t.SetText(text)
}

// insertDrawingLines 在 run 之后插入 a:br 和复制格式的新 run
func insertDrawingLines(r *etree.Element, lines []string) []*etree.Element {
	parent := r.Parent()
	at := r.Index() + 1
	rPr := r.SelectElement("a:rPr")

	var inserted []*etree.Element
	for _, line := range lines {
		br := etree.NewElement("a:br")
		nr := etree.NewElement("a:r")
		if rPr != nil {
			br.AddChild(rPr.Copy())
			nr.AddChild(rPr.Copy())
		}
		nr.CreateElement("a:t").SetText(line)

		parent.InsertChildAt(at, br)
		parent.InsertChildAt(at+1, nr)
		at += 2
		inserted = append(inserted, br, nr)
	}
	return inserted
}
