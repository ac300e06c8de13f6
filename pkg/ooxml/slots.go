package ooxml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"
)

// SlotKind 图片槽位的承载方式
type SlotKind int

const (
	SlotPicture SlotKind = iota // p:pic 或 docx 内嵌图片
	SlotShape                   // 可用图片填充的自选图形 (遮罩)
)

func (k SlotKind) String() string {
	if k == SlotShape {
		return "shape"
	}
	return "picture"
}

// Extent 槽位尺寸，单位 EMU
type Extent struct {
	Cx int64
	Cy int64
}

// Valid 判断尺寸是否可用于计算宽高比
func (e Extent) Valid() bool { return e.Cx > 0 && e.Cy > 0 }

// Crop 模板中的 a:srcRect 裁剪，值为各边裁掉的比例
type Crop struct {
	Left, Top, Right, Bottom float64
}

// IsZero 判断是否没有裁剪
func (c Crop) IsZero() bool { return c == Crop{} }

// Image 要写入槽位的图片
type Image struct {
	Data []byte
	Ext  string // png 或 jpeg
}

// Slot 模板中可承载图片的形状，位置和尺寸保持模板原样
type Slot struct {
	Part   string
	Name   string
	Title  string
	Descr  string
	Kind   SlotKind
	Extent Extent
	Crop   Crop
	Masked bool // 带几何遮罩

	el *etree.Element
}

// Tags 返回槽位可用于匹配的标签：形状名称、替代文字标题和描述
func (s *Slot) Tags() []string {
	var tags []string
	for _, t := range []string{s.Name, s.Title, s.Descr} {
		if strings.TrimSpace(t) != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Matches 判断标签是否指向此槽位，比较时忽略大小写和首尾空白；
// 描述中以换行或分号分隔的任意一段也可匹配
func (s *Slot) Matches(tag string) bool {
	want := NormalizeTag(tag)
	if want == "" {
		return false
	}
	if NormalizeTag(s.Name) == want || NormalizeTag(s.Title) == want {
		return true
	}
	for _, seg := range descrSegments(s.Descr) {
		if NormalizeTag(seg) == want {
			return true
		}
	}
	return false
}

// Meta 读取描述中的 key=value 元数据
func (s *Slot) Meta(key string) string {
	for _, seg := range descrSegments(s.Descr) {
		k, v, ok := strings.Cut(seg, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Aspect 返回新图片应有的宽高比；模板裁剪保留不变，
// 因此图片按裁剪后可见区域与形状宽高比一致来计算。尺寸未知时返回 0
func (s *Slot) Aspect() float64 {
	if !s.Extent.Valid() {
		return 0
	}
	fw := 1 - s.Crop.Left - s.Crop.Right
	fh := 1 - s.Crop.Top - s.Crop.Bottom
	if fw <= 0 || fh <= 0 {
		return float64(s.Extent.Cx) / float64(s.Extent.Cy)
	}
	return float64(s.Extent.Cx) / float64(s.Extent.Cy) * fh / fw
}

// Label 返回报告中使用的槽位名称
func (s *Slot) Label() string {
	if tags := s.Tags(); len(tags) > 0 {
		return strings.TrimSpace(tags[0])
	}
	return "<unnamed>"
}

func descrSegments(descr string) []string {
	return strings.FieldsFunc(descr, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ';'
	})
}

// NormalizeTag 槽位标签规范化：NFC、NBSP 和窄 NBSP 转空格、去除首尾空白、转小写
func NormalizeTag(tag string) string {
	tag = norm.NFC.String(tag)
	tag = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(tag)
	return strings.ToLower(strings.TrimSpace(tag))
}

// Slots 枚举所有幻灯片或正文中的图片槽位，包括组合形状和表格中的形状
func (d *Document) Slots() ([]*Slot, error) {
	var slots []*Slot
	for _, part := range d.TextParts() {
		doc, err := d.XML(part)
		if err != nil {
			return nil, err
		}
		d.walkSlots(part, doc.Root(), &slots)
	}
	return slots, nil
}

// FindSlots 返回与标签匹配的所有槽位
func (d *Document) FindSlots(tag string) ([]*Slot, error) {
	slots, err := d.Slots()
	if err != nil {
		return nil, err
	}
	var found []*Slot
	for _, s := range slots {
		if s.Matches(tag) {
			found = append(found, s)
		}
	}
	return found, nil
}

func (d *Document) walkSlots(part string, el *etree.Element, out *[]*Slot) {
	if d.format == FormatPptx && el.Space == "p" && (el.Tag == "pic" || el.Tag == "sp") {
		*out = append(*out, drawingSlot(part, el))
		return
	}
	if d.format == FormatDocx && el.Space == "wp" && (el.Tag == "inline" || el.Tag == "anchor") {
		*out = append(*out, wordSlot(part, el))
		return
	}
	for _, child := range el.ChildElements() {
		d.walkSlots(part, child, out)
	}
}

func drawingSlot(part string, el *etree.Element) *Slot {
	s := &Slot{Part: part, el: el, Kind: SlotPicture}
	if el.Tag == "sp" {
		s.Kind = SlotShape
	}

	if cNvPr := findFirst(el, "p:cNvPr"); cNvPr != nil {
		s.Name = cNvPr.SelectAttrValue("name", "")
		s.Title = cNvPr.SelectAttrValue("title", "")
		s.Descr = cNvPr.SelectAttrValue("descr", "")
	}
	if spPr := el.SelectElement("p:spPr"); spPr != nil {
		if ext := findFirst(spPr, "a:ext"); ext != nil {
			s.Extent = parseExtent(ext)
		}
		s.Masked = spPr.SelectElement("a:custGeom") != nil || isShapedGeometry(spPr.SelectElement("a:prstGeom"))
	}
	if src := findFirst(el, "a:srcRect"); src != nil {
		s.Crop = parseCrop(src)
	}
	return s
}

func wordSlot(part string, el *etree.Element) *Slot {
	s := &Slot{Part: part, el: el, Kind: SlotShape}
	if findFirst(el, "pic:pic") != nil {
		s.Kind = SlotPicture
	}
	if docPr := el.SelectElement("wp:docPr"); docPr != nil {
		s.Name = docPr.SelectAttrValue("name", "")
		s.Title = docPr.SelectAttrValue("title", "")
		s.Descr = docPr.SelectAttrValue("descr", "")
	}
	if ext := el.SelectElement("wp:extent"); ext != nil {
		s.Extent = parseExtent(ext)
	}
	if spPr := findFirst(el, "pic:spPr"); spPr != nil {
		s.Masked = isShapedGeometry(spPr.SelectElement("a:prstGeom")) || spPr.SelectElement("a:custGeom") != nil
	}
	if src := findFirst(el, "a:srcRect"); src != nil {
		s.Crop = parseCrop(src)
	}
	return s
}

func isShapedGeometry(prst *etree.Element) bool {
	return prst != nil && prst.SelectAttrValue("prst", "rect") != "rect"
}

// parseCrop 解析 a:srcRect，属性单位为千分之一百分比
func parseCrop(el *etree.Element) Crop {
	frac := func(key string) float64 {
		v, err := strconv.ParseFloat(el.SelectAttrValue(key, "0"), 64)
		if err != nil {
			return 0
		}
		return v / 100000
	}
	return Crop{Left: frac("l"), Top: frac("t"), Right: frac("r"), Bottom: frac("b")}
}

func parseExtent(el *etree.Element) Extent {
	cx, _ := strconv.ParseInt(el.SelectAttrValue("cx", "0"), 10, 64)
	cy, _ := strconv.ParseInt(el.SelectAttrValue("cy", "0"), 10, 64)
	return Extent{Cx: cx, Cy: cy}
}

// findFirst 深度优先查找第一个匹配的后代元素
func findFirst(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.FullTag() == tag {
			return child
		}
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// ReplaceSlotImage 将图片写入槽位：新增媒体部件和关系，形状的位置、尺寸、遮罩和裁剪不变
func (d *Document) ReplaceSlotImage(s *Slot, img Image) error {
	if _, ok := imageContentTypes[strings.ToLower(strings.TrimPrefix(img.Ext, "."))]; !ok {
		return fmt.Errorf("%w: 图片格式 %s", ErrUnsupportedFormat, img.Ext)
	}
	blipFill, err := d.slotBlipFill(s)
	if err != nil {
		return err
	}

	media, err := d.addMedia(img)
	if err != nil {
		return err
	}
	rid, err := d.AddRelationship(s.Part, RelTypeImage, media)
	if err != nil {
		return err
	}
	if err := d.ensureRelNamespace(s.Part); err != nil {
		return err
	}

	blip := blipFill.SelectElement("a:blip")
	if blip == nil {
		blip = etree.NewElement("a:blip")
		blipFill.InsertChildAt(0, blip)
	}
	blip.CreateAttr("r:embed", rid)
	blip.RemoveAttr("r:link")

	if blipFill.SelectElement("a:stretch") == nil && blipFill.SelectElement("a:tile") == nil {
		blipFill.CreateElement("a:stretch").CreateElement("a:fillRect")
	}

	d.touch(s.Part)
	return nil
}

// slotBlipFill 返回槽位的图片填充元素，自选图形没有图片填充时替换其原有填充
func (d *Document) slotBlipFill(s *Slot) (*etree.Element, error) {
	if d.format == FormatDocx {
		if bf := findFirst(s.el, "pic:blipFill"); bf != nil {
			return bf, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotImageSlot, s.Label())
	}

	if s.Kind == SlotPicture {
		if bf := s.el.SelectElement("p:blipFill"); bf != nil {
			return bf, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotImageSlot, s.Label())
	}

	spPr := s.el.SelectElement("p:spPr")
	if spPr == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotImageSlot, s.Label())
	}
	if bf := spPr.SelectElement("a:blipFill"); bf != nil {
		return bf, nil
	}

	for _, tag := range []string{"a:noFill", "a:solidFill", "a:gradFill", "a:pattFill", "a:grpFill"} {
		if fill := spPr.SelectElement(tag); fill != nil {
			spPr.RemoveChild(fill)
		}
	}
	bf := etree.NewElement("a:blipFill")
	bf.CreateAttr("rotWithShape", "1")
	at := 0
	for _, tag := range []string{"a:xfrm", "a:custGeom", "a:prstGeom"} {
		if el := spPr.SelectElement(tag); el != nil && el.Index()+1 > at {
			at = el.Index() + 1
		}
	}
	spPr.InsertChildAt(at, bf)
	return bf, nil
}

// addMedia 新增图片部件并返回部件名称
func (d *Document) addMedia(img Image) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(img.Ext, "."))
	ct, ok := imageContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: 图片格式 %s", ErrUnsupportedFormat, img.Ext)
	}

	var name string
	for n := 1; ; n++ {
		name = fmt.Sprintf("%sdocfill_%d.%s", d.mediaDir(), n, ext)
		if !d.Has(name) {
			break
		}
	}
	d.put(name, img.Data)
	if err := d.ensureDefault(ext, ct); err != nil {
		return "", err
	}
	return name, nil
}

// ensureRelNamespace 确保部件根元素声明了 r 命名空间前缀
func (d *Document) ensureRelNamespace(part string) error {
	doc, err := d.XML(part)
	if err != nil {
		return err
	}
	root := doc.Root()
	if root.SelectAttr("xmlns:r") == nil {
		root.CreateAttr("xmlns:r", nsOfficeRels)
		d.touch(part)
	}
	return nil
}

// CurrentImage 返回槽位当前引用的图片部件名称，没有图片时返回空字符串
func (d *Document) CurrentImage(s *Slot) string {
	var blip *etree.Element
	if bf, err := d.existingBlipFill(s); err == nil && bf != nil {
		blip = bf.SelectElement("a:blip")
	}
	if blip == nil {
		return ""
	}
	id := blip.SelectAttrValue("r:embed", "")
	if id == "" {
		return ""
	}
	target, err := d.ResolveRelationship(s.Part, id)
	if err != nil {
		return ""
	}
	return target
}

func (d *Document) existingBlipFill(s *Slot) (*etree.Element, error) {
	switch {
	case d.format == FormatDocx:
		return findFirst(s.el, "pic:blipFill"), nil
	case s.Kind == SlotPicture:
		return s.el.SelectElement("p:blipFill"), nil
	}
	if spPr := s.el.SelectElement("p:spPr"); spPr != nil {
		return spPr.SelectElement("a:blipFill"), nil
	}
	return nil, nil
}
