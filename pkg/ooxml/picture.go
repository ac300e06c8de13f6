package ooxml

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Offset 形状左上角位置 (EMU)
type Offset struct {
	X, Y int64
}

// defaultSlideSize 演示文稿未声明 p:sldSz 时的 4:3 尺寸
var defaultSlideSize = Extent{Cx: 9144000, Cy: 6858000}

// SlideSize 返回幻灯片尺寸，未声明时返回 4:3 默认尺寸
func (d *Document) SlideSize() Extent {
	doc, err := d.XML("ppt/presentation.xml")
	if err != nil {
		return defaultSlideSize
	}
	sz := findFirst(doc.Root(), "p:sldSz")
	if sz == nil {
		return defaultSlideSize
	}
	if e := parseExtent(sz); e.Valid() {
		return e
	}
	return defaultSlideSize
}

// AddPicture 在幻灯片的形状树末尾追加一张图片 (p:pic)，返回对应的槽位
func (d *Document) AddPicture(part, name string, img Image, off Offset, ext Extent) (*Slot, error) {
	if d.format != FormatPptx {
		return nil, fmt.Errorf("%w: 只能向演示文稿追加图片", ErrUnsupportedFormat)
	}
	if !ext.Valid() {
		return nil, fmt.Errorf("图片尺寸无效: %dx%d", ext.Cx, ext.Cy)
	}
	doc, err := d.XML(part)
	if err != nil {
		return nil, err
	}
	tree := findFirst(doc.Root(), "p:spTree")
	if tree == nil {
		return nil, fmt.Errorf("%w: %s 没有形状树", ErrPartNotFound, part)
	}

	media, err := d.addMedia(img)
	if err != nil {
		return nil, err
	}
	rid, err := d.AddRelationship(part, RelTypeImage, media)
	if err != nil {
		return nil, err
	}
	if err := d.ensureRelNamespace(part); err != nil {
		return nil, err
	}

	pic := tree.CreateElement("p:pic")

	nv := pic.CreateElement("p:nvPicPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(nextShapeID(tree)))
	cNvPr.CreateAttr("name", name)
	nv.CreateElement("p:cNvPicPr").CreateElement("a:picLocks").CreateAttr("noChangeAspect", "1")
	nv.CreateElement("p:nvPr")

	blipFill := pic.CreateElement("p:blipFill")
	blipFill.CreateElement("a:blip").CreateAttr("r:embed", rid)
	blipFill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("p:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	o := xfrm.CreateElement("a:off")
	o.CreateAttr("x", strconv.FormatInt(off.X, 10))
	o.CreateAttr("y", strconv.FormatInt(off.Y, 10))
	e := xfrm.CreateElement("a:ext")
	e.CreateAttr("cx", strconv.FormatInt(ext.Cx, 10))
	e.CreateAttr("cy", strconv.FormatInt(ext.Cy, 10))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	d.touch(part)
	return drawingSlot(part, pic), nil
}

// nextShapeID 返回形状树中未使用的最小递增编号
func nextShapeID(tree *etree.Element) int {
	maxID := 0
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == "cNvPr" {
				if id, err := strconv.Atoi(child.SelectAttrValue("id", "")); err == nil && id > maxID {
					maxID = id
				}
			}
			walk(child)
		}
	}
	walk(tree)
	return maxID + 1
}
