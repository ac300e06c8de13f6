package ooxml

import (
	"strings"
)

const contentTypesPart = "[Content_Types].xml"

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
}

// ensureDefault 确保扩展名有默认内容类型声明
func (d *Document) ensureDefault(ext, contentType string) error {
	doc, err := d.XML(contentTypesPart)
	if err != nil {
		return err
	}
	root := doc.Root()
	for _, def := range root.SelectElements("Default") {
		if strings.EqualFold(def.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}

	def := root.CreateElement("Default")
	def.CreateAttr("Extension", ext)
	def.CreateAttr("ContentType", contentType)
	d.touch(contentTypesPart)
	return nil
}

// ensureOverride 确保部件有覆盖内容类型声明
func (d *Document) ensureOverride(part, contentType string) error {
	doc, err := d.XML(contentTypesPart)
	if err != nil {
		return err
	}
	root := doc.Root()
	partName := "/" + part
	for _, o := range root.SelectElements("Override") {
		if o.SelectAttrValue("PartName", "") == partName {
			return nil
		}
	}

	o := root.CreateElement("Override")
	o.CreateAttr("PartName", partName)
	o.CreateAttr("ContentType", contentType)
	d.touch(contentTypesPart)
	return nil
}
