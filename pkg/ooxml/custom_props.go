package ooxml

import (
	"sort"
	"strconv"

	"github.com/beevik/etree"
)

const (
	customPropsPart        = "docProps/custom.xml"
	customPropsContentType = "application/vnd.openxmlformats-officedocument.custom-properties+xml"
	customPropsFmtID       = "{D5CDD505-2E9C-101B-9397-08002B2CF9AE}"
	nsCustomProps          = "http://schemas.openxmlformats.org/officeDocument/2006/custom-properties"
	nsDocPropsVTypes       = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"

	emptyCustomProps = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Properties xmlns="` + nsCustomProps + `" xmlns:vt="` + nsDocPropsVTypes + `"></Properties>`
)

// CustomProperties 读取文档自定义属性 (docProps/custom.xml)
func (d *Document) CustomProperties() (map[string]string, error) {
	props := make(map[string]string)
	if !d.Has(customPropsPart) {
		return props, nil
	}
	doc, err := d.XML(customPropsPart)
	if err != nil {
		return nil, err
	}
	for _, p := range doc.Root().SelectElements("property") {
		name := p.SelectAttrValue("name", "")
		if v := p.SelectElement("vt:lpwstr"); v != nil {
			props[name] = v.Text()
		}
	}
	return props, nil
}

// SetCustomProperties 写入字符串类型的自定义属性，已有同名属性被更新；
// 部件不存在时创建并登记内容类型和包关系
func (d *Document) SetCustomProperties(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	created := !d.Has(customPropsPart)
	doc, err := d.xmlOrCreate(customPropsPart, emptyCustomProps)
	if err != nil {
		return err
	}
	if created {
		if err := d.ensureOverride(customPropsPart, customPropsContentType); err != nil {
			return err
		}
		if _, err := d.AddRelationship("", RelTypeCustomProps, customPropsPart); err != nil {
			return err
		}
	}

	root := doc.Root()
	existing := make(map[string]*etree.Element)
	maxPID := 1
	for _, p := range root.SelectElements("property") {
		existing[p.SelectAttrValue("name", "")] = p
		if pid, err := strconv.Atoi(p.SelectAttrValue("pid", "")); err == nil && pid > maxPID {
			maxPID = pid
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, ok := existing[name]
		if !ok {
			maxPID++
			p = root.CreateElement("property")
			p.CreateAttr("fmtid", customPropsFmtID)
			p.CreateAttr("pid", strconv.Itoa(maxPID))
			p.CreateAttr("name", name)
		}
		for _, child := range p.ChildElements() {
			p.RemoveChild(child)
		}
		p.CreateElement("vt:lpwstr").SetText(values[name])
	}

	d.touch(customPropsPart)
	return nil
}
