package ooxml

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

const (
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsOfficeRels    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	RelTypeImage       = nsOfficeRels + "/image"
	RelTypeCustomProps = nsOfficeRels + "/custom-properties"

	emptyRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="` + nsRelationships + `"></Relationships>`
)

// Relationship 部件关系
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// relsPartName 返回部件对应的关系部件名称，owner 为空时是包级关系
func relsPartName(owner string) string {
	dir, base := path.Split(owner)
	return dir + "_rels/" + base + ".rels"
}

// Relationships 返回部件的所有关系
func (d *Document) Relationships(owner string) ([]Relationship, error) {
	name := relsPartName(owner)
	if !d.Has(name) {
		return nil, nil
	}
	doc, err := d.XML(name)
	if err != nil {
		return nil, err
	}

	var rels []Relationship
	for _, el := range doc.Root().SelectElements("Relationship") {
		rels = append(rels, Relationship{
			ID:         el.SelectAttrValue("Id", ""),
			Type:       el.SelectAttrValue("Type", ""),
			Target:     el.SelectAttrValue("Target", ""),
			TargetMode: el.SelectAttrValue("TargetMode", ""),
		})
	}
	return rels, nil
}

// ResolveRelationship 根据关系 ID 返回目标部件名称
func (d *Document) ResolveRelationship(owner, id string) (string, error) {
	rels, err := d.Relationships(owner)
	if err != nil {
		return "", err
	}
	for _, rel := range rels {
		if rel.ID == id {
			if rel.TargetMode == "External" {
				return rel.Target, nil
			}
			return resolveTarget(owner, rel.Target), nil
		}
	}
	return "", fmt.Errorf("%w: %s#%s", ErrPartNotFound, owner, id)
}

// AddRelationship 为部件新增关系并返回新的关系 ID
func (d *Document) AddRelationship(owner, relType, targetPart string) (string, error) {
	name := relsPartName(owner)
	doc, err := d.xmlOrCreate(name, emptyRels)
	if err != nil {
		return "", err
	}
	root := doc.Root()

	used := make(map[string]bool)
	maxID := 0
	for _, el := range root.SelectElements("Relationship") {
		id := el.SelectAttrValue("Id", "")
		used[id] = true
		if n, ok := strings.CutPrefix(id, "rId"); ok {
			if v, err := strconv.Atoi(n); err == nil && v > maxID {
				maxID = v
			}
		}
	}
	id := fmt.Sprintf("rId%d", maxID+1)
	for used[id] {
		maxID++
		id = fmt.Sprintf("rId%d", maxID+1)
	}

	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", relativeTarget(path.Dir(owner), targetPart))
	d.touch(name)
	return id, nil
}
