package ooxml

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
)

var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// IsLegacy 判断数据是否为 OLE 复合文档 (.doc/.ppt/.xls)
func IsLegacy(data []byte) bool {
	return bytes.HasPrefix(data, oleSignature)
}

// LegacyInfo 旧版二进制文档的基本信息
type LegacyInfo struct {
	Format string
	Title  string
	Author string
}

func (li LegacyInfo) String() string {
	var parts []string
	if li.Format != "" {
		parts = append(parts, "格式 "+li.Format)
	}
	if li.Title != "" {
		parts = append(parts, "标题 "+li.Title)
	}
	if li.Author != "" {
		parts = append(parts, "作者 "+li.Author)
	}
	if len(parts) == 0 {
		return "未知的 OLE 文档"
	}
	return strings.Join(parts, ", ")
}

// DescribeLegacy 读取 OLE 复合文档的流名称和摘要属性，用于给出可读的加载错误
func DescribeLegacy(r io.ReaderAt) (LegacyInfo, error) {
	var info LegacyInfo
	doc, err := mscfb.New(r)
	if err != nil {
		return info, fmt.Errorf("读取 OLE 复合文档失败: %w", err)
	}

	props := msoleps.New()
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "WordDocument":
			info.Format = "doc"
		case "PowerPoint Document":
			info.Format = "ppt"
		case "Workbook", "Book":
			info.Format = "xls"
		}

		if !msoleps.IsMSOLEPS(entry.Initial) {
			continue
		}
		if perr := props.Reset(doc); perr != nil {
			continue
		}
		for _, prop := range props.Property {
			switch prop.Name {
			case "Title":
				info.Title = strings.TrimSpace(prop.String())
			case "Author":
				info.Author = strings.TrimSpace(prop.String())
			}
		}
	}
	return info, nil
}
