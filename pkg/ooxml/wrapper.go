package ooxml

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	breakTag     = regexp.MustCompile(`<w:(br|cr)\b[^>]*/>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
)

// DocxText 读取已写出的 DOCX 正文纯文本，段落之间以换行分隔，
// 用于生成后独立检查遗留的占位符
func DocxText(filePath string) (string, error) {
	reader, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", fmt.Errorf("打开DOCX文件失败: %w", err)
	}
	defer reader.Close()

	return xmlToText(reader.Editable().GetContent()), nil
}

func xmlToText(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = breakTag.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}
