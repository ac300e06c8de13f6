package processor

import (
	"fmt"
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/mapping"
	"github.com/allanpk716/docfill/internal/matcher"
	"github.com/allanpk716/docfill/internal/report"
	"github.com/allanpk716/docfill/pkg/ooxml"
)

// signaturePlace 委托书签署地点行
const signaturePlace = "Fait à Paris, le"

// Pass 占位符替换之后收尾步骤可访问的状态
type Pass struct {
	Request    domain.Request
	Paragraphs []*ooxml.Paragraph
	Report     *report.Builder

	consumed map[string]bool
}

// Consume 记录收尾步骤使用了某个映射条目
func (p *Pass) Consume(name string) {
	p.consumed[domain.CanonicalName(name)] = true
	p.Report.Replaced(name)
}

// Finisher 在常规替换之后对文档做补充处理
type Finisher func(p *Pass) error

// DefaultFinishers 各文档类型默认的收尾步骤
func DefaultFinishers(kind domain.Kind) []Finisher {
	if kind == domain.KindMandate {
		return []Finisher{ReplaceBareSignatureTokens, InjectSignatureDate}
	}
	return nil
}

// bareSignatureTokens 长名称在前，避免短名称匹配到长名称内部
var bareSignatureTokens = []string{
	mapping.SignatureFullToken,
	mapping.SignatureMonthToken,
	mapping.SignatureDayToken,
}

// ReplaceBareSignatureTokens 替换模板中没有定界符的签署日期字段名
func ReplaceBareSignatureTokens(p *Pass) error {
	for _, para := range p.Paragraphs {
		for _, name := range bareSignatureTokens {
			value, ok := p.Request.Mapping.Get(name)
			if !ok {
				continue
			}
			n, err := replaceBareWord(para, name, value)
			if err != nil {
				return fmt.Errorf("替换签署日期字段 %s 失败: %w", name, err)
			}
			for range n {
				p.Consume(name)
			}
		}
	}
	return nil
}

// replaceBareWord 从后往前替换段落中作为独立单词出现的 word，返回替换次数
func replaceBareWord(para *ooxml.Paragraph, word, value string) (int, error) {
	idx := matcher.NewIndex(para.Texts())
	text := idx.Text()

	var starts []int
	for from := 0; ; {
		i := strings.Index(text[from:], word)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(word)
		if isWordBoundary(text, start, end) {
			starts = append(starts, start)
		}
		from = end
	}

	for i := len(starts) - 1; i >= 0; i-- {
		start, end := starts[i], starts[i]+len(word)
		frags, err := idx.Locate(start, end)
		if err != nil {
			return 0, err
		}
		tok := domain.Token{Name: word, Raw: word, Start: start, End: end, Fragments: frags}
		if err := RewriteToken(para, tok, value); err != nil {
			return 0, err
		}
	}
	return len(starts), nil
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	return end >= len(text) || !isWordByte(text[end])
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

// InjectSignatureDate 签署地点行没有日期时补上完整日期
func InjectSignatureDate(p *Pass) error {
	date := p.Request.Mapping.Value(mapping.SignatureFullToken)
	if date == "" {
		return nil
	}
	for _, para := range p.Paragraphs {
		if domain.CanonicalName(para.Text()) != signaturePlace {
			continue
		}
		if err := para.ReplaceText(signaturePlace + " " + date); err != nil {
			return fmt.Errorf("写入签署日期失败: %w", err)
		}
		p.Consume(mapping.SignatureFullToken)
		p.Report.Note(fmt.Sprintf("已补充签署日期: %s", date))
	}
	return nil
}
