package processor

import (
	"fmt"

	"github.com/allanpk716/docfill/internal/domain"
)

// RewriteToken 用 value 替换段落中的一个占位符。
// 第一个 run 保留前缀并写入值，中间的 run 清空但不删除，最后一个 run 只保留后缀，
// 各 run 的格式属性不变。同一段落有多个占位符时应从后往前调用
func RewriteToken(p domain.Paragraph, tok domain.Token, value string) error {
	if len(tok.Fragments) == 0 {
		return fmt.Errorf("%w: %s 没有 run 片段", domain.ErrSpanOutsideParagraph, tok.Raw)
	}
	texts := p.Texts()
	for i, f := range tok.Fragments {
		if f.Run < 0 || f.Run >= len(texts) || f.Start < 0 || f.End > len(texts[f.Run]) || f.Start > f.End {
			return fmt.Errorf("%w: %s run %d [%d,%d)", domain.ErrSpanOutsideParagraph, tok.Raw, f.Run, f.Start, f.End)
		}
		if i > 0 && f.Run <= tok.Fragments[i-1].Run {
			return fmt.Errorf("%w: %s run 顺序错误", domain.ErrSpanOutsideParagraph, tok.Raw)
		}
	}

	first, last := tok.First(), tok.Last()
	if first.Run == last.Run {
		t := texts[first.Run]
		return p.SetRunText(first.Run, t[:first.Start]+value+t[last.End:])
	}

	// 先改后面的 run，pptx 多行值会在第一个 run 之后插入新 run
	if err := p.SetRunText(last.Run, texts[last.Run][last.End:]); err != nil {
		return err
	}
	for _, f := range tok.Fragments[1 : len(tok.Fragments)-1] {
		rest := texts[f.Run][:f.Start] + texts[f.Run][f.End:]
		if err := p.SetRunText(f.Run, rest); err != nil {
			return err
		}
	}
	return p.SetRunText(first.Run, texts[first.Run][:first.Start]+value)
}
