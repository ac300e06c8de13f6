package matcher

import (
	"fmt"
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
)

// Index 段落逻辑文本与 (run, 段内偏移) 之间的双向索引
type Index struct {
	text   string
	starts []int
	lens   []int
}

// NewIndex 根据 run 文本建立索引
func NewIndex(texts []string) *Index {
	idx := &Index{
		starts: make([]int, len(texts)),
		lens:   make([]int, len(texts)),
	}
	var sb strings.Builder
	for i, t := range texts {
		idx.starts[i] = sb.Len()
		idx.lens[i] = len(t)
		sb.WriteString(t)
	}
	idx.text = sb.String()
	return idx
}

// Text 返回拼接后的段落文本
func (idx *Index) Text() string {
	return idx.text
}

// Runs 返回 run 数量
func (idx *Index) Runs() int {
	return len(idx.starts)
}

// Locate 将逻辑区间 [start, end) 映射为 run 片段，空 run 被跳过
func (idx *Index) Locate(start, end int) ([]domain.Fragment, error) {
	if start < 0 || end > len(idx.text) || start >= end {
		return nil, fmt.Errorf("%w: [%d,%d) 段落长度 %d", domain.ErrSpanOutsideParagraph, start, end, len(idx.text))
	}

	var frags []domain.Fragment
	for i, st := range idx.starts {
		n := idx.lens[i]
		if n == 0 {
			continue
		}
		lo, hi := max(start, st), min(end, st+n)
		if lo >= hi {
			continue
		}
		frags = append(frags, domain.Fragment{Run: i, Start: lo - st, End: hi - st})
	}
	return frags, nil
}

// Logical 将 (run, 段内偏移) 映射回逻辑偏移
func (idx *Index) Logical(run, offset int) (int, error) {
	if run < 0 || run >= len(idx.starts) || offset < 0 || offset > idx.lens[run] {
		return 0, fmt.Errorf("%w: run %d 偏移 %d", domain.ErrSpanOutsideParagraph, run, offset)
	}
	return idx.starts[run] + offset, nil
}
