package domain

import (
	"context"
	"iter"
)

// Kind 文档生成类型
type Kind string

const (
	KindEstimation Kind = "estimation"
	KindMandate    Kind = "mandate"
	KindBook       Kind = "book"
	KindRaw        Kind = "raw"
)

// ParseKind 解析生成类型，大小写不敏感
func ParseKind(s string) (Kind, bool) {
	switch Kind(lower(s)) {
	case KindEstimation:
		return KindEstimation, true
	case KindMandate, "mandat":
		return KindMandate, true
	case KindBook:
		return KindBook, true
	case KindRaw, "":
		return KindRaw, true
	}
	return "", false
}

// Delimiters 占位符定界符
type Delimiters struct {
	Open  string
	Close string
}

var (
	// DefaultDelimiters 默认占位符格式 [[NAME]]
	DefaultDelimiters = Delimiters{Open: "[[", Close: "]]"}
	// GuillemetDelimiters 邮件合并风格 «NAME»
	GuillemetDelimiters = Delimiters{Open: "«", Close: "»"}
)

// Fragment 占位符在某个文本段(run)中的片段，Start/End 为段内字节偏移
type Fragment struct {
	Run   int
	Start int
	End   int
}

// Token 段落中找到的一个占位符
type Token struct {
	Name      string     // 规范化后的名称
	Raw       string     // 原始文本，含定界符
	Start     int        // 段落逻辑文本中的起始偏移
	End       int        // 结束偏移（不含）
	Fragments []Fragment // 按 run 顺序排列，连续
}

// First 返回占位符开始的 run
func (t Token) First() Fragment { return t.Fragments[0] }

// Last 返回占位符结束的 run
func (t Token) Last() Fragment { return t.Fragments[len(t.Fragments)-1] }

// TokenScanner 占位符扫描器接口
type TokenScanner interface {
	Tokens(texts []string) iter.Seq[Token]
}

// Paragraph 可重写的段落，Texts 返回按顺序排列的 run 文本
type Paragraph interface {
	Texts() []string
	SetRunText(run int, text string) error
}

// ImageSource 图片来源，三者取其一
type ImageSource struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
	Data []byte `json:"-" yaml:"-"`
}

// IsZero 判断来源是否为空
func (s ImageSource) IsZero() bool {
	return s.Path == "" && s.URL == "" && len(s.Data) == 0
}

// String 返回来源描述，用于日志和报告
func (s ImageSource) String() string {
	switch {
	case s.Path != "":
		return s.Path
	case s.URL != "":
		return s.URL
	case len(s.Data) > 0:
		return "<memory>"
	}
	return "<empty>"
}

// ImageAssignment 图片槽位分配
type ImageAssignment struct {
	Slot   string      `json:"slot" yaml:"slot"`
	Source ImageSource `json:"source" yaml:"source"`

	// Optional 模板中没有该槽位时不计入未消费条目
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// ImageLoader 图片加载器接口
type ImageLoader interface {
	Load(ctx context.Context, src ImageSource) ([]byte, error)
}

// Request 一次生成请求
type Request struct {
	Kind         Kind
	TemplatePath string
	OutputPath   string
	Mapping      *Mapping
	Images       []ImageAssignment
	Delimiters   Delimiters
	Strict       bool

	// IgnoreSlots 本次不需要填充的槽位，未分配时不计入未解析
	IgnoreSlots []string
}
