package matcher

import (
	"iter"
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
)

// Scanner 占位符扫描器，只读取输入，不修改文本
type Scanner struct {
	delims    domain.Delimiters
	forbidden string
}

// NewScanner 创建新的占位符扫描器，定界符为空时使用 [[ ]]
func NewScanner(delims domain.Delimiters) *Scanner {
	if delims.Open == "" || delims.Close == "" {
		delims = domain.DefaultDelimiters
	}
	return &Scanner{
		delims:    delims,
		forbidden: delims.Open + delims.Close + "\r\n",
	}
}

// Delimiters 返回扫描器使用的定界符
func (s *Scanner) Delimiters() domain.Delimiters {
	return s.delims
}

// Tokens 按出现顺序惰性返回段落中的占位符，texts 为段落内各 run 的文本
func (s *Scanner) Tokens(texts []string) iter.Seq[domain.Token] {
	return func(yield func(domain.Token) bool) {
		idx := NewIndex(texts)
		for start, end := range s.spans(idx.Text()) {
			frags, err := idx.Locate(start, end)
			if err != nil {
				continue
			}
			tok := s.token(idx.Text(), start, end)
			tok.Fragments = frags
			if !yield(tok) {
				return
			}
		}
	}
}

// ScanText 扫描一段纯文本，返回的占位符不含 run 片段
func (s *Scanner) ScanText(text string) iter.Seq[domain.Token] {
	return func(yield func(domain.Token) bool) {
		for start, end := range s.spans(text) {
			if !yield(s.token(text, start, end)) {
				return
			}
		}
	}
}

// Names 返回段落中所有占位符名称，保持出现顺序
func (s *Scanner) Names(texts []string) []string {
	var names []string
	for tok := range s.Tokens(texts) {
		names = append(names, tok.Name)
	}
	return names
}

func (s *Scanner) token(text string, start, end int) domain.Token {
	raw := text[start:end]
	body := raw[len(s.delims.Open) : len(raw)-len(s.delims.Close)]
	return domain.Token{
		Name:  domain.CanonicalName(body),
		Raw:   raw,
		Start: start,
		End:   end,
	}
}

// spans 找出所有合法占位符的 [start, end) 区间
// 开始符与其后最近的结束符配对，多个开始符时取离结束符最近的一个
func (s *Scanner) spans(text string) iter.Seq2[int, int] {
	od, cd := s.delims.Open, s.delims.Close
	return func(yield func(int, int) bool) {
		pos := 0
		for pos < len(text) {
			i := strings.Index(text[pos:], od)
			if i < 0 {
				return
			}
			i += pos

			j := strings.Index(text[i+len(od):], cd)
			if j < 0 {
				return
			}
			j += i + len(od)

			k := i + strings.LastIndex(text[i:j], od)
			body := text[k+len(od) : j]
			if !s.validBody(body) {
				pos = k + len(od)
				continue
			}

			end := j + len(cd)
			if !yield(k, end) {
				return
			}
			pos = end
		}
	}
}

func (s *Scanner) validBody(body string) bool {
	if domain.CanonicalName(body) == "" {
		return false
	}
	return !strings.ContainsAny(body, s.forbidden)
}

// ValidateTokenFormat 验证字符串是否为完整的占位符格式
func ValidateTokenFormat(token string, delims domain.Delimiters) bool {
	if len(token) <= len(delims.Open)+len(delims.Close) {
		return false
	}
	if !strings.HasPrefix(token, delims.Open) || !strings.HasSuffix(token, delims.Close) {
		return false
	}
	body := token[len(delims.Open) : len(token)-len(delims.Close)]
	return NewScanner(delims).validBody(body)
}

// TokenName 从占位符中提取规范化名称，非占位符格式时原样规范化
func TokenName(token string, delims domain.Delimiters) string {
	if !ValidateTokenFormat(token, delims) {
		return domain.CanonicalName(token)
	}
	return domain.CanonicalName(token[len(delims.Open) : len(token)-len(delims.Close)])
}

// FormatToken 将名称格式化为占位符
func FormatToken(name string, delims domain.Delimiters) string {
	if ValidateTokenFormat(name, delims) {
		return name
	}
	return delims.Open + name + delims.Close
}
