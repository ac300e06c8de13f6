package mapping

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MetroMaxChars    = 90
	BusMaxChars      = 90
	TaxiMaxChars     = 60
	QuartierMaxChars = 200

	MetroMaxLines = 3
	BusMaxLines   = 3
	TaxiMaxLines  = 1
)

const ellipsis = "…"

var compactRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bligne\s+`), "L"},
	{regexp.MustCompile(`(?i)\bstation\s+`), ""},
	{regexp.MustCompile(`(?i)\barr[êe]t\s+`), ""},
	{regexp.MustCompile(`(?i)\s+à pied\b`), ""},
	{regexp.MustCompile(`(?i)\bminutes?\b`), "min"},
	{regexp.MustCompile(`[()]`), ""},
	{regexp.MustCompile(`[–—−]+`), "-"},
	{regexp.MustCompile(`\s*-\s*`), " - "},
	{regexp.MustCompile(`[,:;]+`), " "},
	{regexp.MustCompile(`\s{2,}`), " "},
}

// NormalizeLines 拆分为去除空白后的非空行
func NormalizeLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// CompactLine 缩写交通线路描述，例如 "Ligne 3 (Station Villiers) - 5min à pied" 变为 "L3 Villiers - 5min"
func CompactLine(line string) string {
	text := strings.TrimSpace(line)
	for _, rule := range compactRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return strings.Trim(text, " -\t\r\n")
}

// EnforceLimits 压缩每一行，并限制行数和字符数；先减少行数，仍超长时截断并加省略号
func EnforceLimits(text string, maxChars, maxLines int) string {
	var lines []string
	for _, line := range NormalizeLines(text) {
		lines = append(lines, CompactLine(line))
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	joined := strings.Join(lines, "\n")
	if utf8.RuneCountInString(joined) <= maxChars {
		return joined
	}
	for _, target := range []int{2, 1} {
		if len(lines) > target {
			joined = strings.Join(lines[:target], "\n")
			if utf8.RuneCountInString(joined) <= maxChars {
				return joined
			}
		}
	}
	cutoff := max(maxChars-1, 0)
	if cutoff == 0 {
		return ellipsis
	}
	return strings.TrimRight(string([]rune(joined)[:cutoff]), " \t\r\n") + ellipsis
}

// TruncateClean 在 maxLen 个字符内截断，优先在换行、句读或空格处断开，返回是否截断
func TruncateClean(text string, maxLen int) (string, bool) {
	if maxLen <= 0 {
		return "", text != ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text, false
	}

	snippet := string(runes[:maxLen])
	cut := maxLen
	if pos, ok := breakPosition(snippet); ok {
		cut = pos
	}
	truncated := []rune(strings.TrimRight(string(runes[:cut]), " \t\r\n"))
	if len(truncated)+1 > maxLen {
		truncated = truncated[:maxLen-1]
	}
	return string(truncated) + ellipsis, true
}

// breakPosition 返回 snippet 中最后一个合适断点的字符位置
func breakPosition(snippet string) (int, bool) {
	runes := []rune(snippet)
	best := -1
	for i, r := range runes {
		switch r {
		case '\n':
			best = max(best, i)
		case '.', ';', ':':
			best = max(best, i+1)
		}
	}
	if best >= 0 {
		return best, true
	}
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i, true
		}
	}
	return 0, false
}
