package mapping

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MetroPrefix   = "Métro, ligne"
	BusPrefix     = "Bus, ligne"
	TaxiFallback  = "Stations de taxi"
	MetroMaxItems = 4
	BusMaxItems   = 6
)

var (
	chunkSplit  = regexp.MustCompile(`[.;\n]+`)
	spaceRun    = regexp.MustCompile(`\s+`)
	metroHint   = regexp.MustCompile(`metro|métro|ligne|rer|\bt\s*\d`)
	busHint     = regexp.MustCompile(`bus|ligne`)
	busNumber   = regexp.MustCompile(`\b(\d{1,3})\b`)
	metroLineRe = regexp.MustCompile(`(?i)\b(?P<rer>rer\s*[a-e])\b|` +
		`\b(?P<tram>t\s*(?P<tramnum>\d{1,2})(?P<tramsuffix>[ab]?))\b|` +
		`\b(?:ligne\s*)?(?P<metro>3\s*bis|7\s*bis|1[0-4]|[1-9])\b`)
)

// TransportTexts 压缩后的交通文本
type TransportTexts struct {
	Metro string
	Bus   string
	Taxi  string
}

func normalizeRaw(raw string) string {
	text := strings.ToLower(raw)
	text = strings.ReplaceAll(text, "–", "-")
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// durationContext 数字附近出现 min 时视为步行时间而不是线路号
func durationContext(text string, start, end int) bool {
	return strings.Contains(text[max(0, start-3):min(len(text), end+5)], "min")
}

// ExtractMetroLines 提取地铁线路（1-14、3bis、7bis）以及 RER 和有轨电车，保持顺序去重
func ExtractMetroLines(raw string) []string {
	normalized := normalizeRaw(strings.ReplaceAll(raw, "métro", "metro"))
	if normalized == "" {
		return nil
	}

	var lines []string
	for _, chunk := range chunkSplit.Split(normalized, -1) {
		if metroHint.MatchString(chunk) {
			lines = append(lines, metroMatches(chunk)...)
		}
	}
	if len(lines) == 0 {
		lines = metroMatches(normalized)
	}
	return dedupe(lines)
}

func metroMatches(text string) []string {
	var lines []string
	for _, m := range metroLineRe.FindAllStringSubmatchIndex(text, -1) {
		if durationContext(text, m[0], m[1]) {
			continue
		}
		group := func(name string) string {
			i := metroLineRe.SubexpIndex(name)
			if m[2*i] < 0 {
				return ""
			}
			return text[m[2*i]:m[2*i+1]]
		}
		switch {
		case group("rer") != "":
			fields := strings.Fields(group("rer"))
			rer := fields[len(fields)-1]
			lines = append(lines, "RER "+strings.ToUpper(rer[len(rer)-1:]))
		case group("tram") != "":
			lines = append(lines, "T"+group("tramnum")+strings.ToLower(group("tramsuffix")))
		case group("metro") != "":
			lines = append(lines, strings.ReplaceAll(group("metro"), " ", ""))
		}
	}
	return lines
}

// ExtractBusLines 提取 1 到 399 之间的公交线路号，保持顺序去重
func ExtractBusLines(raw string) []string {
	normalized := normalizeRaw(raw)
	if normalized == "" {
		return nil
	}

	var lines []string
	for _, chunk := range chunkSplit.Split(normalized, -1) {
		if busHint.MatchString(chunk) {
			lines = append(lines, busMatches(chunk)...)
		}
	}
	if len(lines) == 0 {
		lines = busMatches(normalized)
	}
	return dedupe(lines)
}

func busMatches(text string) []string {
	var lines []string
	for _, m := range busNumber.FindAllStringSubmatchIndex(text, -1) {
		if durationContext(text, m[0], m[1]) {
			continue
		}
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n < 1 || n > 399 {
			continue
		}
		lines = append(lines, strconv.Itoa(n))
	}
	return lines
}

// FormatCompactLines 格式化为 "前缀 1, 2, 3…"，超过 maxItems 时加省略号
func FormatCompactLines(prefix string, lines []string, maxItems int) string {
	if len(lines) == 0 {
		return ""
	}
	kept := lines
	suffix := ""
	if len(lines) > maxItems {
		kept = lines[:maxItems]
		suffix = ellipsis
	}
	joined := strings.Join(kept, ", ") + suffix
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		return prefix + " " + joined
	}
	return joined
}

// CompactTransportTexts 从原始描述生成紧凑的交通文本，出租车没有具体信息时使用通用文本
func CompactTransportTexts(metroRaw, busRaw, taxiRaw string) TransportTexts {
	taxi := TaxiFallback
	if t := normalizeRaw(taxiRaw); strings.Contains(t, "taxi") {
		taxi = EnforceLimits(taxiRaw, TaxiMaxChars, TaxiMaxLines)
	}
	return TransportTexts{
		Metro: FormatCompactLines(MetroPrefix, ExtractMetroLines(metroRaw), MetroMaxItems),
		Bus:   FormatCompactLines(BusPrefix, ExtractBusLines(busRaw), BusMaxItems),
		Taxi:  taxi,
	}
}

// JoinLineRefs 合并线路编号，忽略大小写去重
func JoinLineRefs(refs []string) string {
	seen := make(map[string]bool)
	var kept []string
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		key := strings.ToLower(ref)
		if ref == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, ref)
	}
	return strings.Join(kept, ", ")
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
