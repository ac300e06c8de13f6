package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// frenchMonths 法语月份名称
var frenchMonths = [12]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatAmount 法式数字：千位空格分隔，非整数保留一位小数并使用逗号
func FormatAmount(v float64) string {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return groupThousands(int64(math.Round(v)))
	}
	return humanize.FormatFloat("# ###,#", v)
}

// FormatEuro 法式欧元金额，例如 "1 234,5 €"
func FormatEuro(v float64) string {
	return FormatAmount(v) + " €"
}

// FormatEuroRounded 四舍五入到整数的欧元金额，例如 "2 700 €"
func FormatEuroRounded(v float64) string {
	return groupThousands(int64(math.Round(v))) + " €"
}

// FormatPercent 百分比，例如 "15 %"
func FormatPercent(v float64) string {
	return FormatAmount(v) + " %"
}

// FormatDays 天数，保留一位小数，例如 "18,0 j"
func FormatDays(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 1, 64), ".", ",", 1) + " j"
}

// FormatFrenchDate 返回 "12 mai 2025" 形式的日期
func FormatFrenchDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), FormatFrenchMonthYear(t))
}

// FormatFrenchMonthYear 返回 "mai 2025" 形式的月份
func FormatFrenchMonthYear(t time.Time) string {
	return fmt.Sprintf("%s %d", frenchMonths[t.Month()-1], t.Year())
}

func groupThousands(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", " ")
}

// formatInt 数字转为整数文本，无法解析时原样返回
func formatInt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// yesNo 把各种真假写法统一为 Oui/Non
func yesNo(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui", "yes", "true", "1", "o", "y":
		return "Oui"
	}
	return "Non"
}
