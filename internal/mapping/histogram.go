package mapping

import "strings"

const (
	HistogramToken = "ESTIMATION_HISTO_TEXTE"
	HistogramSlot  = "ESTIMATION_HISTO_MASK"
	HistogramTitle = "Évo du prix/nuitée"

	// RevenueSlideMarker 模板没有直方图槽位时，图表放到含有此文字的幻灯片
	RevenueSlideMarker = "vos revenus"
)

// SeasonLabels 直方图的 13 个时间段，九月分为两段
var SeasonLabels = []string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin", "Juillet", "Août",
	"Septembre 1 à 7", "Septembre 8 à 30", "Octobre", "Novembre", "Décembre",
}

// Seasonality 各时间段相对基础价格的系数
var Seasonality = []float64{0.75, 0.75, 0.85, 0.9, 1.1, 1.25, 1.2, 1.0, 1.0, 1.2, 1.25, 0.75, 1.0}

// NightlyPrices 按季节系数计算各时间段的夜间价格
func NightlyPrices(base float64) []float64 {
	prices := make([]float64, len(Seasonality))
	for i, s := range Seasonality {
		prices[i] = base * s
	}
	return prices
}

// HistogramText 直方图对应的文字版本，每行一个时间段
func HistogramText(base float64) string {
	var sb strings.Builder
	for i, p := range NightlyPrices(base) {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(SeasonLabels[i])
		sb.WriteString(" : ")
		sb.WriteString(FormatEuro(p))
	}
	return sb.String()
}

// IsHistogramSlot 判断槽位名称是否为直方图占位形状：包含 histo 且以 mask 结尾
func IsHistogramSlot(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.Contains(n, "histo") && strings.HasSuffix(n, "mask")
}
