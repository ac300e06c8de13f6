package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
)

// Scenarios 夜间价格情景系数
type Scenarios struct {
	Pessimistic float64 `json:"pessimistic" yaml:"pessimistic"`
	Target      float64 `json:"target" yaml:"target"`
	Optimistic  float64 `json:"optimistic" yaml:"optimistic"`
}

// DefaultScenarios 默认情景系数 0.90 / 1.00 / 1.10
var DefaultScenarios = Scenarios{Pessimistic: 0.90, Target: 1.00, Optimistic: 1.10}

// EstimationInput 估价演示文稿的输入数据
type EstimationInput struct {
	Stay    StayType `json:"stay" yaml:"stay"`
	Address string   `json:"address" yaml:"address"`

	QuartierIntro string   `json:"quartier_intro" yaml:"quartier_intro"`
	Metro         string   `json:"metro" yaml:"metro"`
	Bus           string   `json:"bus" yaml:"bus"`
	Taxi          string   `json:"taxi" yaml:"taxi"`
	MetroLines    []string `json:"metro_lines" yaml:"metro_lines"`
	BusLines      []string `json:"bus_lines" yaml:"bus_lines"`

	Incontournables []string `json:"incontournables" yaml:"incontournables"`
	Spots           []string `json:"spots" yaml:"spots"`
	Visits          []string `json:"visits" yaml:"visits"`

	Surface   float64 `json:"surface" yaml:"surface"`
	Rooms     int     `json:"rooms" yaml:"rooms"`
	Bathrooms int     `json:"bathrooms" yaml:"bathrooms"`
	Beds      int     `json:"beds" yaml:"beds"`
	Heating   string  `json:"heating" yaml:"heating"`

	Strengths  []string `json:"strengths" yaml:"strengths"`
	Challenges []string `json:"challenges" yaml:"challenges"`

	Revenue   RevenueInput `json:"revenue" yaml:"revenue"`
	Scenarios *Scenarios   `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

// BuildEstimation 构建估价映射。相同输入总是得到相同结果
func BuildEstimation(in EstimationInput) *domain.Mapping {
	m := domain.NewMapping()

	m.Set("ADRESSE", strings.TrimSpace(in.Address))
	intro, _ := TruncateClean(strings.TrimSpace(in.QuartierIntro), QuartierMaxChars)
	m.Set("QUARTIER_INTRO", intro)

	tr := transportTexts(in)
	m.Set("TRANSPORT_METRO_TEXTE", tr.Metro)
	m.Set("TRANSPORT_BUS_TEXTE", tr.Bus)
	m.Set("TRANSPORT_TAXI_TEXTE", tr.Taxi)

	setNumbered(m, "INCONTOURNABLE_%d_NOM", in.Incontournables, 3)
	setNumbered(m, "SPOT_%d_NOM", in.Spots, 2)
	setNumbered(m, "VISITE_%d_NOM", in.Visits, 2)

	m.Set("NB_SURFACE", strconv.FormatFloat(in.Surface, 'f', 0, 64))
	m.Set("NB_PIECES", strconv.Itoa(in.Rooms))
	m.Set("NB_SDB", strconv.Itoa(in.Bathrooms))
	m.Set("NB_COUCHAGES", strconv.Itoa(in.Beds))
	m.Set("MODE_CHAUFFAGE", strings.TrimSpace(in.Heating))

	setNumbered(m, "POINT_FORT_%d", in.Strengths, 2)
	setNumbered(m, "CHALLENGE_%d", in.Challenges, 2)

	rev := ComputeRevenue(in.Revenue, in.Stay.DaysPerMonth())
	rev.Apply(m)

	sc := DefaultScenarios
	if in.Scenarios != nil {
		sc = *in.Scenarios
	}
	price := in.Revenue.NightlyPrice
	m.Set("PRIX_PESSIMISTE", FormatEuroRounded(price*sc.Pessimistic))
	m.Set("PRIX_CIBLE", FormatEuroRounded(price*sc.Target))
	m.Set("PRIX_OPTIMISTE", FormatEuroRounded(price*sc.Optimistic))

	if in.Stay != StayMedium {
		m.SetOptional(HistogramToken, HistogramText(price))
	}

	ApplyAliases(m)
	return m
}

// transportTexts 优先使用自由文本，其次使用自动识别的线路列表
func transportTexts(in EstimationInput) TransportTexts {
	compact := CompactTransportTexts(
		strings.Join(append([]string{in.Metro}, in.MetroLines...), "\n"),
		strings.Join(append([]string{in.Bus}, in.BusLines...), "\n"),
		in.Taxi,
	)
	tr := TransportTexts{
		Metro: EnforceLimits(in.Metro, MetroMaxChars, MetroMaxLines),
		Bus:   EnforceLimits(in.Bus, BusMaxChars, BusMaxLines),
		Taxi:  EnforceLimits(in.Taxi, TaxiMaxChars, TaxiMaxLines),
	}
	if tr.Metro == "" {
		tr.Metro = compact.Metro
	}
	if tr.Bus == "" {
		tr.Bus = compact.Bus
	}
	if tr.Taxi == "" {
		tr.Taxi = compact.Taxi
	}
	return tr
}

// setNumbered 按 1..n 写入编号占位符，缺少的值写空字符串
func setNumbered(m *domain.Mapping, pattern string, values []string, n int) {
	for i := range n {
		v := ""
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		m.Set(fmt.Sprintf(pattern, i+1), v)
	}
}
