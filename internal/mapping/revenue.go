package mapping

import (
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
)

// StayType 出租类型：短租 CD 或中租 MD
type StayType string

const (
	StayShort  StayType = "CD"
	StayMedium StayType = "MD"
)

const (
	DaysPerMonthCD = 30.0
	DaysPerMonthMD = 365.0 / 12
)

// ParseStayType 解析出租类型，无法识别时按短租处理
func ParseStayType(s string) StayType {
	if strings.EqualFold(strings.TrimSpace(s), string(StayMedium)) {
		return StayMedium
	}
	return StayShort
}

// DaysPerMonth 每月计费天数
func (s StayType) DaysPerMonth() float64 {
	if s == StayMedium {
		return DaysPerMonthMD
	}
	return DaysPerMonthCD
}

// RevenueInput 收益计算输入
type RevenueInput struct {
	NightlyPrice   float64 `json:"nightly_price" yaml:"nightly_price"`
	OccupancyPct   float64 `json:"occupancy_pct" yaml:"occupancy_pct"`
	PlatformFeePct float64 `json:"platform_fee_pct" yaml:"platform_fee_pct"`
	CommissionPct  float64 `json:"commission_pct" yaml:"commission_pct"`
	CleaningFee    float64 `json:"cleaning_fee" yaml:"cleaning_fee"`
}

// Revenue 每月收益估算
type Revenue struct {
	Input          RevenueInput
	OccupiedDays   float64
	Gross          float64
	PlatformFee    float64
	CommissionBase float64
	Commission     float64
	Overheads      float64
	Net            float64
}

// ComputeRevenue 计算月收益：平台费按毛收入计，佣金基于扣除平台费后的金额，净收入不低于 0
func ComputeRevenue(in RevenueInput, daysPerMonth float64) Revenue {
	days := daysPerMonth * in.OccupancyPct / 100
	gross := in.NightlyPrice * days
	platform := gross * in.PlatformFeePct / 100
	base := gross - platform
	commission := base * in.CommissionPct / 100
	overheads := platform + commission + in.CleaningFee
	return Revenue{
		Input:          in,
		OccupiedDays:   days,
		Gross:          gross,
		PlatformFee:    platform,
		CommissionBase: base,
		Commission:     commission,
		Overheads:      overheads,
		Net:            max(gross-overheads, 0),
	}
}

// Apply 写入收益相关占位符，费用明细为可选条目
func (r Revenue) Apply(m *domain.Mapping) {
	m.Set("PRIX_NUIT", FormatEuroRounded(r.Input.NightlyPrice))
	m.Set("TAUX_OCC", FormatPercent(r.Input.OccupancyPct))
	m.Set("JOURS_OCC", FormatDays(r.OccupiedDays))
	m.Set("REV_BRUT", FormatEuroRounded(r.Gross))
	m.Set("FRAIS_GEN", FormatEuroRounded(r.Overheads))
	m.Set("REV_NET", FormatEuroRounded(r.Net))

	m.SetOptional("PLATFORM_FEE_PCT", FormatPercent(r.Input.PlatformFeePct))
	m.SetOptional("PLATFORM_FEE_EUR", FormatEuroRounded(r.PlatformFee))
	m.SetOptional("CLEANING_FEE_EUR", FormatEuroRounded(r.Input.CleaningFee))
	m.SetOptional("MFY_COMMISSION_PCT", FormatPercent(r.Input.CommissionPct))
	m.SetOptional("MFY_COMMISSION_EUR", FormatEuroRounded(r.Commission))
	m.SetOptional("BASE_COMMISSION_EUR", FormatEuroRounded(r.CommissionBase))
}
