package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allanpk716/docfill/internal/domain"
)

func TestComputeRevenue_PlatformFeeAndCommissionBase(t *testing.T) {
	r := ComputeRevenue(RevenueInput{
		NightlyPrice:   1000.0 / 30,
		OccupancyPct:   100,
		PlatformFeePct: 10,
		CommissionPct:  20,
	}, DaysPerMonthCD)

	assert.InDelta(t, 1000, r.Gross, 1e-9)
	assert.InDelta(t, 100, r.PlatformFee, 1e-9)
	assert.InDelta(t, 900, r.CommissionBase, 1e-9)
	assert.InDelta(t, 180, r.Commission, 1e-9)
	assert.InDelta(t, 280, r.Overheads, 1e-9)
	assert.InDelta(t, 720, r.Net, 1e-9)
}

func TestComputeRevenue_DaysPerMonth(t *testing.T) {
	tests := []struct {
		stay StayType
		days float64
	}{
		{StayShort, 30},
		{StayMedium, 365.0 / 12},
	}
	for _, tt := range tests {
		t.Run(string(tt.stay), func(t *testing.T) {
			r := ComputeRevenue(RevenueInput{NightlyPrice: 100, OccupancyPct: 100}, tt.stay.DaysPerMonth())
			assert.InDelta(t, tt.days, r.OccupiedDays, 1e-9)
			assert.InDelta(t, 100*tt.days, r.Gross, 1e-9)
		})
	}
}

func TestComputeRevenue_NetNeverNegative(t *testing.T) {
	r := ComputeRevenue(RevenueInput{NightlyPrice: 10, OccupancyPct: 50, CleaningFee: 5000}, DaysPerMonthCD)
	assert.Equal(t, 0.0, r.Net)
	assert.Greater(t, r.Overheads, r.Gross)
}

func TestParseStayType(t *testing.T) {
	assert.Equal(t, StayMedium, ParseStayType(" md "))
	assert.Equal(t, StayShort, ParseStayType("CD"))
	assert.Equal(t, StayShort, ParseStayType(""))
}

func TestRevenue_ApplyFeeTokens(t *testing.T) {
	m := domain.NewMapping()
	ComputeRevenue(RevenueInput{
		NightlyPrice:   150,
		OccupancyPct:   60,
		PlatformFeePct: 15,
		CommissionPct:  20,
		CleaningFee:    35,
	}, DaysPerMonthCD).Apply(m)

	for _, token := range []string{"PLATFORM_FEE_PCT", "PLATFORM_FEE_EUR", "CLEANING_FEE_EUR", "MFY_COMMISSION_PCT", "MFY_COMMISSION_EUR"} {
		assert.NotEmpty(t, m.Value(token), token)
		assert.True(t, m.IsOptional(token), token)
	}

	expected := map[string]string{
		"PRIX_NUIT":          "150 €",
		"TAUX_OCC":           "60 %",
		"JOURS_OCC":          "18,0 j",
		"REV_BRUT":           "2 700 €",
		"FRAIS_GEN":          "899 €",
		"REV_NET":            "1 801 €",
		"PLATFORM_FEE_EUR":   "405 €",
		"MFY_COMMISSION_EUR": "459 €",
		"CLEANING_FEE_EUR":   "35 €",
	}
	for k, v := range expected {
		assert.Equal(t, v, m.Value(k), k)
	}
}
