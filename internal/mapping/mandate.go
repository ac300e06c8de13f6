package mapping

import (
	"strconv"
	"strings"
	"time"

	"github.com/allanpk716/docfill/internal/domain"
)

const (
	SignatureDayToken   = "MANDAT_JOUR_SIGNATURE"
	SignatureMonthToken = "MANDAT_DATE_SIGNATURE"
	SignatureFullToken  = "MANDAT_DATE_SIGNATURE_FULL"

	defaultWaterRoomType = "Salle(s) d’eau"
)

// MandateInput 管理委托书的输入数据
type MandateInput struct {
	OwnerForm       string `json:"owner_form" yaml:"owner_form"`
	OwnerLastName   string `json:"owner_last_name" yaml:"owner_last_name"`
	OwnerFirstName  string `json:"owner_first_name" yaml:"owner_first_name"`
	OwnerAddress    string `json:"owner_address" yaml:"owner_address"`
	OwnerPostalCode string `json:"owner_postal_code" yaml:"owner_postal_code"`
	OwnerCity       string `json:"owner_city" yaml:"owner_city"`
	OwnerEmail      string `json:"owner_email" yaml:"owner_email"`

	PropertyAddress string `json:"property_address" yaml:"property_address"`
	Surface         string `json:"surface" yaml:"surface"`
	Rooms           string `json:"rooms" yaml:"rooms"`
	WaterRooms      string `json:"water_rooms" yaml:"water_rooms"`
	WaterRoomType   string `json:"water_room_type" yaml:"water_room_type"`
	Guests          string `json:"guests" yaml:"guests"`
	Heating         string `json:"heating" yaml:"heating"`
	HotWater        string `json:"hot_water" yaml:"hot_water"`

	Destination       string `json:"destination" yaml:"destination"`
	StartDate         string `json:"start_date" yaml:"start_date"`
	PetsAllowed       string `json:"pets_allowed" yaml:"pets_allowed"`
	CommissionPct     string `json:"commission_pct" yaml:"commission_pct"`
	DocumentsHandover string `json:"documents_handover" yaml:"documents_handover"`

	// SignatureDate 为空时使用调用方传入的当前日期
	SignatureDate time.Time `json:"signature_date" yaml:"signature_date"`
}

// BuildMandate 构建委托书映射，now 只在没有签署日期时使用
func BuildMandate(in MandateInput, now time.Time) *domain.Mapping {
	m := domain.NewMapping()

	m.Set("Forme_du_propriétaire", clean(in.OwnerForm))
	m.Set("Nom_du_propriétaire", clean(in.OwnerLastName))
	m.Set("Prénom_du_propriétaire", clean(in.OwnerFirstName))
	m.Set("Adresse_du_propriétaire", clean(in.OwnerAddress))
	m.Set("Code_postal_du_propriétaire", clean(in.OwnerPostalCode))
	m.Set("Ville_du_propriétaire", clean(in.OwnerCity))
	m.Set("Mail_du_propriétaire", clean(in.OwnerEmail))

	m.Set("Adresse_du_bien_loué", clean(in.PropertyAddress))
	m.Set("Surface_totale_du_bien", formatInt(in.Surface))
	m.Set("Nombre_de_pièces_du_bien", formatInt(in.Rooms))
	m.Set("Nombre_de_pièces_deau", formatInt(in.WaterRooms))
	waterType := clean(in.WaterRoomType)
	if waterType == "" {
		waterType = defaultWaterRoomType
	}
	m.Set("Type_de_pièces_deau", waterType)
	m.Set("Nombre_de_pax", formatInt(in.Guests))

	m.Set("Mode_de_production_de_chauffage", clean(in.Heating))
	m.Set("Mode_de_production_deau_chaude_sanitair", clean(in.HotWater))
	m.Set("Destination_du_bien", clean(in.Destination))
	m.Set("Date_de_début_de_mandat", formatStartDate(in.StartDate))
	m.Set("Animaux_autorisés", yesNo(in.PetsAllowed))
	m.Set("M__de_rémunération_MFY", formatInt(in.CommissionPct))
	m.Set("Remise_de_pièces", clean(in.DocumentsHandover))

	sig := in.SignatureDate
	if sig.IsZero() {
		sig = now
	}
	m.SetOptional(SignatureDayToken, strconv.Itoa(sig.Day()))
	m.SetOptional(SignatureMonthToken, FormatFrenchMonthYear(sig))
	m.SetOptional(SignatureFullToken, FormatFrenchDate(sig))
	return m
}

// formatStartDate ISO 日期转为 dd/mm/yyyy，其他写法原样保留
func formatStartDate(s string) string {
	s = clean(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
