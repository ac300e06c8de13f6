package mapping

import (
	"slices"
	"strings"
	"time"

	"github.com/allanpk716/docfill/internal/domain"
)

// 图片槽位名称
const (
	SlotMap       = "MAP_MASK"
	SlotVisit1    = "VISITE_1_MASK"
	SlotVisit2    = "VISITE_2_MASK"
	SlotBookMap   = "MAP_BOOK_MASK"
	SlotFrontDoor = "PORTE_ENTREE_MASK"
	SlotEntrance  = "ENTREE_MASK"
	SlotApartment = "APPARTEMENT_MASK"
	SlotWifiQR    = "WIFI_QR_MASK"
)

// EstimationImages 估价演示文稿的图片
type EstimationImages struct {
	Map    domain.ImageSource `json:"map" yaml:"map"`
	Visit1 domain.ImageSource `json:"visit_1" yaml:"visit_1"`
	Visit2 domain.ImageSource `json:"visit_2" yaml:"visit_2"`
}

// Assignments 转为槽位分配，空来源被忽略
func (e EstimationImages) Assignments() []domain.ImageAssignment {
	return assignments(
		domain.ImageAssignment{Slot: SlotMap, Source: e.Map},
		domain.ImageAssignment{Slot: SlotVisit1, Source: e.Visit1},
		domain.ImageAssignment{Slot: SlotVisit2, Source: e.Visit2},
	)
}

// BookImages 入住手册的图片
type BookImages struct {
	Map       domain.ImageSource `json:"map" yaml:"map"`
	FrontDoor domain.ImageSource `json:"front_door" yaml:"front_door"`
	Entrance  domain.ImageSource `json:"entrance" yaml:"entrance"`
	Apartment domain.ImageSource `json:"apartment" yaml:"apartment"`
}

// Assignments 转为槽位分配，空来源被忽略
func (b BookImages) Assignments() []domain.ImageAssignment {
	return assignments(
		domain.ImageAssignment{Slot: SlotBookMap, Source: b.Map},
		domain.ImageAssignment{Slot: SlotFrontDoor, Source: b.FrontDoor},
		domain.ImageAssignment{Slot: SlotEntrance, Source: b.Entrance},
		domain.ImageAssignment{Slot: SlotApartment, Source: b.Apartment},
	)
}

func assignments(all ...domain.ImageAssignment) []domain.ImageAssignment {
	var out []domain.ImageAssignment
	for _, a := range all {
		if !a.Source.IsZero() {
			out = append(out, a)
		}
	}
	return out
}

// Requirement 模板必须包含的图片形状，名称或任一替代名称存在即满足
type Requirement struct {
	Name         string
	Alternatives []string
	Detect       func(name string) bool
}

// Satisfied 判断形状名称集合是否满足要求
func (r Requirement) Satisfied(names []string) bool {
	for _, n := range names {
		if strings.EqualFold(n, r.Name) || slices.ContainsFunc(r.Alternatives, func(a string) bool {
			return strings.EqualFold(n, a)
		}) {
			return true
		}
		if r.Detect != nil && r.Detect(n) {
			return true
		}
	}
	return false
}

// RequiredSlots 各文档类型必须包含的图片形状
func RequiredSlots(kind domain.Kind) []Requirement {
	switch kind {
	case domain.KindEstimation:
		return []Requirement{
			{Name: HistogramSlot, Detect: IsHistogramSlot},
			{Name: SlotMap},
			{Name: SlotVisit1},
			{Name: SlotVisit2},
		}
	case domain.KindBook:
		return []Requirement{
			{Name: SlotBookMap, Alternatives: []string{"BOOK_MAP_MASK"}},
			{Name: SlotFrontDoor, Alternatives: []string{"BOOK_ACCESS_PHOTO_PORTE"}},
			{Name: SlotEntrance, Alternatives: []string{"BOOK_ACCESS_PHOTO_ENTREE"}},
			{Name: SlotApartment, Alternatives: []string{"BOOK_ACCESS_PHOTO_APPART"}},
		}
	}
	return nil
}

// SlotAliases 槽位的旧名称，分配到规范名称的图片也填充旧名称的形状
var SlotAliases = map[string][]string{
	SlotBookMap:   {"BOOK_MAP_MASK"},
	SlotFrontDoor: {"BOOK_ACCESS_PHOTO_PORTE"},
	SlotEntrance:  {"BOOK_ACCESS_PHOTO_ENTREE"},
	SlotApartment: {"BOOK_ACCESS_PHOTO_APPART"},
}

// KnownTokens 各文档类型的映射构建器会产生的占位符名称
func KnownTokens(kind domain.Kind) []string {
	switch kind {
	case domain.KindEstimation:
		return BuildEstimation(EstimationInput{}).Keys()
	case domain.KindMandate:
		return BuildMandate(MandateInput{}, time.Time{}).Keys()
	case domain.KindBook:
		return BuildBook(BookInput{}).Keys()
	}
	return nil
}
