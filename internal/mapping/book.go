package mapping

import (
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
)

// BookInput 入住手册的输入数据
type BookInput struct {
	Address     string   `json:"address" yaml:"address"`
	MetroLines  []string `json:"metro_lines" yaml:"metro_lines"`
	BusLines    []string `json:"bus_lines" yaml:"bus_lines"`
	Taxi        string   `json:"taxi" yaml:"taxi"`
	FrontDoor   string   `json:"front_door" yaml:"front_door"`
	Entrance    string   `json:"entrance" yaml:"entrance"`
	Apartment   string   `json:"apartment" yaml:"apartment"`
	NetworkName string   `json:"network_name" yaml:"network_name"`
	NetworkPass string   `json:"network_password" yaml:"network_password"`
}

// BuildBook 构建入住手册映射，旧模板使用的名称作为可选条目一并写入
func BuildBook(in BookInput) *domain.Mapping {
	m := domain.NewMapping()
	addr := strings.TrimSpace(in.Address)
	taxi := strings.TrimSpace(in.Taxi)
	metro := JoinLineRefs(in.MetroLines)
	bus := JoinLineRefs(in.BusLines)

	m.Set("ADRESSE", addr)
	m.SetOptional("BOOK_ADRESSE", addr)

	m.Set("TRANSPORT_METRO_TEXTE", metro)
	m.Set("TRANSPORT_BUS_TEXTE", bus)
	m.Set("TRANSPORT_TAXI_TEXTE", taxi)
	m.SetOptional("TAXI_TEXTE", taxi)

	m.Set("PORTE_ENTREE_TEXTE", strings.TrimSpace(in.FrontDoor))
	m.Set("ENTREE_TEXTE", strings.TrimSpace(in.Entrance))
	m.Set("APPARTEMENT_TEXTE", strings.TrimSpace(in.Apartment))
	m.SetOptional("BOOK_ACC_PORTE_TEXTE", strings.TrimSpace(in.FrontDoor))
	m.SetOptional("BOOK_ACC_ENTREE_TEXTE", strings.TrimSpace(in.Entrance))
	m.SetOptional("BOOK_ACC_APPART_TEXTE", strings.TrimSpace(in.Apartment))

	m.Set("NETWORK_NAME", strings.TrimSpace(in.NetworkName))
	m.Set("NETWORK_PASSWORD", in.NetworkPass)
	m.SetOptional("WIFI_NETWORK_NAME", strings.TrimSpace(in.NetworkName))
	m.SetOptional("WIFI_PASSWORD", in.NetworkPass)

	ApplyAliases(m)
	return m
}
