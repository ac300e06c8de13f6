package mapping

import "github.com/allanpk716/docfill/internal/domain"

// tokenAliases 同一内容在不同模板中的名称，第一个为规范名称
var tokenAliases = [][]string{
	{"TRANSPORTS_METRO_TEXTE", "TRANSPORT_METRO_TEXTE"},
	{"TRANSPORTS_BUS_TEXTE", "TRANSPORT_BUS_TEXTE"},
	{"TRANSPORTS_TAXI_TEXTE", "TRANSPORT_TAXI_TEXTE"},
	{"QUARTIER_TEXTE", "QUARTIER_INTRO"},
}

// ApplyAliases 用每组中第一个已有的值补齐缺失的别名，不覆盖已有值。
// 补齐的键标记为可选，返回新增的键
func ApplyAliases(m *domain.Mapping) []string {
	var added []string
	for _, group := range tokenAliases {
		var (
			value string
			found bool
		)
		for _, name := range group {
			if value, found = m.Get(name); found {
				break
			}
		}
		if !found {
			continue
		}
		for _, name := range group {
			if !m.Has(name) {
				m.SetOptional(name, value)
				added = append(added, name)
			}
		}
	}
	return added
}

// Aliases 返回与 name 属于同一组的其他名称
func Aliases(name string) []string {
	name = domain.CanonicalName(domain.StripDelimiters(name))
	for _, group := range tokenAliases {
		for i, n := range group {
			if n != name {
				continue
			}
			others := make([]string, 0, len(group)-1)
			others = append(others, group[:i]...)
			return append(others, group[i+1:]...)
		}
	}
	return nil
}
