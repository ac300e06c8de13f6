package domain

import "iter"

// Mapping 有序的占位符名称到值的映射，键唯一
type Mapping struct {
	keys     []string
	values   map[string]string
	optional map[string]bool
}

// NewMapping 创建空映射
func NewMapping() *Mapping {
	return &Mapping{
		values:   make(map[string]string),
		optional: make(map[string]bool),
	}
}

// Set 设置键值，已存在的键保持原位置
func (m *Mapping) Set(key, value string) {
	name := CanonicalName(StripDelimiters(key))
	if name == "" {
		return
	}
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
}

// SetDefault 仅在键不存在时设置
func (m *Mapping) SetDefault(key, value string) bool {
	if m.Has(key) {
		return false
	}
	m.Set(key, value)
	return true
}

// SetOptional 设置键值并标记为可选，未被模板使用时不计入未消费条目
func (m *Mapping) SetOptional(key, value string) {
	m.Set(key, value)
	m.MarkOptional(key)
}

// MarkOptional 将已有的键标记为可选
func (m *Mapping) MarkOptional(key string) {
	name := CanonicalName(StripDelimiters(key))
	if _, ok := m.values[name]; ok {
		m.optional[name] = true
	}
}

// IsOptional 判断键是否可选
func (m *Mapping) IsOptional(key string) bool {
	return m.optional[CanonicalName(StripDelimiters(key))]
}

// Get 获取值
func (m *Mapping) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[CanonicalName(StripDelimiters(key))]
	return v, ok
}

// Value 获取值，不存在时返回空字符串
func (m *Mapping) Value(key string) string {
	v, _ := m.Get(key)
	return v
}

// Has 判断键是否存在
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len 返回条目数量
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys 返回按插入顺序排列的键
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// All 按插入顺序遍历所有条目
func (m *Mapping) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}
