package processor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/imaging"
	"github.com/allanpk716/docfill/internal/mapping"
	"github.com/allanpk716/docfill/internal/matcher"
	"github.com/allanpk716/docfill/pkg/ooxml"
)

// Severity 模板检查结论
type Severity string

const (
	SeverityOK   Severity = "OK"
	SeverityWarn Severity = "WARN"
	SeverityKO   Severity = "KO"
)

// SlotInfo 模板中的一个图片槽位
type SlotInfo struct {
	Label  string  `json:"label" yaml:"label"`
	Part   string  `json:"part" yaml:"part"`
	Kind   string  `json:"kind" yaml:"kind"`
	Masked bool    `json:"masked" yaml:"masked"`
	Aspect float64 `json:"aspect" yaml:"aspect"`
	Fit    string  `json:"fit" yaml:"fit"`
}

// Audit 模板占位符与映射的对照
type Audit struct {
	Missing []string `json:"missing" yaml:"missing"`
	Empty   []string `json:"empty" yaml:"empty"`
	OK      []string `json:"ok" yaml:"ok"`
}

// Inspection 模板检查结果
type Inspection struct {
	Template      string     `json:"template" yaml:"template"`
	Kind          string     `json:"kind" yaml:"kind"`
	Format        string     `json:"format" yaml:"format"`
	Tokens        []string   `json:"tokens" yaml:"tokens"`
	UnknownTokens []string   `json:"unknown_tokens,omitempty" yaml:"unknown_tokens,omitempty"`
	Slots         []SlotInfo `json:"slots" yaml:"slots"`
	MissingShapes []string   `json:"missing_shapes,omitempty" yaml:"missing_shapes,omitempty"`
	Audit         *Audit     `json:"audit,omitempty" yaml:"audit,omitempty"`
	Severity      Severity   `json:"severity" yaml:"severity"`
	OK            bool       `json:"ok" yaml:"ok"`
	Notes         []string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// InspectOptions 检查参数；Mapping 不为空时用它判断未知占位符并做对照
type InspectOptions struct {
	Kind       domain.Kind
	Delimiters domain.Delimiters
	Mapping    *domain.Mapping
}

// Inspect 只读地检查模板：列出占位符和图片槽位，缺少必需形状为 KO，存在未知占位符为 WARN
func Inspect(path string, opts InspectOptions) (*Inspection, error) {
	kind, ok := domain.ParseKind(string(opts.Kind))
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, opts.Kind)
	}
	doc, err := ooxml.Open(path)
	if err != nil {
		return nil, &domain.TemplateLoadError{Path: path, Err: err}
	}

	in := &Inspection{Template: path, Kind: string(kind), Format: doc.Format().String()}

	tokens, err := templateTokens(doc, DelimitersFor(domain.Request{Kind: kind, Delimiters: opts.Delimiters}))
	if err != nil {
		return nil, &domain.TemplateLoadError{Path: path, Err: err}
	}
	in.Tokens = tokens

	known := knownTokens(kind, opts.Mapping)
	if len(known) > 0 {
		for _, t := range tokens {
			if !known[t] {
				in.UnknownTokens = append(in.UnknownTokens, t)
			}
		}
	}
	if opts.Mapping != nil {
		in.Audit = AuditTokens(tokens, opts.Mapping)
	}

	slots, err := doc.Slots()
	if err != nil {
		return nil, &domain.TemplateLoadError{Path: path, Err: err}
	}
	var names []string
	for _, s := range slots {
		in.Slots = append(in.Slots, SlotInfo{
			Label:  s.Label(),
			Part:   s.Part,
			Kind:   s.Kind.String(),
			Masked: s.Masked,
			Aspect: s.Aspect(),
			Fit:    string(imaging.ParseFitMode(s.Meta("fit"))),
		})
		names = append(names, s.Tags()...)
	}
	for _, r := range mapping.RequiredSlots(kind) {
		if !r.Satisfied(names) {
			in.MissingShapes = append(in.MissingShapes, r.Name)
		}
	}

	in.Severity = SeverityOK
	if len(in.UnknownTokens) > 0 {
		in.Severity = SeverityWarn
		in.Notes = append(in.Notes, "存在未知占位符: "+strings.Join(in.UnknownTokens, ", "))
	}
	if len(in.MissingShapes) > 0 {
		in.Severity = SeverityKO
		in.Notes = append(in.Notes, "缺少必需的图片形状: "+strings.Join(in.MissingShapes, ", "))
	}
	in.OK = in.Severity != SeverityKO
	return in, nil
}

// AuditTokens 把模板占位符分为缺失、值为空和正常三类
func AuditTokens(tokens []string, m *domain.Mapping) *Audit {
	a := &Audit{}
	for _, t := range tokens {
		v, ok := m.Get(t)
		switch {
		case !ok:
			a.Missing = append(a.Missing, t)
		case strings.TrimSpace(v) == "":
			a.Empty = append(a.Empty, t)
		default:
			a.OK = append(a.OK, t)
		}
	}
	return a
}

// templateTokens 返回模板中去重并排序的占位符名称
func templateTokens(doc *ooxml.Document, delims domain.Delimiters) ([]string, error) {
	paras, err := doc.Paragraphs()
	if err != nil {
		return nil, err
	}
	scanner := matcher.NewScanner(delims)
	seen := make(map[string]bool)
	var tokens []string
	for _, p := range paras {
		for _, name := range scanner.Names(p.Texts()) {
			if !seen[name] {
				seen[name] = true
				tokens = append(tokens, name)
			}
		}
	}
	slices.Sort(tokens)
	return tokens, nil
}

func knownTokens(kind domain.Kind, m *domain.Mapping) map[string]bool {
	var names []string
	if m != nil {
		names = m.Keys()
	} else {
		names = mapping.KnownTokens(kind)
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
		for _, a := range mapping.Aliases(n) {
			known[a] = true
		}
	}
	if kind == domain.KindEstimation {
		known[mapping.HistogramToken] = true
	}
	return known
}
