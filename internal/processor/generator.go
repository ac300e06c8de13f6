package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/imagesource"
	"github.com/allanpk716/docfill/internal/imaging"
	"github.com/allanpk716/docfill/internal/mapping"
	"github.com/allanpk716/docfill/internal/matcher"
	"github.com/allanpk716/docfill/internal/report"
	"github.com/allanpk716/docfill/pkg/ooxml"
)

// 写入输出文件的自定义属性名称
const (
	PropGenerationID = "DocfillGenerationID"
	PropKind         = "DocfillKind"
	PropReplaced     = "DocfillReplaced"
	PropUnresolved   = "DocfillUnresolved"
)

// designatedSlot 约定的图片槽位名称：全大写并以下划线分段，如 PHOTO_1、MAP_MASK
var designatedSlot = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)+$`)

// Recorder 保存生成报告，例如写入历史数据库
type Recorder interface {
	Record(ctx context.Context, r *report.Report) error
}

// Generator 模板填充的编排器，单次调用独占其文档，多个调用可以并发
type Generator struct {
	loader    domain.ImageLoader
	logger    *slog.Logger
	recorder  Recorder
	finishers map[domain.Kind][]Finisher
	newID     func() string
}

// Option Generator 配置项
type Option func(*Generator)

// WithImageLoader 指定图片加载器
func WithImageLoader(l domain.ImageLoader) Option {
	return func(g *Generator) { g.loader = l }
}

// WithLogger 指定日志记录器
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithRecorder 指定报告保存位置
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// NewGenerator 创建编排器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		logger: slog.Default(),
		finishers: map[domain.Kind][]Finisher{
			domain.KindMandate: DefaultFinishers(domain.KindMandate),
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.loader == nil {
		g.loader = imagesource.NewLoader(imagesource.WithLogger(g.logger))
	}
	return g
}

// expectedFormat 各文档类型对应的模板格式，raw 不限
func expectedFormat(kind domain.Kind) ooxml.Format {
	switch kind {
	case domain.KindEstimation, domain.KindBook:
		return ooxml.FormatPptx
	case domain.KindMandate:
		return ooxml.FormatDocx
	}
	return ooxml.FormatUnknown
}

// DelimitersFor 返回请求实际使用的定界符，委托书默认使用 «» 邮件合并字段
func DelimitersFor(req domain.Request) domain.Delimiters {
	if req.Delimiters.Open != "" && req.Delimiters.Close != "" {
		return req.Delimiters
	}
	if req.Kind == domain.KindMandate {
		return domain.GuillemetDelimiters
	}
	return domain.DefaultDelimiters
}

// paragraphTokens 扫描阶段得到的段落及其占位符
type paragraphTokens struct {
	para   *ooxml.Paragraph
	tokens []domain.Token
}

// Generate 执行一次生成：加载模板、扫描、替换、汇总报告、写出文件。
// 加载失败返回 TemplateLoadError，写出失败返回 OutputWriteError，两种情况都不会留下输出文件；
// 严格模式下存在未解决项时不写文件，返回的报告 OK 为 false
func (g *Generator) Generate(ctx context.Context, req domain.Request) (*report.Report, error) {
	if req.Mapping == nil {
		req.Mapping = domain.NewMapping()
	}
	if kind, ok := domain.ParseKind(string(req.Kind)); ok {
		req.Kind = kind
	}
	b := report.NewBuilder(g.newID(), string(req.Kind), req.TemplatePath)
	logger := g.logger.With("generation_id", b.ID(), "kind", req.Kind)

	fail := func(err error) (*report.Report, error) {
		b.SetState(report.StateFailed)
		r := b.Finish(req.Strict)
		g.record(ctx, r, logger)
		logger.Error("生成失败", "template", req.TemplatePath, "error", err)
		return r, err
	}

	// LOADED
	doc, err := g.load(req)
	if err != nil {
		return fail(err)
	}
	if req.OutputPath == "" {
		return fail(&domain.OutputWriteError{Path: req.OutputPath, Err: domain.ErrEmptyPath})
	}
	if samePath(req.TemplatePath, req.OutputPath) {
		return fail(&domain.OutputWriteError{Path: req.OutputPath, Err: errors.New("输出路径不能与模板相同")})
	}
	logger.Info("模板已加载", "template", req.TemplatePath, "format", doc.Format())

	// SCANNING：先完整扫描，再修改
	b.SetState(report.StateScanning)
	scanner := matcher.NewScanner(DelimitersFor(req))
	paras, err := doc.Paragraphs()
	if err != nil {
		return fail(&domain.TemplateLoadError{Path: req.TemplatePath, Err: err})
	}
	var scanned []paragraphTokens
	for _, p := range paras {
		var toks []domain.Token
		for tok := range scanner.Tokens(p.Texts()) {
			toks = append(toks, tok)
		}
		if len(toks) > 0 {
			scanned = append(scanned, paragraphTokens{para: p, tokens: toks})
		}
	}
	slots, err := doc.Slots()
	if err != nil {
		return fail(&domain.TemplateLoadError{Path: req.TemplatePath, Err: err})
	}
	logger.Debug("扫描完成", "paragraphs", len(paras), "token_paragraphs", len(scanned), "slots", len(slots))

	// SUBSTITUTING
	b.SetState(report.StateSubstituting)
	consumed := make(map[string]bool)
	g.substitute(scanned, req.Mapping, consumed, b, logger)
	g.fillSlots(ctx, doc, slots, req, b, logger)

	// REPORTING
	b.SetState(report.StateReporting)
	pass := &Pass{Request: req, Paragraphs: paras, Report: b, consumed: consumed}
	for _, f := range g.finishers[req.Kind] {
		if err := f(pass); err != nil {
			b.Note(err.Error())
			logger.Warn("收尾步骤失败", "error", err)
		}
	}
	for _, name := range req.Mapping.Keys() {
		if isConsumed(name, consumed) || req.Mapping.IsOptional(name) {
			continue
		}
		b.Unconsumed(name, "模板中没有该占位符")
	}

	if req.Strict && b.Gaps() {
		r := b.Finish(true)
		g.record(ctx, r, logger)
		logger.Warn("严格模式下存在未解决项，未输出文件", "summary", r.Summary())
		return r, fmt.Errorf("%w: %s", domain.ErrStrictBlocked, req.TemplatePath)
	}

	// WRITTEN
	if err := g.write(doc, req, b); err != nil {
		return fail(err)
	}
	b.SetOutput(req.OutputPath)
	b.SetState(report.StateWritten)
	if doc.Format() == ooxml.FormatDocx {
		g.checkLeftovers(req.OutputPath, scanner, b, logger)
	}

	r := b.Finish(req.Strict)
	g.record(ctx, r, logger)
	logger.Info("生成完成", "output", req.OutputPath, "summary", r.Summary())
	return r, nil
}

func (g *Generator) load(req domain.Request) (*ooxml.Document, error) {
	if req.TemplatePath == "" {
		return nil, &domain.TemplateLoadError{Path: req.TemplatePath, Err: domain.ErrEmptyPath}
	}
	if _, ok := domain.ParseKind(string(req.Kind)); !ok {
		return nil, &domain.TemplateLoadError{Path: req.TemplatePath, Err: fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, req.Kind)}
	}
	doc, err := ooxml.Open(req.TemplatePath)
	if err != nil {
		return nil, &domain.TemplateLoadError{Path: req.TemplatePath, Err: err}
	}
	if want := expectedFormat(req.Kind); want != ooxml.FormatUnknown && doc.Format() != want {
		return nil, &domain.TemplateLoadError{
			Path: req.TemplatePath,
			Err:  fmt.Errorf("%w: %s 需要 %s 模板，实际为 %s", domain.ErrUnsupportedKind, req.Kind, want, doc.Format()),
		}
	}
	return doc, nil
}

// substitute 按段落从后往前替换占位符
func (g *Generator) substitute(scanned []paragraphTokens, m *domain.Mapping, consumed map[string]bool, b *report.Builder, logger *slog.Logger) {
	for _, pt := range scanned {
		for i := len(pt.tokens) - 1; i >= 0; i-- {
			tok := pt.tokens[i]
			value, ok := m.Get(tok.Name)
			if !ok {
				b.UnresolvedToken(tok.Name)
				continue
			}
			if err := RewriteToken(pt.para, tok, value); err != nil {
				b.UnresolvedToken(tok.Name)
				logger.Warn("占位符改写失败", "token", tok.Raw, "part", pt.para.Part(), "error", err)
				continue
			}
			consumed[tok.Name] = true
			b.Replaced(tok.Name)
			if strings.TrimSpace(value) == "" {
				b.EmptyValue(tok.Name)
			}
		}
	}
}

// fillSlots 为每个图片分配找到槽位并写入适配后的图片
func (g *Generator) fillSlots(ctx context.Context, doc *ooxml.Document, slots []*ooxml.Slot, req domain.Request, b *report.Builder, logger *slog.Logger) {
	targeted := make(map[*ooxml.Slot]bool)
	var placed []string

	for _, a := range req.Images {
		matched := matchSlots(slots, a.Slot)
		if len(matched) == 0 {
			switch {
			case a.Optional && isHistogram(a.Slot) && doc.Format() == ooxml.FormatPptx:
				if g.placeChart(ctx, doc, a, b, logger) {
					placed = append(placed, mapping.HistogramSlot)
				}
			case !a.Optional:
				b.Unconsumed(a.Slot, "模板中没有该图片槽位")
			}
			continue
		}
		for _, s := range matched {
			targeted[s] = true
		}

		data, err := g.loader.Load(ctx, a.Source)
		if err != nil {
			for _, s := range matched {
				b.UnresolvedSlot(s.Label(), fmt.Sprintf("无法读取图片 %s: %v", a.Source, err))
			}
			logger.Warn("图片加载失败", "slot", a.Slot, "source", a.Source.String(), "error", err)
			continue
		}
		for _, s := range matched {
			img, err := imaging.Fit(data, s.Aspect(), imaging.ParseFitMode(s.Meta("fit")))
			if err != nil {
				b.UnresolvedSlot(s.Label(), fmt.Sprintf("图片无法解码 %s: %v", a.Source, err))
				continue
			}
			if err := doc.ReplaceSlotImage(s, img); err != nil {
				b.UnresolvedSlot(s.Label(), err.Error())
				continue
			}
			b.FilledSlot(s.Label())
			logger.Debug("槽位已填充", "slot", s.Label(), "part", s.Part, "source", a.Source.String())
		}
	}

	for _, s := range slots {
		if targeted[s] || !isDesignated(s) || ignored(s, req.IgnoreSlots) {
			continue
		}
		b.UnresolvedSlot(s.Label(), "没有分配图片")
	}

	names := placed
	for _, s := range slots {
		names = append(names, s.Tags()...)
	}
	for _, r := range mapping.RequiredSlots(req.Kind) {
		if r.Satisfied(names) || slices.ContainsFunc(req.IgnoreSlots, func(n string) bool { return strings.EqualFold(n, r.Name) }) {
			continue
		}
		b.UnresolvedSlot(r.Name, "模板缺少必需的图片形状")
	}
}

// placeChart 模板没有直方图槽位时，把图表作为新图片插入含有 "Vos revenus" 的幻灯片，
// 没有这样的幻灯片时插入最后一张
func (g *Generator) placeChart(ctx context.Context, doc *ooxml.Document, a domain.ImageAssignment, b *report.Builder, logger *slog.Logger) bool {
	data, err := g.loader.Load(ctx, a.Source)
	if err != nil {
		logger.Warn("图表加载失败", "source", a.Source.String(), "error", err)
		return false
	}
	img, err := imaging.Fit(data, 0, imaging.FitCover)
	if err != nil {
		logger.Warn("图表无法解码", "error", err)
		return false
	}
	size, err := imaging.Size(img.Data)
	if err != nil {
		logger.Warn("图表无法解码", "error", err)
		return false
	}
	part, err := chartSlide(doc)
	if err != nil {
		logger.Warn("找不到可放置图表的幻灯片", "error", err)
		return false
	}

	off, ext := chartFrame(doc.SlideSize(), size)
	if _, err := doc.AddPicture(part, mapping.HistogramSlot, img, off, ext); err != nil {
		logger.Warn("插入图表失败", "part", part, "error", err)
		return false
	}
	b.Note(fmt.Sprintf("模板没有 %s 槽位，图表已插入 %s", mapping.HistogramSlot, part))
	logger.Info("图表已插入幻灯片", "part", part)
	return true
}

// chartSlide 返回第一张含有收入标题的幻灯片，没有时返回最后一张
func chartSlide(doc *ooxml.Document) (string, error) {
	paras, err := doc.Paragraphs()
	if err != nil {
		return "", err
	}
	for _, p := range paras {
		if strings.Contains(strings.ToLower(p.Text()), mapping.RevenueSlideMarker) {
			return p.Part(), nil
		}
	}
	slides := doc.Slides()
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: 没有幻灯片", ooxml.ErrPartNotFound)
	}
	return slides[len(slides)-1], nil
}

const emuPerInch = 914400

// chartFrame 图表宽 8 英寸 (窄幻灯片两侧各留 1 英寸)，水平居中，距顶部 3 英寸，放不下时上移
func chartFrame(slide ooxml.Extent, size image.Point) (ooxml.Offset, ooxml.Extent) {
	width := int64(8 * emuPerInch)
	if limit := slide.Cx - 2*emuPerInch; limit > 0 && width > limit {
		width = limit
	}
	height := width * int64(size.Y) / int64(size.X)
	top := int64(3 * emuPerInch)
	if top+height > slide.Cy {
		top = max(0, slide.Cy-height)
	}
	return ooxml.Offset{X: (slide.Cx - width) / 2, Y: top}, ooxml.Extent{Cx: width, Cy: height}
}

func isHistogram(slot string) bool {
	return strings.EqualFold(domain.CanonicalName(slot), mapping.HistogramSlot)
}

// matchSlots 按槽位名称、旧名称和直方图约定查找槽位
func matchSlots(slots []*ooxml.Slot, name string) []*ooxml.Slot {
	tags := append([]string{name}, mapping.SlotAliases[domain.CanonicalName(name)]...)
	histogram := isHistogram(name)

	var found []*ooxml.Slot
	for _, s := range slots {
		if slices.ContainsFunc(tags, s.Matches) || histogram && mapping.IsHistogramSlot(s.Name) {
			found = append(found, s)
		}
	}
	return found
}

func isDesignated(s *ooxml.Slot) bool {
	for _, t := range s.Tags() {
		if designatedSlot.MatchString(domain.CanonicalName(t)) {
			return true
		}
	}
	return false
}

func ignored(s *ooxml.Slot, names []string) bool {
	return slices.ContainsFunc(names, s.Matches)
}

// isConsumed 同一别名组中任一名称被使用即视为已使用
func isConsumed(name string, consumed map[string]bool) bool {
	if consumed[name] {
		return true
	}
	return slices.ContainsFunc(mapping.Aliases(name), func(a string) bool { return consumed[a] })
}

func (g *Generator) write(doc *ooxml.Document, req domain.Request, b *report.Builder) error {
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return &domain.OutputWriteError{Path: req.OutputPath, Err: err}
	}

	snapshot := b.Finish(req.Strict)
	props := map[string]string{
		PropGenerationID: snapshot.GenerationID,
		PropKind:         snapshot.Kind,
		PropReplaced:     strconv.Itoa(snapshot.ReplacedCount()),
		PropUnresolved:   strconv.Itoa(len(snapshot.UnresolvedTokens) + len(snapshot.UnresolvedSlots)),
	}
	if err := doc.SetCustomProperties(props); err != nil {
		return &domain.OutputWriteError{Path: req.OutputPath, Err: fmt.Errorf("写入自定义属性失败: %w", err)}
	}
	if err := doc.Save(req.OutputPath); err != nil {
		return &domain.OutputWriteError{Path: req.OutputPath, Err: err}
	}
	return nil
}

// checkLeftovers 重新读取已写出的 docx，未在报告中的残留占位符记为备注。
// 正文由 docx 库读取，页眉、页脚和脚注按段落读取
func (g *Generator) checkLeftovers(path string, scanner *matcher.Scanner, b *report.Builder, logger *slog.Logger) {
	text, err := ooxml.DocxText(path)
	if err != nil {
		logger.Warn("无法复查输出文件", "output", path, "error", err)
		return
	}
	texts := []string{text}
	extra, err := auxiliaryTexts(path)
	if err != nil {
		logger.Warn("无法复查页眉页脚", "output", path, "error", err)
	}
	texts = append(texts, extra...)

	reported := make(map[string]bool)
	for _, name := range b.Finish(false).UnresolvedTokens {
		reported[name] = true
	}
	for _, t := range texts {
		for tok := range scanner.ScanText(t) {
			if !reported[tok.Name] {
				reported[tok.Name] = true
				b.Note(fmt.Sprintf("输出文件中仍有占位符: %s", tok.Raw))
			}
		}
	}
}

// auxiliaryTexts 返回正文以外部件中每个段落的文本
func auxiliaryTexts(path string) ([]string, error) {
	doc, err := ooxml.Open(path)
	if err != nil {
		return nil, err
	}
	paras, err := doc.Paragraphs()
	if err != nil {
		return nil, err
	}
	var texts []string
	for _, p := range paras {
		if p.Part() != ooxml.DocxMainPart {
			texts = append(texts, p.Text())
		}
	}
	return texts, nil
}

func (g *Generator) record(ctx context.Context, r *report.Report, logger *slog.Logger) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.Record(ctx, r); err != nil {
		logger.Warn("保存生成记录失败", "error", err)
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
