package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/mapping"
)

// 环境变量：模板根目录和各类型的目录
const (
	EnvTemplateRoot   = "DOCFILL_TEMPLATE_DIR"
	EnvEstimationDir  = "DOCFILL_ESTIMATION_TEMPLATE_DIR"
	EnvMandateDir     = "DOCFILL_MANDATE_TEMPLATE_DIR"
	EnvBookDir        = "DOCFILL_BOOK_TEMPLATE_DIR"
	maxFilenameLength = 150
)

// ErrTemplateNotFound 没有找到指定模板
var ErrTemplateNotFound = errors.New("未找到模板")

// Source 模板来源
type Source string

const (
	SourceRepo Source = "repo"
	SourceEnv  Source = "env"
)

// Template 一个可用模板
type Template struct {
	Label  string `json:"label" yaml:"label"`
	Source Source `json:"source" yaml:"source"`
	Path   string `json:"path" yaml:"path"`
}

// Catalog 按类型列出模板：优先使用仓库目录，没有模板时回退到环境变量指定的目录
type Catalog struct {
	root   string
	getenv func(string) string
}

// New 创建模板目录，root 为仓库中的 templates 目录
func New(root string) *Catalog {
	return &Catalog{root: root, getenv: os.Getenv}
}

// WithEnv 使用指定的环境变量读取函数，返回新的目录
func (c *Catalog) WithEnv(getenv func(string) string) *Catalog {
	return &Catalog{root: c.root, getenv: getenv}
}

// Extension 各类型模板的扩展名
func Extension(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindEstimation, domain.KindBook:
		return ".pptx", nil
	case domain.KindMandate:
		return ".docx", nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, kind)
}

func subdir(kind domain.Kind) string {
	if kind == domain.KindMandate {
		return "mandat"
	}
	return string(kind)
}

func (c *Catalog) kindEnv(kind domain.Kind) string {
	switch kind {
	case domain.KindEstimation:
		return c.getenv(EnvEstimationDir)
	case domain.KindMandate:
		return c.getenv(EnvMandateDir)
	case domain.KindBook:
		return c.getenv(EnvBookDir)
	}
	return ""
}

// RepoDir 仓库中某类型模板的目录
func (c *Catalog) RepoDir(kind domain.Kind) string {
	return filepath.Join(c.root, subdir(kind))
}

// FallbackDirs 回退目录，按优先级排列
func (c *Catalog) FallbackDirs(kind domain.Kind) []string {
	var dirs []string
	if d := c.kindEnv(kind); d != "" {
		dirs = append(dirs, d)
	}
	if root := c.getenv(EnvTemplateRoot); root != "" {
		dirs = append(dirs, filepath.Join(root, subdir(kind)), root)
	}
	return dirs
}

// List 列出某类型的模板
func (c *Catalog) List(kind domain.Kind) ([]Template, error) {
	ext, err := Extension(kind)
	if err != nil {
		return nil, err
	}
	return c.firstNonEmpty(ext, []string{c.RepoDir(kind)}, c.FallbackDirs(kind))
}

// ListEstimation 列出估价模板，优先 templates/estimation/<cd|md>
func (c *Catalog) ListEstimation(stay mapping.StayType) ([]Template, error) {
	repo := []string{
		filepath.Join(c.RepoDir(domain.KindEstimation), strings.ToLower(string(stay))),
		c.RepoDir(domain.KindEstimation),
	}
	return c.firstNonEmpty(".pptx", repo, c.FallbackDirs(domain.KindEstimation))
}

// ListMandate 列出委托书模板，优先 templates/mandat/<cd|md>，其次按名称筛选的旧目录
func (c *Catalog) ListMandate(stay mapping.StayType) ([]Template, error) {
	typed, err := ListDir(filepath.Join(c.RepoDir(domain.KindMandate), strings.ToLower(string(stay))), ".docx", SourceRepo)
	if err != nil {
		return nil, err
	}
	if len(typed) > 0 {
		return typed, nil
	}
	legacy, err := ListDir(c.RepoDir(domain.KindMandate), ".docx", SourceRepo)
	if err != nil {
		return nil, err
	}
	if filtered := FilterMandate(legacy, stay); len(filtered) > 0 {
		return filtered, nil
	}
	return c.firstNonEmpty(".docx", nil, c.FallbackDirs(domain.KindMandate))
}

// Find 按名称查找模板，名称可以省略扩展名，大小写不敏感；也接受已存在的文件路径
func (c *Catalog) Find(kind domain.Kind, name string) (Template, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return Template{Label: filepath.Base(name), Source: SourceEnv, Path: name}, nil
	}
	templates, err := c.List(kind)
	if err != nil {
		return Template{}, err
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, t := range templates {
		label := strings.ToLower(t.Label)
		if label == want || strings.TrimSuffix(label, strings.ToLower(filepath.Ext(label))) == want {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s (%s)", ErrTemplateNotFound, name, kind)
}

func (c *Catalog) firstNonEmpty(ext string, repo, fallback []string) ([]Template, error) {
	for _, group := range []struct {
		dirs   []string
		source Source
	}{{repo, SourceRepo}, {fallback, SourceEnv}} {
		for _, dir := range group.dirs {
			templates, err := ListDir(dir, ext, group.source)
			if err != nil {
				return nil, err
			}
			if len(templates) > 0 {
				return templates, nil
			}
		}
	}
	return nil, nil
}

// ListDir 列出目录中指定扩展名的文件，不进入子目录，跳过 Office 临时文件 (~$)，
// 按名称大小写不敏感排序；目录不存在时返回空
func ListDir(dir, ext string, source Source) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取模板目录失败: %w", err)
	}

	var templates []Template
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		templates = append(templates, Template{Label: name, Source: source, Path: filepath.Join(dir, name)})
	}
	slices.SortFunc(templates, func(a, b Template) int {
		return strings.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
	})
	return templates, nil
}

// FilterMandate 按租期筛选委托书模板：MD 匹配 "md" 或 "bail mobilité"，CD 匹配 "cd" 或 "courte durée"
func FilterMandate(templates []Template, stay mapping.StayType) []Template {
	needles := []string{"cd", "courte durée"}
	if stay == mapping.StayMedium {
		needles = []string{"md", "bail mobilité"}
	}
	var filtered []Template
	for _, t := range templates {
		label := strings.ToLower(domain.CanonicalName(t.Label))
		if slices.ContainsFunc(needles, func(n string) bool { return strings.Contains(label, n) }) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)
	spaces      = regexp.MustCompile(`\s+`)
)

// SanitizeFilename 去掉文件名中不允许的字符，合并空白并限制长度
func SanitizeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(domain.CanonicalName(name), " ")
	name = spaces.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")
	if runes := []rune(name); len(runes) > maxFilenameLength {
		name = strings.TrimRight(string(runes[:maxFilenameLength]), " .")
	}
	return name
}

// OutputName 生成 "<类型> - <地址>.<扩展名>" 形式的输出文件名，地址为空时只用类型
func OutputName(docType, address, ext string) string {
	ext = "." + strings.TrimPrefix(ext, ".")
	base := SanitizeFilename(docType)
	if addr := SanitizeFilename(address); addr != "" {
		base += " - " + addr
	}
	if base == "" {
		base = "document"
	}
	return base + ext
}
