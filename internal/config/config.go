package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/allanpk716/docfill/internal/catalog"
	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/mapping"
)

// 定界符风格
const (
	DelimitersBrackets   = "brackets"
	DelimitersGuillemets = "guillemets"
)

// Keyword 表示一个关键词配置项
type Keyword struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Enabled  *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled 未设置 enabled 时视为启用
func (k Keyword) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// ChartSource 直方图数据来源：xlsx 工作表中的单行区域，例如 B4:N4
type ChartSource struct {
	Workbook string `json:"workbook" yaml:"workbook"`
	Sheet    string `json:"sheet" yaml:"sheet"`
	Labels   string `json:"labels" yaml:"labels"`
	Values   string `json:"values" yaml:"values"`
}

// Job 一个生成任务
type Job struct {
	ProjectName string `json:"project_name" yaml:"project_name"`
	Kind        string `json:"kind" yaml:"kind"`
	Template    string `json:"template" yaml:"template"`
	Output      string `json:"output,omitempty" yaml:"output,omitempty"`
	OutputDir   string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Strict      bool   `json:"strict,omitempty" yaml:"strict,omitempty"`
	Delimiters  string `json:"delimiters,omitempty" yaml:"delimiters,omitempty"`

	Keywords []Keyword                `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Images   []domain.ImageAssignment `json:"images,omitempty" yaml:"images,omitempty"`

	Estimation       *mapping.EstimationInput  `json:"estimation,omitempty" yaml:"estimation,omitempty"`
	EstimationImages *mapping.EstimationImages `json:"estimation_images,omitempty" yaml:"estimation_images,omitempty"`
	Chart            *ChartSource              `json:"chart,omitempty" yaml:"chart,omitempty"`
	Mandate          *mapping.MandateInput     `json:"mandate,omitempty" yaml:"mandate,omitempty"`
	Book             *mapping.BookInput        `json:"book,omitempty" yaml:"book,omitempty"`
	BookImages       *mapping.BookImages       `json:"book_images,omitempty" yaml:"book_images,omitempty"`

	// 配置文件所在目录，相对路径以此为基准
	BaseDir string `json:"-" yaml:"-"`
}

// ParsedKind 返回规范化后的生成类型
func (j *Job) ParsedKind() (domain.Kind, error) {
	kind, ok := domain.ParseKind(j.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, j.Kind)
	}
	return kind, nil
}

// Resolve 相对路径按配置文件目录解析
func (j *Job) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || j.BaseDir == "" {
		return path
	}
	return filepath.Join(j.BaseDir, path)
}

// DelimiterSet 返回任务指定的定界符，未指定时为零值，由生成器按类型决定
func (j *Job) DelimiterSet() domain.Delimiters {
	switch strings.ToLower(strings.TrimSpace(j.Delimiters)) {
	case DelimitersBrackets:
		return domain.DefaultDelimiters
	case DelimitersGuillemets:
		return domain.GuillemetDelimiters
	}
	return domain.Delimiters{}
}

// Address 任务对应的物业地址，用于生成输出文件名
func (j *Job) Address() string {
	switch {
	case j.Estimation != nil:
		return j.Estimation.Address
	case j.Mandate != nil:
		return j.Mandate.PropertyAddress
	case j.Book != nil:
		return j.Book.Address
	}
	return ""
}

// OutputPath 输出文件路径：优先使用 output，否则在 output_dir 下按 "<类型> - <地址>" 命名
func (j *Job) OutputPath(templatePath string) string {
	if j.Output != "" {
		return j.Resolve(j.Output)
	}
	dir := j.Resolve(j.OutputDir)
	if dir == "" {
		dir = j.BaseDir
	}
	ext := filepath.Ext(templatePath)
	return filepath.Join(dir, catalog.OutputName(j.documentLabel(templatePath), j.Address(), ext))
}

func (j *Job) documentLabel(templatePath string) string {
	kind, _ := domain.ParseKind(j.Kind)
	switch kind {
	case domain.KindEstimation:
		return "Estimation"
	case domain.KindMandate:
		return "Mandat"
	case domain.KindBook:
		return "Book"
	}
	return strings.TrimSuffix(filepath.Base(templatePath), filepath.Ext(templatePath))
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(filePath string) (*Job, error)
	ValidateConfig(job *Job) error
	BuildMapping(job *Job, now time.Time) (*domain.Mapping, error)
}

// configManager 配置管理器实现
type configManager struct{}

// NewConfigManager 创建新的配置管理器
func NewConfigManager() ConfigManager {
	return &configManager{}
}

// LoadConfig 从 YAML 或 JSON 文件加载任务，格式由扩展名决定
func (cm *configManager) LoadConfig(filePath string) (*Job, error) {
	if filePath == "" {
		return nil, fmt.Errorf("配置文件路径不能为空")
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("配置文件不存在: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var job Job
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		err = json.Unmarshal(data, &job)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &job)
	default:
		return nil, fmt.Errorf("配置文件必须是 JSON 或 YAML 格式，当前文件: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	job.BaseDir = filepath.Dir(filePath)

	normalize(&job)
	if err := cm.ValidateConfig(&job); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return &job, nil
}

// normalize 统一大小写不敏感的枚举值
func normalize(job *Job) {
	if job.Estimation != nil {
		job.Estimation.Stay = mapping.ParseStayType(string(job.Estimation.Stay))
	}
	if kind, ok := domain.ParseKind(job.Kind); ok {
		job.Kind = string(kind)
	}
}

// ValidateConfig 验证任务的有效性
func (cm *configManager) ValidateConfig(job *Job) error {
	if job == nil {
		return fmt.Errorf("配置不能为空")
	}

	kind, err := job.ParsedKind()
	if err != nil {
		return err
	}
	if strings.TrimSpace(job.Template) == "" {
		return fmt.Errorf("模板不能为空")
	}

	switch strings.ToLower(strings.TrimSpace(job.Delimiters)) {
	case "", DelimitersBrackets, DelimitersGuillemets:
	default:
		return fmt.Errorf("未知的定界符风格: %s", job.Delimiters)
	}

	switch kind {
	case domain.KindEstimation:
		if job.Estimation == nil {
			return fmt.Errorf("估价任务缺少 estimation 数据")
		}
	case domain.KindMandate:
		if job.Mandate == nil {
			return fmt.Errorf("委托书任务缺少 mandate 数据")
		}
	case domain.KindBook:
		if job.Book == nil {
			return fmt.Errorf("入住手册任务缺少 book 数据")
		}
	case domain.KindRaw:
		if len(job.Keywords) == 0 {
			return fmt.Errorf("关键词列表不能为空")
		}
	}

	// 检查关键词重复，比较规范化后的名称
	keySet := make(map[string]bool)
	for i, keyword := range job.Keywords {
		name := domain.CanonicalName(domain.StripDelimiters(keyword.Key))
		if name == "" {
			return fmt.Errorf("第 %d 个关键词的 key 不能为空", i+1)
		}
		if keySet[name] {
			return fmt.Errorf("关键词重复: %s", name)
		}
		keySet[name] = true
	}

	for i, img := range job.Images {
		if strings.TrimSpace(img.Slot) == "" {
			return fmt.Errorf("第 %d 个图片的 slot 不能为空", i+1)
		}
		if img.Source.IsZero() {
			return fmt.Errorf("图片 %s 没有来源", img.Slot)
		}
	}

	if c := job.Chart; c != nil && (c.Workbook == "" || c.Labels == "" || c.Values == "") {
		return fmt.Errorf("chart 需要 workbook、labels 和 values")
	}
	return nil
}

// BuildMapping 按任务类型构建映射，再叠加启用的关键词；关键词覆盖同名条目
func (cm *configManager) BuildMapping(job *Job, now time.Time) (*domain.Mapping, error) {
	kind, err := job.ParsedKind()
	if err != nil {
		return nil, err
	}

	var m *domain.Mapping
	switch kind {
	case domain.KindEstimation:
		m = mapping.BuildEstimation(*job.Estimation)
	case domain.KindMandate:
		m = mapping.BuildMandate(*job.Mandate, now)
	case domain.KindBook:
		m = mapping.BuildBook(*job.Book)
	default:
		m = domain.NewMapping()
	}

	for _, keyword := range job.Keywords {
		if !keyword.IsEnabled() {
			continue
		}
		if keyword.Optional {
			m.SetOptional(keyword.Key, keyword.Value)
		} else {
			m.Set(keyword.Key, keyword.Value)
		}
	}
	return m, nil
}

// ImageAssignments 任务中的全部图片分配，路径按配置文件目录解析
func (j *Job) ImageAssignments() []domain.ImageAssignment {
	var all []domain.ImageAssignment
	if j.EstimationImages != nil {
		all = append(all, j.EstimationImages.Assignments()...)
	}
	if j.BookImages != nil {
		all = append(all, j.BookImages.Assignments()...)
	}
	all = append(all, j.Images...)

	for i := range all {
		all[i].Source.Path = j.Resolve(all[i].Source.Path)
	}
	return all
}
