package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/mapping"
)

// SampleJob 生成某类型的示例任务
func SampleJob(kind domain.Kind) (*Job, error) {
	job := &Job{
		ProjectName: "示例项目",
		Kind:        string(kind),
		OutputDir:   "output",
	}

	switch kind {
	case domain.KindEstimation:
		job.Template = "Estimation.pptx"
		job.Estimation = &mapping.EstimationInput{
			Stay:       mapping.StayShort,
			Address:    "12 rue Oberkampf, 75011 Paris",
			MetroLines: []string{"5", "9"},
			Surface:    45,
			Rooms:      2,
			Bathrooms:  1,
			Beds:       4,
			Revenue: mapping.RevenueInput{
				NightlyPrice:   120,
				OccupancyPct:   75,
				PlatformFeePct: 3,
				CommissionPct:  20,
			},
		}
		job.EstimationImages = &mapping.EstimationImages{
			Map: domain.ImageSource{Path: "images/map.png"},
		}
	case domain.KindMandate:
		job.Template = "Mandat CD.docx"
		job.Mandate = &mapping.MandateInput{
			OwnerLastName:   "Dupont",
			OwnerFirstName:  "Marie",
			PropertyAddress: "12 rue Oberkampf, 75011 Paris",
			CommissionPct:   "20",
		}
	case domain.KindBook:
		job.Template = "Book.pptx"
		job.Book = &mapping.BookInput{
			Address:     "12 rue Oberkampf, 75011 Paris",
			MetroLines:  []string{"5", "9"},
			NetworkName: "Maison",
			NetworkPass: "motdepasse",
		}
	case domain.KindRaw:
		job.Template = "modele.docx"
		job.Keywords = []Keyword{
			{Key: "NOM", Value: "Dupont"},
			{Key: "VILLE", Value: "Paris", Optional: true},
		}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, kind)
	}
	return job, nil
}

// SaveConfig 保存任务到文件，格式由扩展名决定，已存在的文件不会被覆盖
func SaveConfig(job *Job, filePath string) error {
	if job == nil {
		return fmt.Errorf("配置不能为空")
	}
	if err := NewConfigManager().ValidateConfig(job); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		data, err = json.MarshalIndent(job, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(job)
	default:
		return fmt.Errorf("配置文件必须是 JSON 或 YAML 格式，当前文件: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return f.Close()
}
