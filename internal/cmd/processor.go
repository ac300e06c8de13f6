package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allanpk716/docfill/internal/catalog"
	"github.com/allanpk716/docfill/internal/chart"
	"github.com/allanpk716/docfill/internal/config"
	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/mapping"
	"github.com/allanpk716/docfill/internal/processor"
	"github.com/allanpk716/docfill/internal/qrcode"
	"github.com/allanpk716/docfill/internal/report"
)

// Generator 执行一次生成
type Generator interface {
	Generate(ctx context.Context, req domain.Request) (*report.Report, error)
}

// Runner 把任务文件转换为生成请求并执行
type Runner struct {
	manager   config.ConfigManager
	catalog   *catalog.Catalog
	generator Generator
	logger    *slog.Logger
	strict    bool
	now       func() time.Time
}

// NewRunner 创建任务执行器；strict 为 true 时所有任务都按严格模式处理
func NewRunner(gen Generator, cat *catalog.Catalog, strict bool, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		manager:   config.NewConfigManager(),
		catalog:   cat,
		generator: gen,
		logger:    logger,
		strict:    strict,
		now:       time.Now,
	}
}

// BatchResult 批量处理中一个任务的结果
type BatchResult struct {
	Job    string
	Report *report.Report
	Err    error
}

// RunJob 处理单个任务文件
func (r *Runner) RunJob(ctx context.Context, jobFile string) (*report.Report, error) {
	job, err := r.manager.LoadConfig(jobFile)
	if err != nil {
		return nil, fmt.Errorf("加载任务失败: %w", err)
	}
	req, err := r.BuildRequest(job)
	if err != nil {
		return nil, err
	}

	r.logger.Info("处理任务", "job", jobFile, "kind", req.Kind, "template", req.TemplatePath, "output", req.OutputPath)
	return r.generator.Generate(ctx, req)
}

// RunBatch 并发处理目录中的全部任务；单个任务失败不会中断其他任务
func (r *Runner) RunBatch(ctx context.Context, dir string, limit int) ([]BatchResult, error) {
	jobFiles, err := FindJobFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("查找任务文件失败: %w", err)
	}
	if len(jobFiles) == 0 {
		return nil, fmt.Errorf("在目录 %s 中没有找到任务文件", dir)
	}

	r.logger.Info("找到任务文件", "count", len(jobFiles), "dir", dir)

	results := make([]BatchResult, len(jobFiles))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, jobFile := range jobFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := JobName(dir, jobFile)
			r.logger.Info("处理文件", "index", i+1, "total", len(jobFiles), "job", name)

			rep, err := r.RunJob(ctx, jobFile)
			results[i] = BatchResult{Job: name, Report: rep, Err: err}
			if err != nil {
				r.logger.Warn("处理文件失败", "job", name, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	r.logger.Info("批量处理完成", "count", len(jobFiles))
	return results, nil
}

// BuildRequest 根据任务构建生成请求，并生成图表、二维码等派生图片
func (r *Runner) BuildRequest(job *config.Job) (domain.Request, error) {
	kind, err := job.ParsedKind()
	if err != nil {
		return domain.Request{}, err
	}
	m, err := r.manager.BuildMapping(job, r.now())
	if err != nil {
		return domain.Request{}, err
	}

	tpl := r.resolveTemplate(kind, job)
	req := domain.Request{
		Kind:         kind,
		TemplatePath: tpl,
		OutputPath:   job.OutputPath(tpl),
		Mapping:      m,
		Images:       job.ImageAssignments(),
		Delimiters:   job.DelimiterSet(),
		Strict:       job.Strict || r.strict,
	}

	switch kind {
	case domain.KindEstimation:
		r.addHistogram(job, &req)
	case domain.KindBook:
		r.addWifiQR(job, &req)
	}
	return req, nil
}

// resolveTemplate 先按任务文件目录查找模板，找不到时在模板目录中按名称查找
func (r *Runner) resolveTemplate(kind domain.Kind, job *config.Job) string {
	path := job.Resolve(job.Template)
	if _, err := os.Stat(path); err == nil || r.catalog == nil || kind == domain.KindRaw {
		return path
	}
	tpl, err := r.catalog.Find(kind, job.Template)
	if err != nil {
		r.logger.Debug("模板目录中没有找到模板", "template", job.Template, "error", err)
		return path
	}
	return tpl.Path
}

// addHistogram 短租估价生成价格直方图；中租模板不需要直方图
func (r *Runner) addHistogram(job *config.Job, req *domain.Request) {
	est := job.Estimation
	if est.Stay == mapping.StayMedium {
		req.IgnoreSlots = append(req.IgnoreSlots, mapping.HistogramSlot)
		return
	}
	if assigned(req.Images, mapping.HistogramSlot) {
		return
	}

	series := chart.Histogram(est.Revenue.NightlyPrice)
	if c := job.Chart; c != nil {
		loaded, err := loadSeries(job.Resolve(c.Workbook), c)
		if err != nil {
			r.logger.Warn("读取图表数据失败，使用季节系数", "workbook", c.Workbook, "error", err)
		} else {
			series = loaded
		}
	}

	png, err := chart.Render(series, chart.DefaultOptions())
	if err != nil {
		r.logger.Warn("生成直方图失败", "error", err)
		return
	}
	req.Images = append(req.Images, domain.ImageAssignment{
		Slot:     mapping.HistogramSlot,
		Source:   domain.ImageSource{Data: png},
		Optional: true,
	})
}

func loadSeries(path string, c *config.ChartSource) (chart.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return chart.Series{}, err
	}
	defer f.Close()
	return chart.LoadSeries(f, c.Sheet, c.Labels, c.Values)
}

// addWifiQR 入住手册有网络名称时生成 WiFi 二维码
func (r *Runner) addWifiQR(job *config.Job, req *domain.Request) {
	if strings.TrimSpace(job.Book.NetworkName) == "" || assigned(req.Images, mapping.SlotWifiQR) {
		return
	}
	png, err := qrcode.WifiPNG(job.Book.NetworkName, job.Book.NetworkPass, qrcode.DefaultSize)
	if err != nil {
		r.logger.Warn("生成 WiFi 二维码失败", "error", err)
		return
	}
	req.Images = append(req.Images, domain.ImageAssignment{
		Slot:     mapping.SlotWifiQR,
		Source:   domain.ImageSource{Data: png},
		Optional: true,
	})
}

func assigned(images []domain.ImageAssignment, slot string) bool {
	return slices.ContainsFunc(images, func(a domain.ImageAssignment) bool {
		return strings.EqualFold(domain.CanonicalName(a.Slot), slot)
	})
}

// NewGenerator 按参数创建生成器
func NewGenerator(logger *slog.Logger, recorder processor.Recorder) *processor.Generator {
	opts := []processor.Option{processor.WithLogger(logger)}
	if recorder != nil {
		opts = append(opts, processor.WithRecorder(recorder))
	}
	return processor.NewGenerator(opts...)
}
