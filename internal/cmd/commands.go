package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/allanpk716/docfill/internal/catalog"
	"github.com/allanpk716/docfill/internal/config"
	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/history"
	"github.com/allanpk716/docfill/internal/mapping"
	"github.com/allanpk716/docfill/internal/processor"
	"github.com/allanpk716/docfill/internal/report"
)

func newGenerateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <任务文件>",
		Short: "按任务文件生成一个文档",
		Long: `读取 YAML 或 JSON 任务文件，填充模板并写出文档，随后输出生成报告。

模板加载失败、输出无法写入、或严格模式下存在未解决项时命令失败，且不会留下输出文件。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closeRunner, err := newRunner(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeRunner()

			rep, err := runner.RunJob(cmd.Context(), args[0])
			if rep != nil {
				if rerr := render(cmd.OutOrStdout(), opts.Format, rep, rep.Text); rerr != nil {
					return rerr
				}
			}
			return err
		},
	}
}

func newBatchCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <任务目录>",
		Short: "并发处理目录中的全部任务文件",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closeRunner, err := newRunner(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeRunner()

			results, err := runner.RunBatch(cmd.Context(), args[0], opts.Jobs)
			if err != nil {
				return err
			}

			var reports []*report.Report
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
				if r.Report != nil {
					reports = append(reports, r.Report)
				}
			}
			if err := render(cmd.OutOrStdout(), opts.Format, reports, func() string {
				return batchText(results)
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d/%d 个任务失败", failed, len(results))
			}
			return nil
		},
	}
}

func batchText(results []BatchResult) string {
	var sb strings.Builder
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(&sb, "%s: 失败: %v\n", r.Job, r.Err)
		case r.Report != nil:
			fmt.Fprintf(&sb, "%s: %s\n", r.Job, r.Report.Summary())
		}
	}
	return sb.String()
}

func newInspectCmd(opts *Options) *cobra.Command {
	var (
		kind       string
		delimiters string
		jobFile    string
	)
	cmd := &cobra.Command{
		Use:   "inspect <模板>",
		Short: "检查模板中的占位符和图片槽位",
		Long: `只读地检查模板：列出占位符和图片槽位，缺少必需的图片形状为 KO，存在未知占位符为 WARN。
指定 --job 时按任务的映射对照占位符，找出缺失和空值。严格模式下检查结果为 KO 时命令失败。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := &config.Job{Kind: kind, Delimiters: delimiters}
			in := processor.InspectOptions{}
			if jobFile != "" {
				loaded, err := config.NewConfigManager().LoadConfig(jobFile)
				if err != nil {
					return fmt.Errorf("加载任务失败: %w", err)
				}
				job = loaded
				m, err := config.NewConfigManager().BuildMapping(job, time.Now())
				if err != nil {
					return err
				}
				in.Mapping = m
			}
			k, err := job.ParsedKind()
			if err != nil {
				return err
			}
			in.Kind = k
			in.Delimiters = job.DelimiterSet()

			result, err := processor.Inspect(args[0], in)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), opts.Format, result, func() string {
				return inspectionText(result)
			}); err != nil {
				return err
			}
			if opts.Strict && !result.OK {
				return fmt.Errorf("%w: 模板检查未通过", domain.ErrStrictBlocked)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "文档类型: estimation|mandate|book|raw")
	cmd.Flags().StringVar(&delimiters, "delimiters", "", "定界符: brackets|guillemets")
	cmd.Flags().StringVar(&jobFile, "job", "", "用于对照的任务文件")
	return cmd
}

func newTemplatesCmd(opts *Options) *cobra.Command {
	var stay string
	cmd := &cobra.Command{
		Use:   "templates <类型>",
		Short: "列出某类型可用的模板",
		Long: `先在仓库模板目录 (--templates) 中查找，没有模板时依次使用
DOCFILL_<类型>_TEMPLATE_DIR、DOCFILL_TEMPLATE_DIR/<类型> 和 DOCFILL_TEMPLATE_DIR。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := domain.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, args[0])
			}

			cat := catalog.New(opts.TemplatesDir)
			var (
				templates []catalog.Template
				err       error
			)
			switch {
			case stay != "" && kind == domain.KindEstimation:
				templates, err = cat.ListEstimation(mapping.ParseStayType(stay))
			case stay != "" && kind == domain.KindMandate:
				templates, err = cat.ListMandate(mapping.ParseStayType(stay))
			default:
				templates, err = cat.List(kind)
			}
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, templates, func() string {
				return templatesText(templates)
			})
		},
	}
	cmd.Flags().StringVar(&stay, "stay", "", "出租类型: cd|md")
	return cmd
}

func newHistoryCmd(opts *Options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [生成ID]",
		Short: "查看生成历史",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.HistoryDSN == "" {
				return fmt.Errorf("未配置历史数据库，请使用 --history 或 %s", EnvHistoryDSN)
			}
			store, err := history.Open(cmd.Context(), opts.HistoryDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				rep, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("没有找到生成记录: %s", args[0])
				}
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.Format, rep, rep.Text)
			}

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, entries, func() string {
				return historyText(entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "显示的记录数")
	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <类型> [任务文件]",
		Short: "生成示例任务文件",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := domain.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, args[0])
			}
			path := string(kind) + ".yaml"
			if len(args) == 2 {
				path = args[1]
			}

			job, err := config.SampleJob(kind)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(job, path); err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			fmt.Fprintf(cmd.OutOrStdout(), "已生成示例任务: %s\n", abs)
			return nil
		},
	}
}
