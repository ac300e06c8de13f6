package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/allanpk716/docfill/internal/catalog"
	"github.com/allanpk716/docfill/internal/history"
	"github.com/allanpk716/docfill/internal/processor"
)

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Office 模板填充工具 (pptx/docx)",
		Long: `docfill 按映射填充 pptx/docx 模板中的 [[NAME]] 或 «NAME» 占位符和图片槽位，
保留模板原有格式，并为每次生成输出报告。

支持估价演示文稿 (estimation)、委托书 (mandate)、入住手册 (book) 和通用模板 (raw)。`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env 文件可选
			_ = godotenv.Load()
			if err := opts.ApplyEnv(os.Getenv, cmd.Flags().Changed); err != nil {
				return err
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.Verbose))
			return opts.Validate()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.TemplatesDir, "templates", "templates", "仓库模板目录")
	flags.StringVar(&opts.HistoryDSN, "history", "", "历史数据库连接串 (SQLite 文件或 postgres://)")
	flags.BoolVar(&opts.Strict, "strict", false, "严格模式：存在未解决项时不写出文件")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "详细输出")
	flags.StringVarP(&opts.Format, "format", "f", FormatText, "输出格式: text|json|yaml")
	flags.IntVarP(&opts.Jobs, "jobs", "j", 4, "批量处理的并发数")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newBatchCmd(opts),
		newInspectCmd(opts),
		newTemplatesCmd(opts),
		newHistoryCmd(opts),
		newInitCmd(),
	)
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newRunner 按参数创建任务执行器，返回的函数用于关闭历史数据库
func newRunner(ctx context.Context, opts *Options) (*Runner, func(), error) {
	logger := slog.Default()

	var (
		recorder processor.Recorder
		closer   = func() {}
	)
	if opts.HistoryDSN != "" {
		store, err := history.Open(ctx, opts.HistoryDSN)
		if err != nil {
			return nil, nil, err
		}
		recorder = store
		closer = func() {
			if err := store.Close(); err != nil {
				logger.Warn("关闭历史数据库失败", "error", err)
			}
		}
	}

	gen := NewGenerator(logger, recorder)
	return NewRunner(gen, catalog.New(opts.TemplatesDir), opts.Strict, logger), closer, nil
}
