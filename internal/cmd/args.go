package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	AppName    = "docfill"
	AppVersion = "1.0.0"
)

// 环境变量，命令行参数优先
const (
	EnvStrict       = "DOCFILL_STRICT"
	EnvHistoryDSN   = "DOCFILL_HISTORY_DSN"
	EnvTemplatesDir = "DOCFILL_REPO_TEMPLATES"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Options 全局命令行参数
type Options struct {
	TemplatesDir string
	HistoryDSN   string
	Strict       bool
	Verbose      bool
	Format       string
	Jobs         int
}

// ApplyEnv 未在命令行指定的参数从环境变量读取
func (o *Options) ApplyEnv(getenv func(string) string, changed func(string) bool) error {
	if !changed("strict") {
		if v := getenv(EnvStrict); v != "" {
			strict, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s 取值无效: %s", EnvStrict, v)
			}
			o.Strict = strict
		}
	}
	if !changed("history") {
		if v := getenv(EnvHistoryDSN); v != "" {
			o.HistoryDSN = v
		}
	}
	if !changed("templates") {
		if v := getenv(EnvTemplatesDir); v != "" {
			o.TemplatesDir = v
		}
	}
	return nil
}

// Validate 验证命令行参数
func (o *Options) Validate() error {
	switch o.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("不支持的输出格式: %s", o.Format)
	}
	if o.Jobs < 1 {
		return fmt.Errorf("并发数必须大于 0")
	}
	if o.TemplatesDir == "" {
		return fmt.Errorf("模板目录不能为空")
	}
	return nil
}

// FindJobFiles 查找目录中的所有任务文件 (.yaml/.yml/.json)，排除 Office 临时文件
func FindJobFiles(dir string) ([]string, error) {
	var jobs []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			jobs = append(jobs, path)
		}
		return nil
	})

	return jobs, err
}

// JobName 任务在日志和报告中显示的名称
func JobName(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil {
		return rel
	}
	return filepath.Base(path)
}
