package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/allanpk716/docfill/internal/catalog"
	"github.com/allanpk716/docfill/internal/history"
	"github.com/allanpk716/docfill/internal/processor"
)

// render 按格式输出；text 格式使用 text 函数的结果
func render(w io.Writer, format string, v any, text func() string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(v)
	default:
		data = []byte(text())
	}
	if err != nil {
		return fmt.Errorf("序列化输出失败: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func inspectionText(in *processor.Inspection) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s (%s, %s)\n", in.Severity, in.Template, in.Kind, in.Format)
	fmt.Fprintf(&sb, "占位符 (%d): %s\n", len(in.Tokens), strings.Join(in.Tokens, ", "))
	if len(in.Slots) > 0 {
		sb.WriteString("图片槽位:\n")
		for _, s := range in.Slots {
			fmt.Fprintf(&sb, "  - %s (%s, %s, fit=%s, %.2f)\n", s.Label, s.Kind, s.Part, s.Fit, s.Aspect)
		}
	}
	if a := in.Audit; a != nil {
		fmt.Fprintf(&sb, "映射对照: 缺失 %d, 空值 %d, 正常 %d\n", len(a.Missing), len(a.Empty), len(a.OK))
		for _, name := range a.Missing {
			fmt.Fprintf(&sb, "  - 缺失: %s\n", name)
		}
		for _, name := range a.Empty {
			fmt.Fprintf(&sb, "  - 空值: %s\n", name)
		}
	}
	for _, n := range in.Notes {
		fmt.Fprintf(&sb, "备注: %s\n", n)
	}
	return sb.String()
}

func templatesText(templates []catalog.Template) string {
	if len(templates) == 0 {
		return "没有找到模板\n"
	}
	var sb strings.Builder
	for _, t := range templates {
		fmt.Fprintf(&sb, "%s\t%s\t%s\n", t.Label, t.Source, t.Path)
	}
	return sb.String()
}

func historyText(entries []history.Entry) string {
	if len(entries) == 0 {
		return "没有生成记录\n"
	}
	var sb strings.Builder
	for _, e := range entries {
		status := "OK"
		if !e.OK {
			status = "BLOCKED"
		}
		fmt.Fprintf(&sb, "%s  %-8s %-10s %-7s 替换 %d, 未解析 %d  %s (%s)\n",
			e.GenerationID, status, e.Kind, e.State, e.Replaced, e.Unresolved,
			e.Output, humanize.Time(e.FinishedAt))
	}
	return sb.String()
}
