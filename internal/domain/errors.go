package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath            = errors.New("路径不能为空")
	ErrUnsupportedKind      = errors.New("不支持的文档类型")
	ErrSpanOutsideParagraph = errors.New("占位符范围超出段落")
	ErrStrictBlocked        = errors.New("严格模式下存在未解决项，未输出文件")
)

// TemplateLoadError 模板无法加载（不存在、不可读、格式错误）
type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("加载模板失败: %s: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Err
}

// OutputWriteError 输出文件无法写入
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("写入输出文件失败: %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}
