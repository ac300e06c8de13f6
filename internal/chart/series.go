package chart

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowRange 工作表中单行的单元格区域，列号从 1 开始
type RowRange struct {
	Row      int
	ColStart int
	ColEnd   int
}

// Len 区域内的单元格数量
func (r RowRange) Len() int {
	return r.ColEnd - r.ColStart + 1
}

// ParseRowRange 解析 "B4:N4" 或 "C5" 形式的单行区域
func ParseRowRange(s string) (RowRange, error) {
	var parts []string
	for _, p := range strings.Split(s, ":") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 1:
		parts = append(parts, parts[0])
	case 2:
	default:
		return RowRange{}, fmt.Errorf("无效的单元格区域: %q", s)
	}

	startCol, startRow, err := excelize.SplitCellName(parts[0])
	if err != nil {
		return RowRange{}, fmt.Errorf("无效的单元格区域: %q: %w", s, err)
	}
	endCol, endRow, err := excelize.SplitCellName(parts[1])
	if err != nil {
		return RowRange{}, fmt.Errorf("无效的单元格区域: %q: %w", s, err)
	}
	if startRow != endRow {
		return RowRange{}, fmt.Errorf("图表区域必须在同一行: %q", s)
	}
	c1, err := excelize.ColumnNameToNumber(startCol)
	if err != nil {
		return RowRange{}, err
	}
	c2, err := excelize.ColumnNameToNumber(endCol)
	if err != nil {
		return RowRange{}, err
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	return RowRange{Row: startRow, ColStart: c1, ColEnd: c2}, nil
}

// LoadSeries 从 xlsx 文件读取标签行和数值行
func LoadSeries(r io.Reader, sheet, labelRange, valueRange string) (Series, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Series{}, fmt.Errorf("打开 Excel 文件失败: %w", err)
	}
	defer f.Close()

	lr, err := ParseRowRange(labelRange)
	if err != nil {
		return Series{}, err
	}
	vr, err := ParseRowRange(valueRange)
	if err != nil {
		return Series{}, err
	}
	if lr.Len() != vr.Len() {
		return Series{}, fmt.Errorf("%w: %s / %s", ErrLengthMismatch, labelRange, valueRange)
	}

	labels, err := readRow(f, sheet, lr)
	if err != nil {
		return Series{}, err
	}
	raw, err := readRow(f, sheet, vr)
	if err != nil {
		return Series{}, err
	}
	values := make([]float64, len(raw))
	for i, v := range raw {
		values[i] = ParseAmount(v)
	}
	return Series{Title: sheet, Labels: labels, Values: values}, nil
}

func readRow(f *excelize.File, sheet string, r RowRange) ([]string, error) {
	out := make([]string, 0, r.Len())
	for col := r.ColStart; col <= r.ColEnd; col++ {
		cell, err := excelize.CoordinatesToCellName(col, r.Row)
		if err != nil {
			return nil, err
		}
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("读取单元格 %s!%s 失败: %w", sheet, cell, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseAmount 解析 "1 234,50 €" 这类金额，无法解析时返回 0
func ParseAmount(s string) float64 {
	s = strings.NewReplacer("€", "", " ", "", "\u00a0", "", "\u202f", "", ",", ".").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
