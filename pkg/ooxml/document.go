package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

var (
	ErrUnsupportedFormat = errors.New("不支持的文档格式")
	ErrLegacyFormat      = errors.New("旧版二进制 Office 格式")
	ErrPartNotFound      = errors.New("文档部件不存在")
	ErrNotImageSlot      = errors.New("形状不能承载图片")
)

// Format 文档格式
type Format int

const (
	FormatUnknown Format = iota
	FormatDocx
	FormatPptx
)

// DocxMainPart 文字处理文档的正文部件
const DocxMainPart = "word/document.xml"

func (f Format) String() string {
	switch f {
	case FormatDocx:
		return "docx"
	case FormatPptx:
		return "pptx"
	}
	return "unknown"
}

// entry ZIP 中的一个文件
type entry struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document 内存中的 OOXML 文档，模板文件本身只读
type Document struct {
	name    string
	format  Format
	entries []*entry
	byName  map[string]*entry
	parts   map[string]*etree.Document
	dirty   map[string]bool
}

// Open 从文件加载文档
func Open(filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return Read(data, filepath.Base(filePath))
}

// Read 从内存数据加载文档
func Read(data []byte, name string) (*Document, error) {
	if IsLegacy(data) {
		info, err := DescribeLegacy(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrLegacyFormat, info)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("不是有效的 OOXML 压缩包: %w", err)
	}

	d := &Document{
		name:   name,
		byName: make(map[string]*entry),
		parts:  make(map[string]*etree.Document),
		dirty:  make(map[string]bool),
	}
	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("打开文件 %s 失败: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("读取文件 %s 失败: %w", file.Name, err)
		}
		e := &entry{name: file.Name, method: file.Method, modified: file.Modified, data: content}
		d.entries = append(d.entries, e)
		d.byName[file.Name] = e
	}

	d.format = detectFormat(d)
	if d.format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return d, nil
}

func detectFormat(d *Document) Format {
	if !d.Has(contentTypesPart) {
		return FormatUnknown
	}
	switch {
	case d.Has(DocxMainPart):
		return FormatDocx
	case d.Has("ppt/presentation.xml"):
		return FormatPptx
	}
	return FormatUnknown
}

// Name 返回文档名称
func (d *Document) Name() string { return d.name }

// Format 返回文档格式
func (d *Document) Format() Format { return d.format }

// Has 判断部件是否存在
func (d *Document) Has(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// PartNames 返回所有部件名称，保持压缩包中的顺序
func (d *Document) PartNames() []string {
	names := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		names = append(names, e.name)
	}
	return names
}

// Raw 返回部件的原始字节，已解析并修改的部件会重新序列化
func (d *Document) Raw(name string) ([]byte, error) {
	e, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	if doc, ok := d.parts[name]; ok && d.dirty[name] {
		return doc.WriteToBytes()
	}
	return e.data, nil
}

// XML 解析并缓存 XML 部件
func (d *Document) XML(name string) (*etree.Document, error) {
	if doc, ok := d.parts[name]; ok {
		return doc, nil
	}
	e, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(e.data); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("解析 %s 失败: 没有根元素", name)
	}
	d.parts[name] = doc
	return doc, nil
}

// xmlOrCreate 返回 XML 部件，不存在时用 seed 创建
func (d *Document) xmlOrCreate(name, seed string) (*etree.Document, error) {
	if !d.Has(name) {
		d.put(name, []byte(seed))
	}
	return d.XML(name)
}

// touch 标记部件已修改，保存时重新序列化
func (d *Document) touch(name string) {
	d.dirty[name] = true
}

// put 新增或覆盖部件的原始数据
func (d *Document) put(name string, data []byte) {
	if e, ok := d.byName[name]; ok {
		e.data = data
		delete(d.parts, name)
		delete(d.dirty, name)
		return
	}
	e := &entry{name: name, method: zip.Deflate, modified: time.Now(), data: data}
	d.entries = append(d.entries, e)
	d.byName[name] = e
}

// TextParts 返回包含正文段落的部件，按阅读顺序排列
func (d *Document) TextParts() []string {
	var parts []string
	switch d.format {
	case FormatDocx:
		parts = append(parts, DocxMainPart)
		var extra []string
		for _, e := range d.entries {
			if wordExtraPart.MatchString(e.name) {
				extra = append(extra, e.name)
			}
		}
		sort.Strings(extra)
		parts = append(parts, extra...)
	case FormatPptx:
		parts = d.Slides()
	}
	return parts
}

var (
	wordExtraPart = regexp.MustCompile(`^word/(header\d*|footer\d*|footnotes|endnotes)\.xml$`)
	slidePart     = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

// Slides 返回幻灯片部件，按编号排序
func (d *Document) Slides() []string {
	type slide struct {
		name string
		num  int
	}
	var slides []slide
	for _, e := range d.entries {
		if m := slidePart.FindStringSubmatch(e.name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{e.name, n})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}

// Write 将文档写为 ZIP，保持原有顺序，新部件追加在末尾
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, e := range d.entries {
		data, err := d.Raw(e.name)
		if err != nil {
			return err
		}
		hdr := &zip.FileHeader{Name: e.name, Method: e.method, Modified: e.modified}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("创建文件 %s 失败: %w", e.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("写入文件 %s 失败: %w", e.name, err)
		}
	}
	return zw.Close()
}

// Bytes 返回序列化后的文档
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save 写入目标路径，先写同目录临时文件再重命名，失败时不留下部分文件
func (d *Document) Save(outputPath string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	writeErr := d.Write(tmp)
	var syncErr error
	if writeErr == nil {
		syncErr = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err = errors.Join(writeErr, syncErr, closeErr); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}

	if err = os.Rename(tmpName, outputPath); err != nil {
		return fmt.Errorf("重命名输出文件失败: %w", err)
	}
	return nil
}

// mediaDir 返回新图片部件所在目录
func (d *Document) mediaDir() string {
	if d.format == FormatDocx {
		return "word/media/"
	}
	return "ppt/media/"
}

// relativeTarget 计算从 fromDir 到 target 的相对路径
func relativeTarget(fromDir, target string) string {
	from := splitPath(fromDir)
	to := splitPath(target)
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	var parts []string
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

// resolveTarget 将关系中的相对路径还原为部件名称
func resolveTarget(owner, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return strings.TrimPrefix(path.Clean(path.Join(path.Dir(owner), target)), "/")
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}
