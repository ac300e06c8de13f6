package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// IssueKind 非致命问题类型
type IssueKind string

const (
	TokenMismatch          IssueKind = "TokenMismatch"
	UnconsumedMappingEntry IssueKind = "UnconsumedMappingEntry"
	ImageSlotUnresolved    IssueKind = "ImageSlotUnresolved"
	EmptyValue             IssueKind = "EmptyValue"
	Note                   IssueKind = "Note"
)

// State 生成流程状态
type State string

const (
	StateLoaded       State = "LOADED"
	StateScanning     State = "SCANNING"
	StateSubstituting State = "SUBSTITUTING"
	StateReporting    State = "REPORTING"
	StateWritten      State = "WRITTEN"
	StateFailed       State = "FAILED"
)

// Issue 一条非致命问题
type Issue struct {
	Kind   IssueKind `json:"kind" yaml:"kind"`
	Name   string    `json:"name" yaml:"name"`
	Detail string    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (i Issue) String() string {
	if i.Detail == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Name)
	}
	return fmt.Sprintf("%s: %s (%s)", i.Kind, i.Name, i.Detail)
}

// Report 一次生成的结果报告，返回后不再修改
type Report struct {
	GenerationID      string         `json:"generation_id" yaml:"generation_id"`
	Kind              string         `json:"kind" yaml:"kind"`
	Template          string         `json:"template" yaml:"template"`
	Output            string         `json:"output,omitempty" yaml:"output,omitempty"`
	State             State          `json:"state" yaml:"state"`
	Strict            bool           `json:"strict" yaml:"strict"`
	OK                bool           `json:"ok" yaml:"ok"`
	Replaced          map[string]int `json:"replaced" yaml:"replaced"`
	UnresolvedTokens  []string       `json:"unresolved_tokens" yaml:"unresolved_tokens"`
	UnresolvedSlots   []string       `json:"unresolved_slots" yaml:"unresolved_slots"`
	UnconsumedEntries []string       `json:"unconsumed_entries" yaml:"unconsumed_entries"`
	FilledSlots       []string       `json:"filled_slots" yaml:"filled_slots"`
	EmptyValues       []string       `json:"empty_values,omitempty" yaml:"empty_values,omitempty"`
	Notes             []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	Issues            []Issue        `json:"issues,omitempty" yaml:"issues,omitempty"`
	StartedAt         time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time      `json:"finished_at" yaml:"finished_at"`
}

// HasGaps 是否存在未解决的占位符、槽位或未消费的条目
func (r *Report) HasGaps() bool {
	return len(r.UnresolvedTokens) > 0 || len(r.UnresolvedSlots) > 0 || len(r.UnconsumedEntries) > 0
}

// HasWarnings 是否存在任何需要提示用户的内容
func (r *Report) HasWarnings() bool {
	return r.HasGaps() || len(r.EmptyValues) > 0 || len(r.Notes) > 0
}

// ReplacedCount 返回替换的占位符总次数
func (r *Report) ReplacedCount() int {
	n := 0
	for _, c := range r.Replaced {
		n += c
	}
	return n
}

// Summary 返回单行摘要
func (r *Report) Summary() string {
	status := "OK"
	if !r.OK {
		status = "BLOCKED"
	}
	return fmt.Sprintf("[%s] %s: 替换 %d 处, 图片 %d, 未解析占位符 %d, 未解析槽位 %d, 未使用条目 %d",
		status, r.Kind, r.ReplacedCount(), len(r.FilledSlots),
		len(r.UnresolvedTokens), len(r.UnresolvedSlots), len(r.UnconsumedEntries))
}

// Text 返回多行的可读报告
func (r *Report) Text() string {
	var sb strings.Builder
	sb.WriteString(r.Summary())
	sb.WriteString("\n")
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&sb, "%s:\n", title)
		for _, it := range items {
			fmt.Fprintf(&sb, "  - %s\n", it)
		}
	}
	section("未解析占位符", r.UnresolvedTokens)
	section("未解析图片槽位", r.UnresolvedSlots)
	section("未使用的映射条目", r.UnconsumedEntries)
	section("空值", r.EmptyValues)
	section("备注", r.Notes)
	return sb.String()
}

// JSON 序列化为 JSON
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAML 序列化为 YAML
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Builder 在生成过程中收集结果，Finish 后得到不可变的报告
type Builder struct {
	mu sync.Mutex

	id       string
	kind     string
	template string
	output   string
	state    State
	started  time.Time

	replaced   map[string]int
	unresolved map[string]bool
	slots      map[string]bool
	unconsumed map[string]bool
	filled     map[string]bool
	empty      map[string]bool
	notes      []string
	issues     []Issue
}

// NewBuilder 创建报告构建器
func NewBuilder(id, kind, template string) *Builder {
	return &Builder{
		id:         id,
		kind:       kind,
		template:   template,
		state:      StateLoaded,
		started:    time.Now(),
		replaced:   make(map[string]int),
		unresolved: make(map[string]bool),
		slots:      make(map[string]bool),
		unconsumed: make(map[string]bool),
		filled:     make(map[string]bool),
		empty:      make(map[string]bool),
	}
}

// ID 返回生成 ID
func (b *Builder) ID() string {
	return b.id
}

// SetState 记录流程状态
func (b *Builder) SetState(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// SetOutput 记录输出路径
func (b *Builder) SetOutput(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.output = path
}

// Replaced 记录一次成功替换
func (b *Builder) Replaced(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaced[name]++
}

// UnresolvedToken 记录模板中没有映射值的占位符
func (b *Builder) UnresolvedToken(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.unresolved[name] {
		b.unresolved[name] = true
		b.issues = append(b.issues, Issue{Kind: TokenMismatch, Name: name, Detail: "映射中没有该占位符"})
	}
}

// UnresolvedSlot 记录无法填充的图片槽位
func (b *Builder) UnresolvedSlot(name, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.slots[name] {
		b.slots[name] = true
		b.issues = append(b.issues, Issue{Kind: ImageSlotUnresolved, Name: name, Detail: detail})
	}
}

// Unconsumed 记录模板中没有对应位置的映射条目或图片分配
func (b *Builder) Unconsumed(name, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.unconsumed[name] {
		b.unconsumed[name] = true
		b.issues = append(b.issues, Issue{Kind: UnconsumedMappingEntry, Name: name, Detail: detail})
	}
}

// FilledSlot 记录成功填充的槽位
func (b *Builder) FilledSlot(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filled[name] = true
}

// EmptyValue 记录映射值为空的占位符
func (b *Builder) EmptyValue(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.empty[name] {
		b.empty[name] = true
		b.issues = append(b.issues, Issue{Kind: EmptyValue, Name: name})
	}
}

// Note 记录备注，重复内容只保留一次
func (b *Builder) Note(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.notes {
		if n == msg {
			return
		}
	}
	b.notes = append(b.notes, msg)
	b.issues = append(b.issues, Issue{Kind: Note, Name: msg})
}

// Gaps 当前是否已有未解决项
func (b *Builder) Gaps() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.unresolved) > 0 || len(b.slots) > 0 || len(b.unconsumed) > 0
}

// Finish 生成报告；严格模式下存在未解决项时报告不成功
func (b *Builder) Finish(strict bool) *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := &Report{
		GenerationID:      b.id,
		Kind:              b.kind,
		Template:          b.template,
		Output:            b.output,
		State:             b.state,
		Strict:            strict,
		Replaced:          make(map[string]int, len(b.replaced)),
		UnresolvedTokens:  sortedKeys(b.unresolved),
		UnresolvedSlots:   sortedKeys(b.slots),
		UnconsumedEntries: sortedKeys(b.unconsumed),
		FilledSlots:       sortedKeys(b.filled),
		EmptyValues:       sortedKeys(b.empty),
		Notes:             append([]string(nil), b.notes...),
		Issues:            append([]Issue(nil), b.issues...),
		StartedAt:         b.started,
		FinishedAt:        time.Now(),
	}
	for k, v := range b.replaced {
		r.Replaced[k] = v
	}
	r.OK = b.state != StateFailed && !(strict && r.HasGaps())
	return r
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
