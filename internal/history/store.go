package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/allanpk716/docfill/internal/report"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("生成记录不存在")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS generation (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    template TEXT NOT NULL,
    output TEXT,
    state TEXT NOT NULL,
    ok INTEGER NOT NULL,
    replaced INTEGER NOT NULL,
    unresolved INTEGER NOT NULL,
    finished_at TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_generation_finished_at ON generation(finished_at);
`

// Entry 历史记录摘要
type Entry struct {
	GenerationID string       `json:"generation_id" yaml:"generation_id"`
	Kind         string       `json:"kind" yaml:"kind"`
	Template     string       `json:"template" yaml:"template"`
	Output       string       `json:"output" yaml:"output"`
	State        report.State `json:"state" yaml:"state"`
	OK           bool         `json:"ok" yaml:"ok"`
	Replaced     int          `json:"replaced" yaml:"replaced"`
	Unresolved   int          `json:"unresolved" yaml:"unresolved"`
	FinishedAt   time.Time    `json:"finished_at" yaml:"finished_at"`
}

// Store 生成报告的历史存储，支持 SQLite 和 PostgreSQL
type Store struct {
	db     *sql.DB
	driver string
}

// DriverFor 根据连接串选择驱动：postgres:// 使用 PostgreSQL，其余视为 SQLite 文件
func DriverFor(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	}
	return DriverSQLite, dsn
}

// Open 打开存储并创建表结构
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("历史数据库连接串为空")
	}
	driver, source := DriverFor(dsn)
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("打开历史数据库失败: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	s := New(db, driver)
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New 使用已有连接创建存储
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// CreateSchema 创建表结构，可重复调用
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("创建历史表失败: %w", err)
	}
	return nil
}

// Close 关闭连接
func (s *Store) Close() error {
	return s.db.Close()
}

// Record 保存一份报告，同一 ID 重复保存时覆盖
func (s *Store) Record(ctx context.Context, r *report.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	ok := 0
	if r.OK {
		ok = 1
	}
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	query := s.rebind(`INSERT INTO generation (id, kind, template, output, state, ok, replaced, unresolved, finished_at, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET state = excluded.state, ok = excluded.ok, output = excluded.output,
    replaced = excluded.replaced, unresolved = excluded.unresolved, finished_at = excluded.finished_at, payload = excluded.payload`)
	_, err = s.db.ExecContext(ctx, query,
		r.GenerationID, r.Kind, r.Template, r.Output, string(r.State), ok,
		r.ReplacedCount(), len(r.UnresolvedTokens)+len(r.UnresolvedSlots),
		finished.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return fmt.Errorf("保存生成记录失败: %w", err)
	}
	return nil
}

// Recent 返回最近的 limit 条记录，按完成时间倒序
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := s.rebind(`SELECT id, kind, template, output, state, ok, replaced, unresolved, finished_at
FROM generation ORDER BY finished_at DESC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("查询生成记录失败: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			output   sql.NullString
			state    string
			ok       int
			finished string
		)
		if err := rows.Scan(&e.GenerationID, &e.Kind, &e.Template, &output, &state, &ok, &e.Replaced, &e.Unresolved, &finished); err != nil {
			return nil, fmt.Errorf("读取生成记录失败: %w", err)
		}
		e.Output = output.String
		e.State = report.State(state)
		e.OK = ok == 1
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get 读取完整报告
func (s *Store) Get(ctx context.Context, id string) (*report.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM generation WHERE id = ?`), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询生成记录失败: %w", err)
	}
	var r report.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("解析生成记录失败: %w", err)
	}
	return &r, nil
}

// rebind 把 ? 占位符转换为 PostgreSQL 的 $n
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
