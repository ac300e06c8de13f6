package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/allanpk716/docfill/internal/domain"
)

var (
	ErrEmptySource    = errors.New("图片来源为空")
	ErrTooLarge       = errors.New("图片超过大小限制")
	ErrUnsupportedURL = errors.New("只支持 http/https 图片地址")
)

const (
	DefaultTTL      = 30 * time.Minute
	DefaultMaxBytes = 20 << 20
	DefaultTimeout  = 20 * time.Second
)

// Loader 按路径、内存数据或 URL 加载图片，URL 下载结果按 TTL 缓存
type Loader struct {
	client   *http.Client
	cache    *cache.Cache
	group    singleflight.Group
	limiter  *rate.Limiter
	maxBytes int64
	logger   *slog.Logger
}

// Option Loader 配置项
type Option func(*Loader)

// WithHTTPClient 指定下载使用的 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithRateLimit 限制每秒下载次数
func WithRateLimit(perSecond float64, burst int) Option {
	return func(l *Loader) { l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithMaxBytes 限制单张图片大小
func WithMaxBytes(n int64) Option {
	return func(l *Loader) { l.maxBytes = n }
}

// WithLogger 指定日志记录器
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader 创建图片加载器
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client:   &http.Client{Timeout: DefaultTimeout},
		cache:    cache.New(DefaultTTL, 2*DefaultTTL),
		limiter:  rate.NewLimiter(rate.Limit(4), 4),
		maxBytes: DefaultMaxBytes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load 读取图片数据
func (l *Loader) Load(ctx context.Context, src domain.ImageSource) ([]byte, error) {
	switch {
	case len(src.Data) > 0:
		if int64(len(src.Data)) > l.maxBytes {
			return nil, fmt.Errorf("%w: %s", ErrTooLarge, humanize.Bytes(uint64(len(src.Data))))
		}
		return src.Data, nil
	case src.Path != "":
		return l.readFile(src.Path)
	case src.URL != "":
		return l.fetch(ctx, src.URL)
	}
	return nil, ErrEmptySource
}

func (l *Loader) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取图片文件: %w", err)
	}
	if info.Size() > l.maxBytes {
		return nil, fmt.Errorf("%w: %s (%s)", ErrTooLarge, path, humanize.Bytes(uint64(info.Size())))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取图片文件: %w", err)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
	}
	if data, ok := l.cache.Get(url); ok {
		return data.([]byte), nil
	}

	val, err, shared := l.group.Do(url, func() (any, error) {
		if data, ok := l.cache.Get(url); ok {
			return data, nil
		}
		data, err := l.download(ctx, url)
		if err != nil {
			return nil, err
		}
		l.cache.SetDefault(url, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	data, ok := val.([]byte)
	if !ok {
		return nil, fmt.Errorf("下载结果类型错误: %T", val)
	}
	l.logger.Debug("图片已加载", "url", url, "size", humanize.Bytes(uint64(len(data))), "shared", shared)
	return data, nil
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载图片失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载图片失败: %s: HTTP %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取图片数据失败: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, url)
	}
	l.logger.Info("下载图片", "url", url, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

// Purge 清空缓存
func (l *Loader) Purge() {
	l.cache.Flush()
}
