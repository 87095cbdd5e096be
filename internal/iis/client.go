package iis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/model"
	pkgerrors "github.com/Bzrkr/raspisanie/pkg/errors"
)

// ── IIS 接口客户端 ──────────────────────────────────────────
//
// 三个只读接口：
//   - GET {base}/schedule/current-week         → 当前教学周（整数）
//   - GET {base}/employees/all                 → 教师列表
//   - GET {base}/employees/schedule/{urlId}    → 教师课表
//
// 所有请求先经过令牌桶限流，加载数百位教师课表时避免压垮上游。
// ─────────────────────────────────────────────────────────────

const maxErrorBody = 512

// HTTPClient 抽象 Do 方法，便于测试替换
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError 上游返回非 2xx 状态码
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("IIS 请求失败: %s 返回 HTTP %d", e.URL, e.StatusCode)
}

// Unwrap 归类为上游获取失败
func (e *StatusError) Unwrap() error {
	return pkgerrors.ErrFetchFailed
}

// Client IIS REST 客户端
type Client struct {
	baseURL    *url.URL
	httpClient HTTPClient
	limiter    *rate.Limiter
}

// NewClient 创建客户端；httpClient 为 nil 时使用带超时的默认客户端
func NewClient(cfg *config.IISConfig, httpClient HTTPClient) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("无效的 iis.base_url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// requests_per_second=0 表示不限流
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// CurrentWeek 获取当前教学周
func (c *Client) CurrentWeek(ctx context.Context) (int, error) {
	var week int
	if err := c.get(ctx, "schedule/current-week", &week); err != nil {
		return 0, err
	}
	return week, nil
}

// Employees 获取全部教师（保持接口返回顺序）
func (c *Client) Employees(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	if err := c.get(ctx, "employees/all", &teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

// EmployeeSchedule 获取单个教师的课表
func (c *Client) EmployeeSchedule(ctx context.Context, urlID string) (model.TeacherScheduleFeed, error) {
	var feed model.TeacherScheduleFeed
	if err := c.get(ctx, "employees/schedule/"+url.PathEscape(urlID), &feed); err != nil {
		return model.TeacherScheduleFeed{}, err
	}
	// 上游对没有课表的教师可能返回 null
	if feed.Schedules == nil {
		feed.Schedules = model.DaySchedule{}
	}
	if feed.PreviousSchedules == nil {
		feed.PreviousSchedules = model.DaySchedule{}
	}
	return feed, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: 等待限流失败: %v", pkgerrors.ErrFetchFailed, err)
	}

	rel, err := url.Parse(path)
	if err != nil {
		return err
	}
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", pkgerrors.ErrFetchFailed, endpoint.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: endpoint.String(), StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: 解析 %s 响应失败: %v", pkgerrors.ErrFetchFailed, path, err)
	}
	return nil
}
