package loc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/config"
	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
	"github.com/kltng/lcsh-validation-api/pkg/metrics"
)

var tracer = otel.Tracer("loc")

// ErrUnavailable 上游超时、连接失败或返回服务端错误
var ErrUnavailable = recommend.ErrUpstreamUnavailable

// Client id.loc.gov 检索客户端
type Client struct {
	baseURL    string
	scheme     string
	userAgent  string
	maxBody    int64
	httpClient *http.Client
	pacer      *rate.Limiter
}

// NewClient 创建检索客户端
func NewClient(cfg *config.LOCClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 8 << 20
	}

	var pacer *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		scheme:    cfg.Scheme,
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		pacer: pacer,
	}
}

// SearchURL 构建检索地址，短语由 url.Values 负责转义
func (c *Client) SearchURL(phrase string) string {
	q := url.Values{}
	q.Add("q", phrase)
	if c.scheme != "" {
		q.Add("q", "cs:"+c.scheme)
	}
	return c.baseURL + "/search/?" + q.Encode()
}

// Retrieve 按短语检索候选主题词，每次调用只发出一次出站请求，不做内部重试
func (c *Client) Retrieve(ctx context.Context, phrase string) ([]entity.Candidate, error) {
	ctx, span := tracer.Start(ctx, "loc.Retrieve",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("loc.phrase", phrase)))
	defer span.End()

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, c.fail(span, "unavailable", fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
	}

	searchURL := c.SearchURL(phrase)
	logger.Debug(ctx, "searching authority", "phrase", phrase, "url", searchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, c.fail(span, "unavailable", fmt.Errorf("%w: build request: %v", ErrUnavailable, err))
	}
	req.Header.Set("Accept", "text/html")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(span, "unavailable", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err := checkStatus(resp); err != nil {
		return nil, c.fail(span, statusLabel(err), err)
	}

	candidates, err := ParseListing(io.LimitReader(resp.Body, c.maxBody), c.baseURL)
	if err != nil {
		if !errors.Is(err, ErrMalformed) {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, c.fail(span, "malformed", err)
	}

	metrics.UpstreamCallTotal.WithLabelValues("ok").Inc()
	metrics.UpstreamCandidates.Observe(float64(len(candidates)))
	span.SetAttributes(attribute.Int("loc.candidates", len(candidates)))
	logger.Debug(ctx, "authority search done", "phrase", phrase, "candidates", len(candidates))
	return candidates, nil
}

// checkStatus 校验状态码与内容类型
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: unexpected status=%d", ErrUnavailable, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml") {
			return fmt.Errorf("%w: content-type %q", ErrMalformed, ct)
		}
	}
	return nil
}

func statusLabel(err error) string {
	if errors.Is(err, ErrMalformed) {
		return "malformed"
	}
	return "unavailable"
}

func (c *Client) fail(span trace.Span, status string, err error) error {
	metrics.UpstreamCallTotal.WithLabelValues(status).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

var _ recommend.Retriever = (*Client)(nil)
