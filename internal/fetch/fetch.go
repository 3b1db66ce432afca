// Package fetch downloads subscription documents over http(s).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/John-Robertt/subagg-go/internal/model"
)

// Stage is the AppError stage of every fetch failure.
const Stage = "fetch_sub"

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBytes     = 5 * 1024 * 1024
	DefaultMaxRedirects = 5
	DefaultUserAgent    = "subagg/1.0 (clash-compatible)"
)

type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default 5 MiB
	MaxRedirects int           // default 5
	UserAgent    string

	// RatePerSec throttles outbound requests across all callers of one
	// Client. 0 disables throttling.
	RatePerSec float64
	Burst      int

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBytes == 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxRedirects == 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.RatePerSec > 0 && o.Burst <= 0 {
		o.Burst = 1
	}
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	return o
}

type FetchError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

// Client fetches one source at a time. It is safe for concurrent use.
type Client struct {
	opt     Options
	http    *http.Client
	limiter *rate.Limiter // nil when unthrottled
}

func New(opt Options) *Client {
	opt = opt.withDefaults()
	var lim *rate.Limiter
	if opt.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(opt.RatePerSec), opt.Burst)
	}
	return &Client{
		opt:     opt,
		limiter: lim,
		http: &http.Client{
			Timeout:   opt.Timeout,
			Transport: opt.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// 1st redirect => len(via)==1.
				if len(via) > opt.MaxRedirects {
					return errTooManyRedirects
				}
				if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
					return errRedirectBadScheme
				}
				return nil
			},
		},
	}
}

// FetchText returns the body of rawURL as UTF-8 text. Every failure is a
// *FetchError: bad scheme, transport error, timeout, non-2xx status, oversize
// or non-UTF-8 body.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	if c.opt.MaxBytes <= 0 {
		return "", fail(rawURL, http.StatusBadRequest, "INVALID_ARGUMENT", "响应大小上限必须大于 0", nil)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fail(rawURL, http.StatusBadRequest, "INVALID_ARGUMENT", "仅允许 http/https URL",
			errors.Join(errInvalidURLOrScheme, err))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fail(rawURL, http.StatusGatewayTimeout, "FETCH_TIMEOUT", "等待拉取配额超时", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fail(rawURL, http.StatusBadRequest, "INVALID_ARGUMENT", "请求 URL 不合法", err)
	}
	req.Header.Set("User-Agent", c.opt.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return "", c.transportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fail(rawURL, http.StatusBadGateway, "FETCH_FAILED",
			fmt.Sprintf("上游返回非 2xx 状态码：%d", resp.StatusCode), nil)
	}

	// Read at most MaxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opt.MaxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return "", fail(rawURL, http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取订阅超时", err)
		}
		return "", fail(rawURL, http.StatusBadGateway, "FETCH_FAILED", "读取上游响应失败", err)
	}
	if int64(len(body)) > c.opt.MaxBytes {
		return "", fail(rawURL, http.StatusUnprocessableEntity, "TOO_LARGE",
			fmt.Sprintf("订阅内容过大（>%d bytes）", c.opt.MaxBytes), nil)
	}
	if !utf8.Valid(body) {
		return "", fail(rawURL, http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "订阅内容不是合法 UTF-8 文本", nil)
	}
	return string(body), nil
}

func (c *Client) transportError(rawURL string, err error) error {
	switch {
	case errors.Is(err, errTooManyRedirects):
		return fail(rawURL, http.StatusBadGateway, "FETCH_FAILED",
			fmt.Sprintf("重定向次数超过上限（>%d）", c.opt.MaxRedirects), err)
	case errors.Is(err, errRedirectBadScheme):
		return fail(rawURL, http.StatusBadRequest, "INVALID_ARGUMENT", "重定向目标仅允许 http/https", err)
	case isTimeout(err):
		return fail(rawURL, http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取订阅超时", err)
	default:
		return fail(rawURL, http.StatusBadGateway, "FETCH_FAILED", "拉取订阅失败", err)
	}
}

// isTimeout sees through *url.Error wrapping.
func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func fail(rawURL string, status int, code, msg string, cause error) *FetchError {
	return &FetchError{
		Status: status,
		AppError: model.AppError{
			Code:    code,
			Message: msg,
			Stage:   Stage,
			URL:     rawURL,
		},
		Cause: cause,
	}
}
