package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Options configures a Client
type Options struct {
	BaseURL   string
	UserAgent string
	Logger    logger.Logger
}

// Client talks to the Instagram web API on behalf of one account
type Client struct {
	doer      Doer
	baseURL   string
	userAgent string
	session   *Session
	logger    logger.Logger
}

// NewClient creates a client over the given transport
func NewClient(doer Doer, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	return &Client{
		doer:      doer,
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
}

// UseSession makes subsequent requests authenticate with s
func (c *Client) UseSession(s *Session) {
	c.session = s
}

// Session returns the active session, or nil before login
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) headers() map[string]string {
	h := map[string]string{
		"user-agent":       c.userAgent,
		"accept":           "*/*",
		"accept-language":  "en-US,en;q=0.9",
		"accept-encoding":  "gzip, deflate, br",
		"x-ig-app-id":      AppID,
		"x-requested-with": "XMLHttpRequest",
		"origin":           c.baseURL,
		"referer":          c.baseURL + "/",
		"sec-fetch-dest":   "empty",
		"sec-fetch-mode":   "cors",
		"sec-fetch-site":   "same-origin",
	}
	if ch := stealth.ClientHintsHeaders(c.userAgent); ch != nil {
		for k, v := range ch {
			h[k] = v
		}
	}
	if c.session != nil {
		h["x-csrftoken"] = c.session.CSRFToken
		h["cookie"] = fmt.Sprintf("sessionid=%s; csrftoken=%s; ds_user_id=%s",
			c.session.SessionID, c.session.CSRFToken, c.session.UserID)
	}
	return h
}

// do sends a request and logs its outcome
func (c *Client) do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*Response, error) {
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": method,
		"url":    rawURL,
	})

	resp, err := c.doer.Do(ctx, method, rawURL, headers, body)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.KindTransient, "request", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   method,
		"url":      rawURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// getJSON issues a GET and decodes a 200 response into target
func (c *Client) getJSON(ctx context.Context, op, rawURL string, target interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, rawURL, c.headers(), nil)
	if err != nil {
		return err
	}

	if err := classifyStatus(op, resp); err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview(resp.Body),
		})
		return &errs.Error{
			Kind:    errs.KindTransient,
			Op:      op,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}
	return nil
}

// classifyStatus maps a non-200 response onto an error kind.
// 401 and 403 are transient here; login maps them to auth failures.
func classifyStatus(op string, resp *Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg := http.StatusText(resp.StatusCode)
	var body errorResponse
	if json.Unmarshal(resp.Body, &body) == nil && body.Message != "" {
		msg = body.Message
	}

	return &errs.Error{
		Kind:    errs.FromStatus(resp.StatusCode),
		Op:      op,
		Message: msg,
		Code:    resp.StatusCode,
	}
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
