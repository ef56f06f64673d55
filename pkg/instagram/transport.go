package instagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Response is the raw result of one HTTP exchange
type Response struct {
	StatusCode int
	Body       []byte
}

// Doer performs HTTP requests and keeps the session's cookie jar
type Doer interface {
	Do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*Response, error)
	Cookie(rawURL, name string) string
}

// headerOrder mirrors the browser's header order for the stealth transport
var headerOrder = []string{
	"host",
	"user-agent",
	"accept",
	"accept-language",
	"accept-encoding",
	"content-type",
	"x-csrftoken",
	"x-ig-app-id",
	"x-ig-www-claim",
	"x-requested-with",
	"x-instagram-ajax",
	"origin",
	"referer",
	"cookie",
	"sec-ch-ua",
	"sec-ch-ua-mobile",
	"sec-ch-ua-platform",
	"sec-fetch-dest",
	"sec-fetch-mode",
	"sec-fetch-site",
}

// StealthDoer sends requests with a browser TLS fingerprint
type StealthDoer struct {
	client *stealth.BrowserClient
	jitter bool
}

// NewStealthDoer builds a browser-fingerprinted client, optionally behind a proxy
func NewStealthDoer(proxy string) (*StealthDoer, error) {
	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(headerOrder),
	}
	if proxy != "" {
		opts = append(opts, stealth.WithProxy(proxy))
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return &StealthDoer{client: bc, jitter: true}, nil
}

func (d *StealthDoer) Do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*Response, error) {
	if d.jitter {
		if err := stealth.DefaultJitter.Sleep(ctx); err != nil {
			return nil, err
		}
	}
	respBody, _, status, err := d.client.DoWithHeaderOrder(method, rawURL, headers, body, headerOrder)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: status, Body: respBody}, nil
}

func (d *StealthDoer) Cookie(rawURL, name string) string {
	return d.client.GetCookieValue(rawURL, name)
}

// StdDoer is the net/http transport
type StdDoer struct {
	client *http.Client
}

// NewStdDoer builds a net/http client with a cookie jar
func NewStdDoer(timeout time.Duration, proxy string) (*StdDoer, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", stealth.MaskProxy(proxy), err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &StdDoer{client: &http.Client{Timeout: timeout, Jar: jar, Transport: transport}}, nil
}

func (d *StdDoer) Do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	// net/http negotiates compression itself
	req.Header.Del("accept-encoding")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (d *StdDoer) Cookie(rawURL, name string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, c := range d.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// NewDoer picks a transport by name
func NewDoer(transport string, timeout time.Duration, proxy string) (Doer, error) {
	switch transport {
	case "std":
		d, err := NewStdDoer(timeout, proxy)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "stealth", "":
		d, err := NewStealthDoer(proxy)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}
