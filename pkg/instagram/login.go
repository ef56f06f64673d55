package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	errs "igcrawler/pkg/errors"
)

// Login authenticates creds and makes the resulting session active.
// Failures that no retry can fix have kind AuthFailure.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	c.logger.InfoWithFields("logging in", map[string]interface{}{"username": creds.Username})

	c.session = nil
	csrf, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), creds.Password))
	form.Set("queryParams", "{}")
	form.Set("optIntoOneTap", "false")

	lr, err := c.postLogin(ctx, loginEndpoint, csrf, form)
	if err != nil {
		return nil, err
	}

	if lr.TwoFactorRequired {
		if creds.TOTPSecret == "" {
			return nil, errs.New(errs.KindAuthFailure, "login", "two-factor code required but no TOTP secret for "+creds.Username)
		}
		code, err := totp.GenerateCode(creds.TOTPSecret, time.Now())
		if err != nil {
			return nil, errs.Wrap(errs.KindAuthFailure, "login", fmt.Errorf("TOTP code generation failed for %s: %w", creds.Username, err))
		}
		c.logger.InfoWithFields("submitting TOTP code", map[string]interface{}{"username": creds.Username})

		tf := url.Values{}
		tf.Set("username", creds.Username)
		tf.Set("verificationCode", code)
		tf.Set("identifier", lr.TwoFactorInfo.Identifier)
		tf.Set("queryParams", "{}")
		if lr, err = c.postLogin(ctx, twoFactorEndpoint, csrf, tf); err != nil {
			return nil, err
		}
	}

	switch {
	case lr.CheckpointURL != "":
		return nil, errs.New(errs.KindAuthFailure, "login", "checkpoint required for "+creds.Username)
	case !lr.Authenticated && !lr.User:
		return nil, errs.New(errs.KindAuthFailure, "login", "user "+creds.Username+" does not exist")
	case !lr.Authenticated:
		msg := lr.Message
		if msg == "" {
			msg = "wrong password"
		}
		return nil, errs.New(errs.KindAuthFailure, "login", msg)
	}

	sess := &Session{
		Username:  creds.Username,
		UserID:    lr.UserID,
		SessionID: c.doer.Cookie(c.baseURL, "sessionid"),
		CSRFToken: c.doer.Cookie(c.baseURL, "csrftoken"),
	}
	if sess.CSRFToken == "" {
		sess.CSRFToken = csrf
	}
	if sess.SessionID == "" {
		return nil, errs.New(errs.KindAuthFailure, "login", "login completed but no sessionid cookie for "+creds.Username)
	}

	c.session = sess
	c.logger.InfoWithFields("login successful", map[string]interface{}{"username": creds.Username})
	return sess, nil
}

func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/", c.headers(), nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", classifyStatus("login", resp)
	}
	csrf := c.doer.Cookie(c.baseURL, "csrftoken")
	if csrf == "" {
		return "", errs.New(errs.KindTransient, "login", "no csrftoken cookie on landing page")
	}
	return csrf, nil
}

func (c *Client) postLogin(ctx context.Context, endpoint, csrf string, form url.Values) (*loginResponse, error) {
	h := c.headers()
	h["content-type"] = "application/x-www-form-urlencoded"
	h["x-csrftoken"] = csrf

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+endpoint, h, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	var lr loginResponse
	decodeErr := json.Unmarshal(resp.Body, &lr)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, classifyStatus("login", resp)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &errs.Error{Kind: errs.KindAuthFailure, Op: "login", Message: http.StatusText(resp.StatusCode), Code: resp.StatusCode}
	case decodeErr != nil:
		if resp.StatusCode != http.StatusOK {
			return nil, classifyStatus("login", resp)
		}
		return nil, errs.Wrap(errs.KindTransient, "login", fmt.Errorf("failed to parse login response: %w", decodeErr))
	case resp.StatusCode == http.StatusBadRequest && !lr.TwoFactorRequired && lr.CheckpointURL == "":
		msg := lr.Message
		if msg == "" {
			msg = "login rejected"
		}
		return nil, &errs.Error{Kind: errs.KindAuthFailure, Op: "login", Message: msg, Code: resp.StatusCode}
	}
	return &lr, nil
}
