// Package erp is the client for the upstream ERP sales API
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/jengzang/salesmap-backend-go/internal/config"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// tokenLifetime is assumed; the ERP does not report expiry
const tokenLifetime = time.Hour

var (
	ErrNotConfigured = errors.New("erp: base url and username are required")
	ErrAuth          = errors.New("erp: authentication failed")
)

// Client talks to the ERP's action-style API (api.php?action=...)
type Client struct {
	cfg  config.ERPConfig
	http *retryablehttp.Client
	now  func() time.Time

	mu           sync.Mutex
	token        string
	refreshToken string
	expiry       time.Time
}

// NewClient builds a retrying client
func NewClient(cfg config.ERPConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("erp: invalid base url: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = logger.Leveled{Entry: logger.Log.WithField("component", "erp")}
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}

	return &Client{cfg: cfg, http: rc, now: time.Now}, nil
}

func (c *Client) endpoint(action string) string {
	u, _ := url.Parse(c.cfg.BaseURL)
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) post(ctx context.Context, action, token string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(action), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erp %s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erp %s: failed to read response: %w", action, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuth
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("erp %s: unexpected status %d", action, resp.StatusCode)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("erp %s: invalid response from server", action)
	}
	return data, nil
}

// Login obtains a fresh token pair
func (c *Client) Login(ctx context.Context) error {
	data, err := c.post(ctx, "login", "", map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return err
	}

	res := gjson.ParseBytes(data)
	if res.Get("status").String() != "success" {
		msg := res.Get("message").String()
		if msg == "" {
			msg = "login failed"
		}
		return fmt.Errorf("%w: %s", ErrAuth, msg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = res.Get("token").String()
	c.refreshToken = res.Get("refresh_token").String()
	c.expiry = c.now().Add(tokenLifetime)
	return nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) error {
	data, err := c.post(ctx, "refresh_token", "", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return err
	}
	res := gjson.ParseBytes(data)
	token := res.Get("token").String()
	if res.Get("status").String() != "success" && token == "" {
		return ErrAuth
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if rt := res.Get("refresh_token").String(); rt != "" {
		c.refreshToken = rt
	}
	c.expiry = c.now().Add(tokenLifetime)
	return nil
}

// validToken returns a usable token, refreshing or logging in again as needed
func (c *Client) validToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, refreshToken, expiry := c.token, c.refreshToken, c.expiry
	c.mu.Unlock()

	if token != "" && c.now().Before(expiry) {
		return token, nil
	}
	if refreshToken != "" {
		if err := c.refresh(ctx, refreshToken); err == nil {
			return c.currentToken(), nil
		}
		logger.Log.Debug("erp token refresh failed, logging in again")
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	return c.currentToken(), nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// PeriodTotals reports whether rows are totals for the whole requested
// range rather than dated sales
func (c *Client) PeriodTotals() bool {
	return c.cfg.Report == config.ReportIOSPL
}

// SalesReport fetches the raw sales report for a date range
func (c *Client) SalesReport(ctx context.Context, r models.DateRange) ([]byte, error) {
	if c.cfg.Report == config.ReportIOSPL {
		return c.iosplReport(ctx, r)
	}
	token, err := c.validToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]string{"action": "get_sales_report"}
	if !r.From.IsZero() {
		body["start_date"] = r.From.Format(models.ERPDateLayout)
	}
	if !r.To.IsZero() {
		body["end_date"] = r.To.Format(models.ERPDateLayout)
	}
	return c.post(ctx, "get_sales_report", token, body)
}

// iosplReport fetches the unauthenticated IOSPL report. A non-success
// status is an error rather than an empty report.
func (c *Client) iosplReport(ctx context.Context, r models.DateRange) ([]byte, error) {
	body := map[string]string{}
	if !r.From.IsZero() {
		body["startdate"] = r.From.Format(models.ERPDateLayout)
	}
	if !r.To.IsZero() {
		body["enddate"] = r.To.Format(models.ERPDateLayout)
	}
	data, err := c.post(ctx, "get_iospl_sales_report", "", body)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(data)
	if status := res.Get("status").String(); status != "success" {
		msg := res.Get("message").String()
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("erp get_iospl_sales_report: %s", msg)
	}
	logger.Log.WithField("rows", res.Get("report_data.#").Int()).Debug("iospl report fetched")
	return data, nil
}

// Logout invalidates the token pair; local tokens are cleared even on error
func (c *Client) Logout(ctx context.Context) error {
	token := c.currentToken()

	c.mu.Lock()
	c.token, c.refreshToken, c.expiry = "", "", time.Time{}
	c.mu.Unlock()

	if token == "" {
		return nil
	}
	_, err := c.post(ctx, "logout", token, nil)
	return err
}
