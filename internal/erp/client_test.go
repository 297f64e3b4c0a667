package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/salesmap-backend-go/internal/config"
	"github.com/jengzang/salesmap-backend-go/internal/models"
)

type fakeERP struct {
	logins   atomic.Int32
	refreshs atomic.Int32
	reports  atomic.Int32
	failOnce atomic.Bool
	lastBody map[string]string
}

func (f *fakeERP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.URL.Query().Get("action") {
	case "login":
		f.logins.Add(1)
		if body["password"] != "secret" {
			_, _ = w.Write([]byte(`{"status":"error","message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","token":"t1","refresh_token":"r1"}`))
	case "refresh_token":
		f.refreshs.Add(1)
		_, _ = w.Write([]byte(`{"status":"success","token":"t2"}`))
	case "get_sales_report":
		if f.failOnce.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		f.reports.Add(1)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.lastBody = body
		_, _ = w.Write([]byte(`{"data":[{"Dealer Name":"DealerA","Value":10}]}`))
	case "get_iospl_sales_report":
		f.reports.Add(1)
		f.lastBody = body
		if r.Header.Get("Authorization") != "" || body["startdate"] == "" {
			_, _ = w.Write([]byte(`{"status":"error","message":"Missing dates"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","report_data":[{"comp_nm":"DealerA","SV":"10"}]}`))
	case "logout":
		_, _ = w.Write([]byte(`{"status":"success"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeERP, password string) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.ERPConfig{
		BaseURL:  srv.URL + "/API/api.php",
		Username: "sync",
		Password: password,
		RetryMax: 2,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = time.Millisecond
	return c
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(config.ERPConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSalesReport(t *testing.T) {
	fake := &fakeERP{}
	c := newTestClient(t, fake, "secret")

	data, err := c.SalesReport(context.Background(), models.DateRange{
		From: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), "DealerA")
	assert.Equal(t, "05-01-2024", fake.lastBody["start_date"])
	assert.Equal(t, "01-02-2024", fake.lastBody["end_date"])
	assert.EqualValues(t, 1, fake.logins.Load())

	_, err = c.SalesReport(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fake.logins.Load(), "token is reused")
}

func TestTokenRefreshAfterExpiry(t *testing.T) {
	fake := &fakeERP{}
	c := newTestClient(t, fake, "secret")
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Login(context.Background()))
	now = now.Add(2 * time.Hour)

	_, err := c.SalesReport(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fake.refreshs.Load())
	assert.Equal(t, "t2", c.currentToken())
}

func TestRetriesServerErrors(t *testing.T) {
	fake := &fakeERP{}
	fake.failOnce.Store(true)
	c := newTestClient(t, fake, "secret")

	_, err := c.SalesReport(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fake.reports.Load())
}

func TestLoginFailure(t *testing.T) {
	c := newTestClient(t, &fakeERP{}, "wrong")
	err := c.Login(context.Background())
	require.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestLogoutClearsTokens(t *testing.T) {
	c := newTestClient(t, &fakeERP{}, "secret")
	require.NoError(t, c.Login(context.Background()))
	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.currentToken())
	assert.NoError(t, c.Logout(context.Background()))
}

func TestIOSPLReport(t *testing.T) {
	fake := &fakeERP{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.ERPConfig{BaseURL: srv.URL + "/API/api.php", Report: config.ReportIOSPL})
	require.NoError(t, err)
	assert.True(t, c.PeriodTotals())

	data, err := c.SalesReport(context.Background(), models.DateRange{
		From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), "report_data")
	assert.Equal(t, "01-01-2025", fake.lastBody["startdate"])
	assert.Equal(t, "31-12-2025", fake.lastBody["enddate"])
	assert.Zero(t, fake.logins.Load(), "the IOSPL report needs no login")

	_, err = c.SalesReport(context.Background(), models.DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing dates")

	sales := newTestClient(t, fake, "secret")
	assert.False(t, sales.PeriodTotals())
}
