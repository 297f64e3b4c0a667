package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/database"
	"github.com/jengzang/salesmap-backend-go/internal/handler"
	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/registry"
	"github.com/jengzang/salesmap-backend-go/internal/repository"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/internal/session"
	"github.com/jengzang/salesmap-backend-go/internal/stats"
	"github.com/jengzang/salesmap-backend-go/internal/viz"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "sales.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.NewMigrationManager(db).RunMigrations()
	require.NoError(t, err)

	repo := repository.NewSalesRepository(db)
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	_, err = repo.ReplaceRange(context.Background(), models.DateRange{}, []models.SalesRecord{
		{Date: day(1), Dealer: "DealerA", State: "Maharashtra", City: "Pune", Product: "Screw", Value: 100, Quantity: 1},
		{Date: day(2), Dealer: "DealerA", State: "Maharashtra", City: "Mumbai", Product: "Plate", Value: 100, Quantity: 1},
		{Date: day(3), Dealer: "DealerB", State: "Atlantis", City: "Nowhere", Product: "Bolt", Value: 50, Quantity: 1},
	})
	require.NoError(t, err)

	states, cities, err := registry.LoadEmbedded()
	require.NoError(t, err)

	store := session.NewStore(session.Options{
		Map:       viz.DefaultMapOptions(),
		Chart:     viz.DefaultChartOptions,
		Selection: viz.SelectionOptions{KeepOne: true},
		States:    states,
		Cities:    cities,
	})
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	metrics := service.NewMetricService(repo)
	dashboard := service.NewDashboardService(metrics)
	access := service.NewAccessService(repository.NewUserRepository(db))

	r := SetupRouter(Deps{
		Tokens:         tokens,
		Sessions:       store,
		Auth:           handler.NewAuthHandler(auth.Credentials{Username: "admin", Password: "pw"}, access, tokens, store),
		Metrics:        handler.NewMetricHandler(metrics),
		Map:            handler.NewMapHandler(dashboard),
		Charts:         handler.NewChartHandler(dashboard),
		Reports:        handler.NewReportHandler(service.NewReportService(repo)),
		Access:         handler.NewAccessHandler(access),
		Sync:           handler.NewSyncHandler(service.NewSyncService(nil, repo), repo),
		LoginPerMinute: 5,
	})
	return &testServer{t: t, r: r}
}

func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) login() {
	s.t.Helper()
	s.loginAs("admin", "pw")
}

func (s *testServer) loginAs(user, password string) {
	s.t.Helper()
	s.token = ""
	w, env := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": user, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var lr struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &lr))
	s.token = lr.Token
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodOptions, "/api/v1/map", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginLogout(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/map", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.login()
	w, _ = s.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/map", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "session state is gone after logout")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, env := s.do(http.MethodGet, "/api/v1/metrics/dealer?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Metrics []models.AggregatedMetric `json:"metrics"`
		Total   float64                   `json:"total"`
		Summary stats.Summary             `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Metrics, 1)
	assert.Equal(t, "DealerA", body.Metrics[0].Name)
	assert.Equal(t, 200.0, body.Total)
	assert.Equal(t, 1, body.Summary.Count)
	assert.Equal(t, 100.0, body.Summary.TopShare)

	w, _ = s.do(http.MethodGet, "/api/v1/metrics/region", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/metrics/state?from=2024-02-01&to=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapFlow(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, env := s.do(http.MethodGet, "/api/v1/map", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var render viz.MapRender
	require.NoError(t, json.Unmarshal(env.Data, &render))
	require.Len(t, render.Pins, 1, "Atlantis has no coordinates")
	assert.Equal(t, 1, render.Unmatched)
	pin := render.Pins[0]
	assert.Equal(t, "MAHARASHTRA", pin.ID)

	w, env = s.do(http.MethodPost, "/api/v1/map/click", gin.H{"x": pin.X, "y": pin.Y})
	require.Equal(t, http.StatusOK, w.Code)
	var hit struct {
		Hit    *viz.Pin      `json:"hit"`
		Render viz.MapRender `json:"render"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &hit))
	require.NotNil(t, hit.Hit)
	require.NotNil(t, hit.Render.Selected)

	w, env = s.do(http.MethodPost, "/api/v1/map/mode", gin.H{"mode": "city"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &render))
	assert.Equal(t, viz.ViewCity, render.Mode)
	assert.Nil(t, render.Selected)
	assert.Len(t, render.Pins, 2)

	w, _ = s.do(http.MethodPost, "/api/v1/map/mode", gin.H{"mode": "country"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for i := 0; i < 10; i++ {
		s.do(http.MethodPost, "/api/v1/map/zoom", gin.H{"direction": "in"})
	}
	_, env = s.do(http.MethodGet, "/api/v1/map/render", nil)
	require.NoError(t, json.Unmarshal(env.Data, &render))
	assert.Equal(t, 4.0, render.Zoom)

	_, env = s.do(http.MethodPost, "/api/v1/map/search", gin.H{"query": "pun"})
	require.NoError(t, json.Unmarshal(env.Data, &render))
	require.Len(t, render.Pins, 1)
	assert.Equal(t, "Pune", render.Pins[0].DisplayName)

	w, _ = s.do(http.MethodPost, "/api/v1/map/select", gin.H{"id": "MUMBAI"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "filtered pins cannot be selected")
}

func TestDealerChartFlow(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, env := s.do(http.MethodGet, "/api/v1/charts/dealers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var series viz.Series
	require.NoError(t, json.Unmarshal(env.Data, &series))
	require.Len(t, series.Slices, 2)
	assert.False(t, series.CanDrill)

	_, env = s.do(http.MethodPost, "/api/v1/charts/dealers/drill", gin.H{"name": "DealerA"})
	require.NoError(t, json.Unmarshal(env.Data, &series))
	assert.Equal(t, viz.ModeAggregate, series.State.Mode, "compact charts ignore clicks")

	s.do(http.MethodPost, "/api/v1/charts/dealers/interactive", gin.H{"interactive": true})
	_, env = s.do(http.MethodPost, "/api/v1/charts/dealers/drill", gin.H{"name": "DealerA"})
	require.NoError(t, json.Unmarshal(env.Data, &series))
	assert.Equal(t, viz.ModeDetail, series.State.Mode)
	require.Len(t, series.Slices, 2)
	assert.InDelta(t, 50, series.Slices[0].Percentage, 1e-9)

	w, env = s.do(http.MethodPost, "/api/v1/charts/dealers/selection", gin.H{"action": "toggle", "name": "Plate"})
	require.Equal(t, http.StatusOK, w.Code)
	var sel struct {
		Selected int  `json:"selected"`
		Changed  bool `json:"changed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Equal(t, 1, sel.Selected)

	_, env = s.do(http.MethodPost, "/api/v1/charts/dealers/back", nil)
	require.NoError(t, json.Unmarshal(env.Data, &series))
	assert.Equal(t, viz.ModeAggregate, series.State.Mode)
	assert.Len(t, series.Slices, 2, "selection resets with the drill level")
}

func TestModalSelection(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, _ := s.do(http.MethodGet, "/api/v1/charts/state/selection", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/charts/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var modal viz.ModalRender
	require.NoError(t, json.Unmarshal(env.Data, &modal))
	assert.Equal(t, viz.ChartPie, modal.Type)
	assert.Equal(t, 2, modal.TotalCount)

	w, _ = s.do(http.MethodPost, "/api/v1/charts/state/selection", gin.H{"action": "deselect_all"})
	require.Equal(t, http.StatusOK, w.Code)

	_, env = s.do(http.MethodGet, "/api/v1/charts/state", nil)
	require.NoError(t, json.Unmarshal(env.Data, &modal))
	assert.True(t, modal.Empty)
	assert.Equal(t, "No data selected", modal.Placeholder)

	w, _ = s.do(http.MethodGet, "/api/v1/charts/weather", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncWithoutERP(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, _ := s.do(http.MethodPost, "/api/v1/sync", gin.H{"from": "01-01-2024", "to": "31-01-2024"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/sync", gin.H{"from": "soon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/sync/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccessRequestFlow(t *testing.T) {
	s := newTestServer(t)

	signup := gin.H{"full_name": "Asha Rao", "email": "asha@example.com", "password": "secret", "requested_states": []string{"Maharashtra"}}
	w, env := s.do(http.MethodPost, "/api/v1/auth/signup", signup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Request models.AccessRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.RequestPending, created.Request.Status)
	assert.NotContains(t, w.Body.String(), "secret")

	w, _ = s.do(http.MethodPost, "/api/v1/auth/signup", signup)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/signup", gin.H{"full_name": "X", "email": "x@example.com", "password": "secret"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "at least one state is required")

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "asha@example.com", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "pending requests cannot log in")

	s.login()
	w, env = s.do(http.MethodGet, "/api/v1/admin/access-requests?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Count)

	w, _ = s.do(http.MethodPost, "/api/v1/admin/access-requests/"+created.Request.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(http.MethodPost, "/api/v1/admin/access-requests/"+created.Request.ID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	s.loginAs("asha@example.com", "secret")
	w, _ = s.do(http.MethodGet, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/sync", gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/metrics/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Metrics []models.AggregatedMetric `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Metrics, 1, "a restricted user only sees their states")
	assert.Equal(t, "Maharashtra", body.Metrics[0].Name)

	w, env = s.do(http.MethodGet, "/api/v1/charts/dealers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var series viz.Series
	require.NoError(t, json.Unmarshal(env.Data, &series))
	require.Len(t, series.Slices, 1)
	assert.Equal(t, "DealerA", series.Slices[0].Name)
}

func TestAdminCreatesUser(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, _ := s.do(http.MethodPost, "/api/v1/admin/users", gin.H{"email": "ops@example.com", "password": "secret", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = s.do(http.MethodPost, "/api/v1/admin/users", gin.H{"email": "ops@example.com", "password": "secret", "role": "admin"})
	assert.Equal(t, http.StatusConflict, w.Code)

	s.loginAs("ops", "secret")
	w, env := s.do(http.MethodGet, "/api/v1/admin/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Users, 1)
	assert.Equal(t, "ops@example.com", list.Users[0].Email)
}

func TestReportEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, env := s.do(http.MethodGet, "/api/v1/reports/comparative?dimension=state&years=2&to=2024-12-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var comp service.ComparativeReport
	require.NoError(t, json.Unmarshal(env.Data, &comp))
	assert.Equal(t, []int{2023, 2024}, comp.Years)
	require.Len(t, comp.Rows, 2)
	assert.Equal(t, "Maharashtra", comp.Rows[0].Name)
	assert.Equal(t, 200.0, comp.Rows[0].YearData[2024].Value)

	w, _ = s.do(http.MethodGet, "/api/v1/reports/comparative?years=9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/reports/non-billing?period=week&as_of=2024-01-10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var nb service.NonBillingReport
	require.NoError(t, json.Unmarshal(env.Data, &nb))
	assert.Equal(t, "2024-01-10", nb.AsOf)
	require.Len(t, nb.Dealers, 2, "both dealers billed last week and nothing this week")
	assert.Equal(t, "DealerA", nb.Dealers[0].DealerName)
	assert.Equal(t, models.SeverityCritical, nb.Dealers[0].Severity)
	assert.Equal(t, 8, nb.Dealers[0].DaysSinceLastBilling)

	w, _ = s.do(http.MethodGet, "/api/v1/reports/non-billing?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
