package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/handler"
	"github.com/jengzang/salesmap-backend-go/internal/middleware"
	"github.com/jengzang/salesmap-backend-go/internal/session"
)

// Deps 路由依赖
type Deps struct {
	Tokens         *auth.TokenManager
	Sessions       *session.Store
	Auth           *handler.AuthHandler
	Metrics        *handler.MetricHandler
	Map            *handler.MapHandler
	Charts         *handler.ChartHandler
	Reports        *handler.ReportHandler
	Access         *handler.AccessHandler
	Sync           *handler.SyncHandler // nil when the ERP is not configured
	LoginPerMinute int
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Sales map API is running",
			"sessions": d.Sessions.Len(),
		})
	})

	api := r.Group("/api/v1")
	{
		login := middleware.NewRateLimiter(d.LoginPerMinute, time.Minute)
		api.POST("/auth/login", middleware.RateLimit(login), d.Auth.Login)
		api.POST("/auth/signup", middleware.RateLimit(login), d.Access.Signup)

		authed := api.Group("", middleware.RequireSession(d.Tokens, d.Sessions))
		authed.POST("/auth/logout", d.Auth.Logout)

		authed.GET("/metrics/:dimension", d.Metrics.GetMetrics)

		// 报表
		reports := authed.Group("/reports")
		{
			reports.GET("/non-billing", d.Reports.NonBilling)
			reports.GET("/comparative", d.Reports.Comparative)
		}

		// 地图
		m := authed.Group("/map")
		{
			m.GET("", d.Map.GetMap)
			m.GET("/render", d.Map.Render)
			m.POST("/zoom", d.Map.Zoom)
			m.POST("/pan", d.Map.Pan)
			m.POST("/hover", d.Map.Hover)
			m.POST("/click", d.Map.Click)
			m.POST("/select", d.Map.Select)
			m.POST("/search", d.Map.Search)
			m.POST("/mode", d.Map.Mode)
			m.POST("/fullscreen", d.Map.Fullscreen)
		}

		// 图表
		charts := authed.Group("/charts")
		{
			charts.GET("/dealers", d.Charts.GetDealers)
			charts.POST("/dealers/drill", d.Charts.Drill)
			charts.POST("/dealers/back", d.Charts.Back)
			charts.POST("/dealers/interactive", d.Charts.Interactive)
			charts.GET("/:chart", d.Charts.GetModal)
			charts.GET("/:chart/selection", d.Charts.GetSelection)
			charts.POST("/:chart/selection", d.Charts.UpdateSelection)
		}

		// 用户与权限
		admin := authed.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/access-requests", d.Access.ListRequests)
			admin.POST("/access-requests/:id/approve", d.Access.Approve)
			admin.POST("/access-requests/:id/reject", d.Access.Reject)
			admin.GET("/users", d.Access.ListUsers)
			admin.POST("/users", d.Access.CreateUser)
		}

		if d.Sync != nil {
			authed.POST("/sync", middleware.RequireAdmin(), d.Sync.Sync)
			authed.GET("/sync/status", d.Sync.Status)
		}
	}

	return r
}
