package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jengzang/salesmap-backend-go/internal/viz"
)

// EnvPrefix 环境变量前缀, e.g. SALESMAP_SERVER_PORT
const EnvPrefix = "SALESMAP"

// Config 应用配置
type Config struct {
	Server    ServerConfig         `mapstructure:"server"`
	Database  DatabaseConfig       `mapstructure:"database"`
	Auth      AuthConfig           `mapstructure:"auth"`
	Log       LogConfig            `mapstructure:"log"`
	ERP       ERPConfig            `mapstructure:"erp"`
	Map       MapConfig            `mapstructure:"map"`
	Bands     viz.BandThresholds   `mapstructure:"bands"`
	Chart     viz.ChartOptions     `mapstructure:"chart"`
	Selection viz.SelectionOptions `mapstructure:"selection"`
	RateLimit RateLimitConfig      `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ERP report kinds
const (
	ReportSales = "sales" // get_sales_report, dated rows, needs a login
	ReportIOSPL = "iospl" // get_iospl_sales_report, range totals, no login
)

// ERPConfig 上游 ERP 接口配置
type ERPConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Report   string        `mapstructure:"report"`
	RetryMax int           `mapstructure:"retry_max"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether sync can run
func (e ERPConfig) Enabled() bool {
	if e.BaseURL == "" {
		return false
	}
	return e.Report == ReportIOSPL || e.Username != ""
}

type BoundsConfig struct {
	MinLat float64 `mapstructure:"min_lat"`
	MaxLat float64 `mapstructure:"max_lat"`
	MinLng float64 `mapstructure:"min_lng"`
	MaxLng float64 `mapstructure:"max_lng"`
}

// MapConfig 地图画布与相机配置
type MapConfig struct {
	Width     float64       `mapstructure:"width"`
	Height    float64       `mapstructure:"height"`
	Bounds    BoundsConfig  `mapstructure:"bounds"`
	MinZoom   float64       `mapstructure:"min_zoom"`
	MaxZoom   float64       `mapstructure:"max_zoom"`
	ZoomStep  float64       `mapstructure:"zoom_step"`
	StateSize viz.SizeScale `mapstructure:"state_size"`
	CitySize  viz.SizeScale `mapstructure:"city_size"`
}

type RateLimitConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute"`
}

// SetDefaults registers every key so env overrides are picked up by Unmarshal
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("database.path", "./data/sales.db")

	v.SetDefault("auth.jwt_secret", "your-secret-key-change-in-production")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("erp.base_url", "")
	v.SetDefault("erp.username", "")
	v.SetDefault("erp.password", "")
	v.SetDefault("erp.report", ReportSales)
	v.SetDefault("erp.retry_max", 3)
	v.SetDefault("erp.timeout", 60*time.Second)

	v.SetDefault("map.width", 500)
	v.SetDefault("map.height", 550)
	v.SetDefault("map.bounds.min_lat", viz.IndiaBBox.Lat.Lo)
	v.SetDefault("map.bounds.max_lat", viz.IndiaBBox.Lat.Hi)
	v.SetDefault("map.bounds.min_lng", viz.IndiaBBox.Lng.Lo)
	v.SetDefault("map.bounds.max_lng", viz.IndiaBBox.Lng.Hi)
	v.SetDefault("map.min_zoom", 1)
	v.SetDefault("map.max_zoom", 4)
	v.SetDefault("map.zoom_step", 0.5)
	v.SetDefault("map.state_size.min", viz.StateSize.Min)
	v.SetDefault("map.state_size.max", viz.StateSize.Max)
	v.SetDefault("map.city_size.min", viz.CitySize.Min)
	v.SetDefault("map.city_size.max", viz.CitySize.Max)

	v.SetDefault("bands.critical", viz.DefaultBands.Critical)
	v.SetDefault("bands.high", viz.DefaultBands.High)
	v.SetDefault("bands.medium", viz.DefaultBands.Medium)

	d := viz.DefaultChartOptions
	v.SetDefault("chart.pull_top_n", d.PullTopN)
	v.SetDefault("chart.pull_offset", d.PullOffset)
	v.SetDefault("chart.label_min_percent", d.LabelMinPercent)
	v.SetDefault("chart.aggregate_name_len", d.AggregateNameLen)
	v.SetDefault("chart.detail_name_len", d.DetailNameLen)
	v.SetDefault("chart.aggregate_noun", d.AggregateNoun)
	v.SetDefault("chart.detail_noun", d.DetailNoun)
	v.SetDefault("chart.detail_title", d.DetailTitle)

	v.SetDefault("selection.keep_one", true)
	v.SetDefault("ratelimit.login_per_minute", 10)
}

// Load 加载配置: defaults, then the optional YAML file, then .env and the environment.
// The unprefixed PORT, DB_PATH and JWT_SECRET variables are still honoured.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.path", EnvPrefix+"_DATABASE_PATH", "DB_PATH")
	_ = v.BindEnv("auth.jwt_secret", EnvPrefix+"_AUTH_JWT_SECRET", "JWT_SECRET")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if !strings.HasPrefix(cfg.Server.Port, ":") && !strings.Contains(cfg.Server.Port, ":") {
		cfg.Server.Port = ":" + cfg.Server.Port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the visualization core cannot render
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if err := c.MapOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("map: %w", err))
	}
	if c.Chart.PullTopN < 0 || c.Chart.PullOffset < 0 {
		errs = append(errs, errors.New("chart pull settings must be non-negative"))
	}
	if c.ERP.Report != ReportSales && c.ERP.Report != ReportIOSPL {
		errs = append(errs, fmt.Errorf("erp.report must be %q or %q", ReportSales, ReportIOSPL))
	}
	if c.RateLimit.LoginPerMinute <= 0 {
		errs = append(errs, errors.New("ratelimit.login_per_minute must be positive"))
	}
	return errors.Join(errs...)
}

// MapOptions converts the map section for viz.NewMapView
func (c *Config) MapOptions() viz.MapOptions {
	b := c.Map.Bounds
	return viz.MapOptions{
		BBox:      viz.NewBBox(b.MinLat, b.MaxLat, b.MinLng, b.MaxLng),
		Canvas:    viz.Canvas{Width: c.Map.Width, Height: c.Map.Height},
		MinZoom:   c.Map.MinZoom,
		MaxZoom:   c.Map.MaxZoom,
		ZoomStep:  c.Map.ZoomStep,
		StateSize: c.Map.StateSize,
		CitySize:  c.Map.CitySize,
		Bands:     c.Bands,
	}
}
