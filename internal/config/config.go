// 包 config：进程级静态配置，来源依次为内置默认值、可选 YAML 文件（CONFIG_FILE）与环境变量
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"trashtrackr/internal/geofence"
)

// 存储后端取值
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

// DefaultBannedTokens：内容清理使用的默认屏蔽词
var DefaultBannedTokens = []string{
	"20 Rupai Pepsii Nam Shamant Anna Seksii",
	"Happy Birthday Kohli Anna",
	"You have been Pwned bro Sorrryyyyy",
	"Air Pollution",
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type MongoConfig struct {
	URI string
	DB  string
}

type ServerConfig struct {
	Addr             string
	APIBase          string
	JWTSecret        string
	JWTIssuer        string
	RateLimitEnabled bool
	RateLimitQPS     int
	DedupeTTL        time.Duration
}

// 文档注释：配置总表
// 约束：进程生命周期内不变；PostgreSQL 与 Redis 连接参数仍由 utils 直接读取 PG_* / REDIS_*。
type Config struct {
	StoreBackend string
	Collection   string
	Firestore    FirestoreConfig
	Mongo        MongoConfig
	RedisEnabled bool
	Geofence     geofence.Config
	BannedTokens []string
	Server       ServerConfig
}

type fileConfig struct {
	ServiceArea *struct {
		Center   *geofence.Coordinate `yaml:"center"`
		RadiusKm *float64             `yaml:"radius_km"`
	} `yaml:"service_area"`
	AdminBounds  *geofence.Bounds `yaml:"admin_bounds"`
	BannedTokens []string         `yaml:"banned_tokens"`
}

func Default() Config {
	return Config{
		StoreBackend: BackendFirestore,
		Collection:   "reports",
		Mongo:        MongoConfig{URI: "mongodb://localhost:27017", DB: "trashtrackr"},
		Geofence:     geofence.DefaultConfig(),
		BannedTokens: append([]string(nil), DefaultBannedTokens...),
		Server: ServerConfig{
			Addr:         ":8080",
			APIBase:      "/api",
			RateLimitQPS: 200,
			DedupeTTL:    60 * time.Second,
		},
	}
}

// Load：从 CONFIG_FILE 与环境变量构建配置
func Load() (Config, error) {
	cfg := Default()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := applyFile(&cfg, b); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func applyFile(cfg *Config, b []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.ServiceArea != nil {
		if fc.ServiceArea.Center != nil {
			cfg.Geofence.Center = *fc.ServiceArea.Center
		}
		if fc.ServiceArea.RadiusKm != nil {
			cfg.Geofence.RadiusKm = *fc.ServiceArea.RadiusKm
		}
	}
	if fc.AdminBounds != nil {
		cfg.Geofence.Bounds = *fc.AdminBounds
	}
	if len(fc.BannedTokens) > 0 {
		cfg.BannedTokens = fc.BannedTokens
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = strings.ToLower(strings.TrimSpace(v))
	}
	setString(&cfg.Firestore.ProjectID, "FIRESTORE_PROJECT_ID")
	setString(&cfg.Firestore.CredentialsFile, "FIREBASE_SERVICE_ACCOUNT_PATH")
	setString(&cfg.Collection, "REPORTS_COLLECTION")
	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.DB, "MONGO_DB")
	setString(&cfg.Server.Addr, "ADDR")
	setString(&cfg.Server.APIBase, "API_BASE")
	setString(&cfg.Server.JWTSecret, "AUTH_JWT_SECRET")
	setString(&cfg.Server.JWTIssuer, "AUTH_JWT_ISSUER")
	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	cfg.Server.RateLimitEnabled = os.Getenv("RATE_LIMIT_ENABLED") == "true"
	if v := os.Getenv("BANNED_TOKENS"); v != "" {
		var toks []string
		for _, t := range strings.Split(v, "|") {
			if t = strings.TrimSpace(t); t != "" {
				toks = append(toks, t)
			}
		}
		cfg.BannedTokens = toks
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"SERVICE_CENTER_LAT", &cfg.Geofence.Center.Lat},
		{"SERVICE_CENTER_LNG", &cfg.Geofence.Center.Lng},
		{"SERVICE_RADIUS_KM", &cfg.Geofence.RadiusKm},
		{"ADMIN_MIN_LAT", &cfg.Geofence.Bounds.MinLat},
		{"ADMIN_MAX_LAT", &cfg.Geofence.Bounds.MaxLat},
		{"ADMIN_MIN_LNG", &cfg.Geofence.Bounds.MinLng},
		{"ADMIN_MAX_LNG", &cfg.Geofence.Bounds.MaxLng},
	}
	for _, f := range floats {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}
	if v := os.Getenv("RATE_LIMIT_QPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.RateLimitQPS = n
		}
	}
	if v := os.Getenv("DEDUPE_TTL_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Server.DedupeTTL = time.Duration(n) * time.Second
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendFirestore, BackendPostgres, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	g := c.Geofence
	if g.RadiusKm <= 0 {
		return errors.New("service radius must be positive")
	}
	if g.Center.Lat < -90 || g.Center.Lat > 90 || g.Center.Lng < -180 || g.Center.Lng > 180 {
		return errors.New("service center out of range")
	}
	if g.Bounds.MinLat > g.Bounds.MaxLat || g.Bounds.MinLng > g.Bounds.MaxLng {
		return errors.New("admin bounds are inverted")
	}
	return nil
}
