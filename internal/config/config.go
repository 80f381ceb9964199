package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Debug   bool    `yaml:"debug" env:"DEBUG"`
	API     API     `yaml:"api"`
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
	Limiter Limiter `yaml:"limiter"`
	Notices Notices `yaml:"notices"`
	Tasks   Tasks   `yaml:"tasks"`
	CORS    CORS    `yaml:"cors"`
}

// API is the catalog backend the agent talks to.
type API struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:3000/api"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"10s"`
}

type Storage struct {
	Driver    string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	Path      string `yaml:"path" env:"STORAGE_PATH" env-default:"moviehub.db"`
	Dsn       string `yaml:"dsn" env:"STORAGE_DSN"`
	KeyPrefix string `yaml:"key_prefix" env:"STORAGE_KEY_PREFIX" env-default:"moviehub"`
	Redis     Redis  `yaml:"redis"`

	MaxConns        int           `yaml:"max_conns" env-default:"4"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT" env-default:"8000"`
	Host string `yaml:"host" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"20s"`
}

type Notices struct {
	Capacity int `yaml:"capacity" env-default:"50"`
}

// Tasks sizes the pool that runs deferred profile reconciliation.
type Tasks struct {
	Workers         int           `yaml:"workers" env-default:"2"`
	QueueSize       int           `yaml:"queue_size" env-default:"16"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

// CORS lists the browser origins allowed to call the agent API.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
}

func (s Server) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// ConfigPath resolves the config file from the -config flag or CONFIG_PATH,
// after loading a .env file when one exists.
func ConfigPath() string {
	_ = godotenv.Load()
	var path string
	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/local.yml"
	}
	return path
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	switch cfg.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres, StorageRedis:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == StoragePostgres && cfg.Storage.Dsn == "" {
		return nil, fmt.Errorf("storage driver postgres requires a dsn")
	}
	return &cfg, nil
}
