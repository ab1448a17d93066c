package config

import (
	"flag"
	"os"
	"time"

	"memorial/internal/domain/models"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string          `yaml:"env" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Upload    UploadConfig    `yaml:"upload"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Redis     RedisConf       `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Tributes  TributesConfig  `yaml:"tributes"`
	Slideshow SlideshowConfig `yaml:"slideshow"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host" env:"HTTP_HOST"`
	Port         string        `yaml:"port" env:"PORT" env-default:"3001"`
	CORSOrigins  []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*"`
	BodyLimit    string        `yaml:"body_limit" env-default:"100M"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"2m"`
}

// StorageConfig выбирает хранилище объектов: s3, fs или memory
type StorageConfig struct {
	Driver string            `yaml:"driver" env:"STORAGE_DRIVER" env-default:"s3"`
	S3     S3Config          `yaml:"s3"`
	FS     FileStorageConfig `yaml:"fs"`
}

type S3Config struct {
	Region          string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET_NAME"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `yaml:"public_base_url" env:"S3_PUBLIC_URL"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"S3_PATH_STYLE"`
}

type FileStorageConfig struct {
	BaseDir string `yaml:"base_dir" env-default:"./uploads"`
	BaseURL string `yaml:"base_url" env-default:"http://localhost:3001/uploads"`
}

type UploadConfig struct {
	Attempts  int           `yaml:"attempts" env-default:"3"`
	BaseDelay time.Duration `yaml:"base_delay" env-default:"1s"`
}

type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled" env-default:"true"`
	MaxRequests      uint32        `yaml:"max_requests" env-default:"1"`
	Interval         time.Duration `yaml:"interval" env-default:"1m"`
	Timeout          time.Duration `yaml:"timeout" env-default:"30s"`
	FailureThreshold uint32        `yaml:"failure_threshold" env-default:"5"`
}

type RedisConf struct {
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env-default:"0"`
	DialTimeout   time.Duration `yaml:"dial_timeout" env-default:"5s"`
}

type CacheConfig struct {
	// Driver: redis или memory
	Driver       string        `yaml:"driver" env:"CACHE_DRIVER" env-default:"memory"`
	SlideshowTTL time.Duration `yaml:"slideshow_ttl" env-default:"168h"`
	AdminTTL     time.Duration `yaml:"admin_ttl" env-default:"30s"`
}

type AuthConfig struct {
	Secret        string           `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL      time.Duration    `yaml:"token_ttl" env-default:"24h"`
	SessionSecret string           `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
	Accounts      []models.Account `yaml:"accounts"`
}

type TributesConfig struct {
	// Driver: store (JSON-документ в хранилище объектов) или postgres
	Driver string `yaml:"driver" env:"TRIBUTES_DRIVER" env-default:"store"`
	DSN    string `yaml:"dsn" env:"DATABASE_URL"`
}

type SlideshowConfig struct {
	Title string `yaml:"title" env-default:"Celebration of Life"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func LoadPath(configPath string) (*Config, error) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &PathError{Path: configPath}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return "config file does not exist: " + e.Path
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
