// Package config は YAML ファイル・環境変数・.env から設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/shouni/vrazo-kit/pkg/retry"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env string `yaml:"env" env:"VRAZO_ENV" env-default:"local"`

	Gemini struct {
		APIKey        string `yaml:"api_key" env:"GEMINI_API_KEY" env-default:""`
		Model         string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash-image"`
		SafetyProfile string `yaml:"safety_profile" env:"VRAZO_SAFETY_PROFILE" env-default:"standard"`
	} `yaml:"gemini"`

	Quota struct {
		DailyLimit int `yaml:"daily_limit" env:"VRAZO_DAILY_LIMIT" env-default:"3"`
	} `yaml:"quota"`

	Retry struct {
		MaxAttempts int           `yaml:"max_attempts" env:"VRAZO_RETRY_MAX_ATTEMPTS" env-default:"2"`
		Interval    time.Duration `yaml:"interval" env:"VRAZO_RETRY_INTERVAL" env-default:"1s"`
	} `yaml:"retry"`

	Store struct {
		Backend       string `yaml:"backend" env:"VRAZO_STORE_BACKEND" env-default:"sqlite"`
		SQLitePath    string `yaml:"sqlite_path" env:"VRAZO_SQLITE_PATH" env-default:"vrazo.db"`
		RedisAddr     string `yaml:"redis_addr" env:"VRAZO_REDIS_ADDR" env-default:"127.0.0.1:6379"`
		RedisPassword string `yaml:"redis_password" env:"VRAZO_REDIS_PASSWORD" env-default:""`
		RedisDB       int    `yaml:"redis_db" env:"VRAZO_REDIS_DB" env-default:"0"`
		RedisPrefix   string `yaml:"redis_prefix" env:"VRAZO_REDIS_PREFIX" env-default:"vrazo:"`
	} `yaml:"store"`

	Assets struct {
		FetchTimeout time.Duration `yaml:"fetch_timeout" env:"VRAZO_FETCH_TIMEOUT" env-default:"30s"`
		CacheTTL     time.Duration `yaml:"cache_ttl" env:"VRAZO_CACHE_TTL" env-default:"10m"`
		// GCSEnabled が true の場合、gs:// の参照画像を Cloud Storage から読み込みます (ADC が必要)。
		GCSEnabled bool `yaml:"gcs_enabled" env:"VRAZO_GCS_ENABLED" env-default:"false"`
	} `yaml:"assets"`

	Composite struct {
		MaxWidth    int `yaml:"max_width" env:"VRAZO_COMPOSITE_MAX_WIDTH" env-default:"0"` // 0 は縮小しない
		JPEGQuality int `yaml:"jpeg_quality" env:"VRAZO_COMPOSITE_JPEG_QUALITY" env-default:"90"`
	} `yaml:"composite"`
}

// Load は .env を読み込んだ後、path の YAML (存在する場合) と環境変数から設定を作成します。
// path が空、またはファイルが存在しない場合は環境変数と既定値のみを使います。
func Load(path string) (*Config, error) {
	// .env は任意
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	if path != "" && fileExists(path) {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は値の組み合わせを検証します。API キーの有無は利用側で確認します。
func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("env は local / dev / prod のいずれかです: %q", c.Env))
	}
	switch c.Gemini.SafetyProfile {
	case "standard", "relaxed":
	default:
		errs = append(errs, fmt.Errorf("safety_profile は standard / relaxed のいずれかです: %q", c.Gemini.SafetyProfile))
	}
	if c.Quota.DailyLimit <= 0 {
		errs = append(errs, fmt.Errorf("daily_limit は 1 以上です: %d", c.Quota.DailyLimit))
	}
	if c.Retry.MaxAttempts <= 0 || c.Retry.MaxAttempts > retry.DefaultMaxAttempts {
		errs = append(errs, fmt.Errorf("max_attempts は 1 から %d の範囲です: %d", retry.DefaultMaxAttempts, c.Retry.MaxAttempts))
	}
	if c.Composite.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("max_width は 0 以上です: %d", c.Composite.MaxWidth))
	}
	if c.Composite.JPEGQuality < 1 || c.Composite.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality は 1 から 100 の範囲です: %d", c.Composite.JPEGQuality))
	}
	if c.Retry.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval は 0 以上です: %s", c.Retry.Interval))
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite バックエンドには sqlite_path が必要です"))
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("redis バックエンドには redis_addr が必要です"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend は memory / sqlite / redis のいずれかです: %q", c.Store.Backend))
	}
	return errors.Join(errs...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
