package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Mail     MailConfig
	Academic AcademicConfig
	Cache    CacheConfig
	Report   ReportConfig
	Jobs     JobsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig configures OTP delivery for password resets.
type MailConfig struct {
	SendGridKey string
	FromName    string
	FromEmail   string
	OTPTTL      time.Duration
}

// AcademicConfig bounds the academic domain values accepted by the API.
type AcademicConfig struct {
	Courses         []string
	MinYear         int
	MaxYear         int
	MinGroupSize    int
	MaxGroupSize    int
	MaxEnrollmentNo int
}

// CacheConfig tunes the dropdown read-through cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ReportConfig locates generated report files and bounds download links.
type ReportConfig struct {
	Dir    string
	URLTTL time.Duration
}

// JobsConfig tunes the background mail worker pool.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 7*24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		SendGridKey: v.GetString("SENDGRID_API_KEY"),
		FromName:    v.GetString("MAIL_FROM_NAME"),
		FromEmail:   v.GetString("MAIL_FROM_EMAIL"),
		OTPTTL:      parseDuration(v.GetString("OTP_TTL"), 15*time.Minute),
	}

	cfg.Academic = AcademicConfig{
		Courses:         splitAndTrim(v.GetString("ACADEMIC_COURSES")),
		MinYear:         v.GetInt("ACADEMIC_MIN_YEAR"),
		MaxYear:         v.GetInt("ACADEMIC_MAX_YEAR"),
		MinGroupSize:    v.GetInt("GROUP_MIN_SIZE"),
		MaxGroupSize:    v.GetInt("GROUP_MAX_SIZE"),
		MaxEnrollmentNo: v.GetInt("ENROLLMENT_MAX_SEQ"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_DROPDOWN_CACHE"),
		TTL:     parseDuration(v.GetString("DROPDOWN_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Report = ReportConfig{
		Dir:    v.GetString("REPORT_DIR"),
		URLTTL: parseDuration(v.GetString("REPORT_URL_TTL"), 24*time.Hour),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "fyp_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "fyp-admin-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "FYP Admin")
	v.SetDefault("MAIL_FROM_EMAIL", "noreply@fyp-portal.local")
	v.SetDefault("OTP_TTL", "15m")

	v.SetDefault("ACADEMIC_COURSES", "BCA,MCA,BBA,MBA")
	v.SetDefault("ACADEMIC_MIN_YEAR", 2020)
	v.SetDefault("ACADEMIC_MAX_YEAR", 2030)
	v.SetDefault("GROUP_MIN_SIZE", 3)
	v.SetDefault("GROUP_MAX_SIZE", 4)
	v.SetDefault("ENROLLMENT_MAX_SEQ", 999)

	v.SetDefault("ENABLE_DROPDOWN_CACHE", false)
	v.SetDefault("DROPDOWN_CACHE_TTL", "5m")

	v.SetDefault("REPORT_DIR", "./reports")
	v.SetDefault("REPORT_URL_TTL", "24h")

	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_BUFFER_SIZE", 16)
	v.SetDefault("JOBS_MAX_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
