package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Registry     RegistryConfig
	Alerts       AlertsConfig
	Media        MediaConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RUAC_APP_ENV" required:"true"`
	Port         string `envconfig:"RUAC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RUAC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RUAC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RUAC_DB_DSN"`
	Driver string `envconfig:"RUAC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RUAC_DB_HOST"`
	LegacyPort     int    `envconfig:"RUAC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RUAC_DB_USER"`
	LegacyPassword string `envconfig:"RUAC_DB_PASSWORD"`
	LegacyName     string `envconfig:"RUAC_DB_NAME"`
	LegacySSLMode  string `envconfig:"RUAC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RUAC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RUAC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RUAC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RUAC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RUAC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RUAC_REDIS_ADDR"`
	Password     string        `envconfig:"RUAC_REDIS_PASSWORD"`
	DB           int           `envconfig:"RUAC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RUAC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RUAC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RUAC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RUAC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RUAC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RUAC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RUAC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RUAC_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RUAC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RUAC_AUTO_MIGRATE" default:"false"`
}

// RegistryConfig drives registration document issuance and public links.
type RegistryConfig struct {
	PublicBaseURL string `envconfig:"RUAC_PUBLIC_BASE_URL" default:"https://ruac.mx"`
}

// VerifyURL builds the QR-codeable verification link for a registration number.
func (r RegistryConfig) VerifyURL(registrationNumber string) string {
	return strings.TrimRight(r.PublicBaseURL, "/") + "/verify/" + url.PathEscape(registrationNumber)
}

type AlertsConfig struct {
	DefaultRadiusKm float64 `envconfig:"RUAC_ALERTS_DEFAULT_RADIUS_KM" default:"5"`
	MaxRadiusKm     float64 `envconfig:"RUAC_ALERTS_MAX_RADIUS_KM" default:"50"`
	MaxRecipients   int     `envconfig:"RUAC_ALERTS_MAX_RECIPIENTS" default:"500"`
}

type MediaConfig struct {
	MaxUploadMB     int    `envconfig:"RUAC_MAX_UPLOAD_MB" default:"10"`
	PlaceholderURL  string `envconfig:"RUAC_MEDIA_PLACEHOLDER_URL" default:"https://ruac.mx/static/pet-placeholder.png"`
	PhotoPathPrefix string `envconfig:"RUAC_MEDIA_PHOTO_PREFIX" default:"pets"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RUAC_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RUAC_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RUAC_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"RUAC_GCS_BUCKET_NAME"`
}

type PubSubConfig struct {
	AlertsTopic        string `envconfig:"RUAC_PUBSUB_ALERTS_TOPIC" default:"ruac-alert-events"`
	AlertsSubscription string `envconfig:"RUAC_PUBSUB_ALERTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RUAC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RUAC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RUAC_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
