package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string
	DBPass         string // empty allowed
	DBHost         string
	DBPort         string
	DBName         string
	AutoMigrate    bool // apply the embedded schema at startup
	JWTSecret      string
	AccessTTLMin   int // access token time-to-live in minutes
	RefreshTTLDays int // refresh token time-to-live in days
	BcryptCost     int
	CORSOrigins    []string
	AdminSIC       string // registrant granted the admin role at startup, if set

	RabbitURL     string // empty disables the broker; events are handled in-process
	ClaimCacheTTL time.Duration

	Notify    NotifyConfig
	Scheduler SchedulerConfig
}

// NotifyConfig carries provider credentials.  A provider with missing
// credentials stays unconfigured and its channel reports ErrNotConfigured.
type NotifyConfig struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	ResendAPIKey     string
	EmailFrom        string
	HTTPTimeout      time.Duration
	RatePerSecond    float64
	Burst            int
	Channels         []string // channels used for rank-assigned events
}

// SchedulerConfig controls the periodic reminder sweep.
type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
	Channel  string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "*")),
		AdminSIC:       os.Getenv("ADMIN_SIC"),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
		ClaimCacheTTL:  envDur("CLAIM_CACHE_TTL", 24*time.Hour),
		Notify:         LoadNotifyConfig(),
		Scheduler: SchedulerConfig{
			Enabled:  envBool("REMINDER_ENABLED", false),
			Interval: envDur("REMINDER_INTERVAL", 6*time.Hour),
			Channel:  envStr("REMINDER_CHANNEL", "email"),
		},
	}
}

// LoadNotifyConfig reads the SMS and email provider settings.
func LoadNotifyConfig() NotifyConfig {
	rps, err := strconv.ParseFloat(envStr("NOTIFY_RATE_PER_SECOND", "5"), 64)
	if err != nil || rps <= 0 {
		rps = 5
	}
	return NotifyConfig{
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_PHONE_NUMBER"),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		EmailFrom:        envStr("EMAIL_FROM", "Faculty Fest <noreply@facultyfest.local>"),
		HTTPTimeout:      envDur("NOTIFY_HTTP_TIMEOUT", 10*time.Second),
		RatePerSecond:    rps,
		Burst:            envInt("NOTIFY_BURST", 1),
		Channels:         splitList(envStr("NOTIFY_CHANNELS", "sms,email")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
