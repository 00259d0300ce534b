package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobBasePath string // recitation audio assets

	AuthHMACSecret string
	TokenTTL       time.Duration

	EnableLocalAuth bool

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	Match MatchConfig
}

// MatchConfig carries the session-engine and validator knobs. The score
// formula and timing windows are configuration, not code, so product tuning
// never touches the validator.
type MatchConfig struct {
	// Per-round elapsed time is clamped to at least FloorMs on answer and
	// rejected above CeilingMs at validation.
	RoundFloorMs   int64
	RoundCeilingMs int64

	// A session older than Expiry at submission is marked expired instead
	// of scored. The admin sweep uses the same window.
	Expiry time.Duration

	// score = correct*PointsPerCorrect + max(0, rounds*RoundBudgetMs-totalMs)/SpeedDivisorMs
	PointsPerCorrect int64
	RoundBudgetMs    int64
	SpeedDivisorMs   int64

	// Round appends that fail are retried this many times; after that the
	// session keeps progressing and the validator judges the gap.
	AppendRetries int
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:       envDuration("TOKEN_TTL", 8*time.Hour),

		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", true),

		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://app.fudahub.jp"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		Match: MatchConfigFromEnv(),
	}
}

func MatchConfigFromEnv() MatchConfig {
	return MatchConfig{
		RoundFloorMs:     envInt64("MATCH_ROUND_FLOOR_MS", 200),
		RoundCeilingMs:   envInt64("MATCH_ROUND_CEILING_MS", 120_000),
		Expiry:           envDuration("MATCH_EXPIRY", 2*time.Hour),
		PointsPerCorrect: envInt64("MATCH_POINTS_PER_CORRECT", 100),
		RoundBudgetMs:    envInt64("MATCH_ROUND_BUDGET_MS", 10_000),
		SpeedDivisorMs:   envInt64("MATCH_SPEED_DIVISOR_MS", 100),
		AppendRetries:    1,
	}
}

// DefaultMatch returns the stock knobs without consulting the environment.
// Tests and the validator default to this.
func DefaultMatch() MatchConfig {
	return MatchConfig{
		RoundFloorMs:     200,
		RoundCeilingMs:   120_000,
		Expiry:           2 * time.Hour,
		PointsPerCorrect: 100,
		RoundBudgetMs:    10_000,
		SpeedDivisorMs:   100,
		AppendRetries:    1,
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
