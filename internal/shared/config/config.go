package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port             string
	CORSAllowOrigin  []string
	Env              string
	DatabaseURL      string
	PDFDir           string
	PDFRenderer      string
	BrowserBin       string
	PDFRetentionDays int
	PDFArchive       string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	LogLevel         string
	LogFormat        string
	CreatePerMinute  int
	SMTP             SMTP
}

// SMTP carries the optional outbound mail settings. Every field may be empty.
type SMTP struct {
	Server      string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
}

const defaultSenderName = "Quick Contract Generator"

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:              env,
		DatabaseURL:      dbURL,
		PDFDir:           getEnv("PDF_DIR", "generated_pdfs"),
		PDFRenderer:      normalizeRenderer(getEnv("PDF_RENDERER", "auto")),
		BrowserBin:       getEnv("ROD_BROWSER_BIN", ""),
		PDFRetentionDays: getEnvInt("PDF_RETENTION_DAYS", 30),
		PDFArchive:       normalizeArchive(getEnv("PDF_ARCHIVE", "none")),
		AWSRegion:        getEnv("AWS_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", "contracts/"),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		CreatePerMinute:  getEnvInt("RATE_LIMIT_CREATE_PER_MINUTE", 30),
		SMTP:             loadSMTP(),
	}
}

func loadSMTP() SMTP {
	username := getEnv("SMTP_USERNAME", "")
	return SMTP{
		Server:      getEnv("SMTP_SERVER", ""),
		Port:        getEnvInt("SMTP_PORT", 587),
		Username:    username,
		Password:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail: getEnv("SENDER_EMAIL", username),
		SenderName:  getEnv("SENDER_NAME", defaultSenderName),
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeRenderer(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "chrome", "browser":
		return "chrome"
	case "basic", "fpdf":
		return "basic"
	default:
		return "auto"
	}
}

func normalizeArchive(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "none"
	}
}
