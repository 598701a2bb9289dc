package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL string
	ServerPort  int

	TeamSize             int
	MatchDurationSeconds int
	GoalLimit            int
	SuspensionSeconds    int

	BackupDir          string
	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables. A .env file is loaded
// first when present (local development); its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	teamSize, err := intEnv("TEAM_SIZE", 6)
	if err != nil {
		return nil, err
	}
	if teamSize <= 0 {
		return nil, fmt.Errorf("TEAM_SIZE must be positive, got %d", teamSize)
	}

	duration, err := intEnv("MATCH_DURATION_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	goalLimit, err := intEnv("GOAL_LIMIT", 2)
	if err != nil {
		return nil, err
	}
	suspension, err := intEnv("SUSPENSION_SECONDS", 120)
	if err != nil {
		return nil, err
	}

	backupDir := os.Getenv("BACKUP_DIR")
	if backupDir == "" {
		backupDir = "."
	}

	origins := []string{"*"}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		DatabaseURL:          dbURL,
		ServerPort:           port,
		TeamSize:             teamSize,
		MatchDurationSeconds: duration,
		GoalLimit:            goalLimit,
		SuspensionSeconds:    suspension,
		BackupDir:            backupDir,
		CORSAllowedOrigins:   origins,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}, nil
}

// AvatarStorageConfigured reports whether all R2 credentials are present.
// Avatar upload is optional; the rest of the app runs without it.
func (c *Config) AvatarStorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return n, nil
}
