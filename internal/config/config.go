package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	Server   ServerConfig
	CORS     CORSConfig
	Log      LogConfig
	Hall     HallConfig
}

type DatabaseConfig struct {
	Backend  string // "mysql" or "memory"
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type JWTConfig struct {
	AccessSecret      string
	AccessTokenExpiry time.Duration
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// HallConfig holds the school-specific pass rules
type HallConfig struct {
	Location       *time.Location
	StationSlots   int
	RoomSlots      int
	PeriodSchedule string // e.g. "1=08:00-08:50,2=08:55-09:45"
	StationKeyHash string // bcrypt hash of the kiosk key, empty disables swipes
	RolloverAt     string // "HH:MM" local time of the daily rollover job
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Backend:  getEnv("STORAGE_BACKEND", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "hallpass"),
		},
		JWT: JWTConfig{
			AccessSecret:      getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			AccessTokenExpiry: parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "12h")),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Hall: HallConfig{
			Location:       parseLocation(getEnv("TIMEZONE", "Local")),
			StationSlots:   parseInt(getEnv("STATION_SLOTS", "3"), 3),
			RoomSlots:      parseInt(getEnv("ROOM_SLOTS", "2"), 2),
			PeriodSchedule: getEnv("PERIOD_SCHEDULE", ""),
			StationKeyHash: getEnv("STATION_KEY_HASH", ""),
			RolloverAt:     getEnv("ROLLOVER_AT", "00:05"),
		},
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return 12 * time.Hour
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		fmt.Printf("Warning: Invalid integer '%s', using %d\n", s, fallback)
		return fallback
	}
	return n
}

func parseLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		fmt.Printf("Warning: Unknown timezone '%s', using Local\n", name)
		return time.Local
	}
	return loc
}

func parseOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// ParseRollover splits an "HH:MM" rollover time into hour and minute.
func (h HallConfig) ParseRollover() (uint, uint, error) {
	t, err := time.Parse("15:04", h.RolloverAt)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ROLLOVER_AT %q: %w", h.RolloverAt, err)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}
