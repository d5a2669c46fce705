package main

import (
	"log"
	"os"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/mocks"
	"github.com/Park-Jeong-Gil/tap-tap-burger/netplay"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment, after .env.
type Config struct {
	Port        string
	FrontendURL string

	RedisEndpoint string
	AWSRegion     string
	DatabaseURL   string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	UseMocks bool

	WaitingTimeout    time.Duration
	RoomPollInterval  time.Duration
	StateSendInterval time.Duration
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using environment")
	}

	return Config{
		Port:               getenv("PORT", "8080"),
		FrontendURL:        getenv("FRONTEND_URL", "http://localhost:3000"),
		RedisEndpoint:      getenv("REDIS_ENDPOINT", "localhost:6379"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		UseMocks:           mocks.IsMockMode(),
		WaitingTimeout:     durationEnv("WAITING_TIMEOUT", room.WaitingTimeout),
		RoomPollInterval:   durationEnv("ROOM_POLL_INTERVAL", room.PollInterval),
		StateSendInterval:  durationEnv("STATE_SEND_INTERVAL", netplay.StateInterval),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv parses values like "90s" or "10m".
func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
