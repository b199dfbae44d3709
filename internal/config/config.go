// Package config loads application configuration from environment
// variables.  A .env file in the working directory is honoured when
// present.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Strings for identifiers and secrets, ints
// and bools for knobs.
type Config struct {
	Env                string // application environment (e.g. "dev", "prod")
	Port               string // HTTP port to listen on
	DBUser             string // database username
	DBPass             string // database password (optional)
	DBHost             string // database host address
	DBPort             string // database port number
	DBName             string // database name
	JWTSecret          string // secret used to verify access tokens
	RabbitURL          string // AMQP broker URL for notification events
	ProcessorAPIURL    string // payment processor API base URL (optional)
	ProcessorAPIKey    string // payment processor secret key
	WebhookSecret      string // shared secret expected on processor webhooks
	BookingPendingHold bool   // count PENDING_PAYMENT bookings as availability conflicts
}

// Load reads configuration values from the environment and returns a
// Config.  Required variables are enforced by must(); missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // best effort; absent .env is fine
	return Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"), // empty allowed
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		JWTSecret:          must("JWT_SECRET"),
		RabbitURL:          os.Getenv("RABBITMQ_URL"),
		ProcessorAPIURL:    os.Getenv("PROCESSOR_API_URL"),
		ProcessorAPIKey:    os.Getenv("PROCESSOR_API_KEY"),
		WebhookSecret:      os.Getenv("PROCESSOR_WEBHOOK_SECRET"),
		BookingPendingHold: boolEnv("BOOKING_PENDING_HOLD", false),
	}
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

func boolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
