package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Permission policies.
const (
	PolicyResolve  = "resolve"
	PolicyEmbedded = "embedded"
)

type Config struct {
	Port        string
	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration
	MongoURI    string
	DBName      string
	Environment string

	CookieSecure bool
	CORSOrigins  string

	// PermissionPolicy selects whether gated routes re-resolve permissions
	// from the store or trust the set embedded in the token.
	PermissionPolicy string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return fromEnv(), nil
}

func fromEnv() *Config {
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil || ttl <= 0 {
		log.Printf("Invalid TOKEN_TTL, falling back to 1h")
		ttl = time.Hour
	}

	policy := strings.ToLower(getEnv("PERMISSION_POLICY", PolicyResolve))
	if policy != PolicyEmbedded {
		policy = PolicyResolve
	}

	return &Config{
		Port:             getEnv("PORT", "5001"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "issue-tracker"),
		TokenTTL:         ttl,
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "IssueTracker"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		CookieSecure:     getEnv("COOKIE_SECURE", "false") == "true",
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173"),
		PermissionPolicy: policy,
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
