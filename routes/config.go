package api

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvConfig reads runtime settings from the environment, with a .env file as
// the local-dev source.
type EnvConfig struct{}

func NewEnvConfig() *EnvConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}
	return &EnvConfig{}
}

func (c *EnvConfig) GetMongoURI() string {
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

func (c *EnvConfig) GetDatabaseName() string {
	if name := os.Getenv("DB_NAME"); name != "" {
		return name
	}
	return "movieDB"
}

func (c *EnvConfig) GetServerPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "5000"
}

func (c *EnvConfig) GetAllowedOrigins() []string {
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		return strings.Split(origins, ",")
	}
	return []string{"http://localhost:5173", "http://localhost:3000"}
}
