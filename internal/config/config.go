// Package config loads the credentials cmd/ytapi and library consumers
// need from a .env file and the process environment. Grounded on
// afnan9700-yt-playlist-categorizer/backend/main.go's godotenv.Load then
// os.Getenv pattern.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Credentials holds every value the Request Engine and Authentication
// Pipeline need, sourced from YTAPI_* environment variables.
type Credentials struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// Load reads a .env file if present (a missing file is not an error —
// the teacher's deployment environments often set real env vars
// directly) and returns the YTAPI_* credentials found in the process
// environment afterward.
func Load() (Credentials, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Credentials{}, fmt.Errorf("loading .env: %w", err)
	}
	return Credentials{
		APIKey:       os.Getenv("YTAPI_API_KEY"),
		ClientID:     os.Getenv("YTAPI_CLIENT_ID"),
		ClientSecret: os.Getenv("YTAPI_CLIENT_SECRET"),
		AccessToken:  os.Getenv("YTAPI_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("YTAPI_REFRESH_TOKEN"),
	}, nil
}

// RequireClient validates that the OAuth client credentials needed for
// the installed-app/device-code flows are present.
func (c Credentials) RequireClient() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("YTAPI_CLIENT_ID and YTAPI_CLIENT_SECRET must be set")
	}
	return nil
}
