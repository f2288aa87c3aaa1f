// Package config provides admin credential verification.
package config

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// AdminConfig holds the single admin credential for the workbench. The site
// has exactly one operator, so there is no user table; the bcrypt hash of the
// admin password is configured directly.
type AdminConfig struct {
	PasswordHash string
}

// NewAdminConfig creates the admin configuration from environment variables.
// It reads ADMIN_PASSWORD_HASH (required), which must be a bcrypt hash.
func NewAdminConfig() (*AdminConfig, error) {
	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	if hash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is required but not set")
	}

	cfg := &AdminConfig{PasswordHash: hash}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *AdminConfig) normalize() error {
	if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is not a valid bcrypt hash: %v", err)
	}
	return nil
}

// VerifyPassword checks a candidate password against the stored hash.
func (c *AdminConfig) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}
