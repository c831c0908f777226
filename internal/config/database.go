// internal/config/database.go
package config

import (
	"fmt"
	"time"
)

// DSN prefers DATABASE_URL when set and falls back to the discrete settings.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (d *DatabaseConfig) SlowThreshold() time.Duration {
	return time.Duration(d.SlowThresholdMs) * time.Millisecond
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
