package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"Kudu/Models"
)

// LogConfig holds configuration for the request logging middleware
type LogConfig struct {
	// Enable console logging
	Console bool
	// Persist request rows to the database
	Persist bool
	// Skip logging for specific paths
	SkipPaths []string
}

// DefaultLogConfig logs to the console and persists everything except health
// checks.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:   true,
		Persist:   true,
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// RequestLogger logs each request to the console and writes a RequestLog row.
// The database write happens off the request path so a slow disk never holds
// a response.
func RequestLogger(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		for _, skipPath := range cfg.SkipPaths {
			if c.Path() == skipPath {
				return c.Next()
			}
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		var userID uint
		var username string
		if user, ok := c.Locals("user").(Models.User); ok {
			userID = user.ID
			username = user.Name
		}

		entry := Models.RequestLog{
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			LatencyMs: latency.Milliseconds(),
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
			UserID:    userID,
			Username:  username,
		}
		if err != nil {
			entry.Error = err.Error()
		}

		if cfg.Console {
			log.Printf("%s %s %d %s %s%s",
				entry.Method, entry.Path, entry.Status, latency, entry.IP, userTag(userID, username))
		}

		if cfg.Persist && Models.DB != nil {
			go func(row Models.RequestLog) {
				if dbErr := Models.DB.Create(&row).Error; dbErr != nil {
					log.Printf("failed to persist request log: %v", dbErr)
				}
			}(entry)
		}

		return err
	}
}

func userTag(userID uint, username string) string {
	if userID == 0 {
		return ""
	}
	return " user:" + username
}

// ErrorLogger only logs failed requests, for the high-traffic route groups.
func ErrorLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		if err == nil && c.Response().StatusCode() < 400 {
			return nil
		}

		entry := Models.RequestLog{
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			LatencyMs: time.Since(start).Milliseconds(),
			IP:        c.IP(),
		}
		if err != nil {
			entry.Error = err.Error()
		}
		log.Printf("%s %s %d error=%q", entry.Method, entry.Path, entry.Status, entry.Error)

		if Models.DB != nil {
			go func(row Models.RequestLog) {
				if dbErr := Models.DB.Create(&row).Error; dbErr != nil {
					log.Printf("failed to persist request log: %v", dbErr)
				}
			}(entry)
		}

		return err
	}
}
