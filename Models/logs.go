package Models

import "gorm.io/gorm"

// RequestLog is a persisted trace of an API request, written by the logging
// middleware.
type RequestLog struct {
	gorm.Model
	Method    string `json:"method"`
	Path      string `json:"path" gorm:"index"`
	Status    int    `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Error     string `json:"error"`
}
