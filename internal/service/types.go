package service

import "github.com/popeskul/insdr-dispatch/internal/api"

// BatchRequest is one bulk send. Empty Template and ReferenceURL fall back to
// the configured values.
type BatchRequest struct {
	Actor        string
	Recipients   []string
	Template     string
	ReferenceURL string
}

type HealthStatus struct {
	Status                    api.HealthResponseStatus         `json:"status"`
	SessionStatus             api.HealthResponseSessionStatus  `json:"session_status"`
	DatabaseStatus            api.HealthResponseDatabaseStatus `json:"database_status"`
	RedisStatus               api.HealthResponseRedisStatus    `json:"redis_status"`
	CircuitBreakerStatus      string                           `json:"circuit_breaker_status,omitempty"`
	SMSCircuitBreakerState    api.CircuitBreakerState          `json:"sms_circuit_breaker_state,omitempty"`
	CertificationCircuitState api.CircuitBreakerState          `json:"certification_circuit_breaker_state,omitempty"`
}
