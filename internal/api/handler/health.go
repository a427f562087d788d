package handler

import (
	"net/http"

	"github.com/mammyai/chat-gateway/internal/api/response"
)

// HealthCheck reports process liveness
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}
