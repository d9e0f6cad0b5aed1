package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantMessage  string
		wantRedirect string
	}{
		{"validation", &services.Error{Kind: services.ErrValidation, Message: "Please enter a name"}, http.StatusBadRequest, "Please enter a name", ""},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password", ""},
		{"session", &services.Error{Kind: services.ErrUnauthorized, Message: "Session expired"}, http.StatusUnauthorized, "Session expired", "/auth/login"},
		{"forbidden", &services.Error{Kind: services.ErrForbidden, Message: "Permission denied"}, http.StatusForbidden, "Permission denied", ""},
		{"not found", &services.Error{Kind: services.ErrNotFound, Message: "Trip not found"}, http.StatusNotFound, "Trip not found", "/dashboard"},
		{"conflict", &services.Error{Kind: services.ErrConflict, Message: "Trip already exists"}, http.StatusConflict, "Trip already exists", ""},
		{"unavailable", &services.Error{Kind: services.ErrUnavailable, Message: "2FA is not configured on this server"}, http.StatusServiceUnavailable, "2FA is not configured on this server", ""},
		{"wrapped", fmt.Errorf("load: %w", &services.Error{Kind: services.ErrNotFound, Message: "Member not found"}), http.StatusNotFound, "Member not found", "/dashboard"},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError, "Failed to load trip", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/trips/x", nil)

			respondServiceError(c, tt.err, "Failed to load trip")

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, body["error"])
			}
			if body["redirect"] != tt.wantRedirect {
				t.Errorf("Expected redirect %q, got %q", tt.wantRedirect, body["redirect"])
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		wantID string
		wantOK bool
	}{
		{"uuid", "3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a", "3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a", true},
		{"upper case", "3F1C2B9E-8D4A-4C5E-9F7A-0B1C2D3E4F5A", "3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a", true},
		{"urn form", "urn:uuid:3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a", "3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a", true},
		{"braces", "{3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a}", "3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a", true},
		{"garbage", "not-a-uuid", "", false},
		{"sql", "1 OR 1=1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}

			id, ok := pathID(c, "id", "Trip not found")
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && id != tt.wantID {
				t.Errorf("Expected id %s, got %s", tt.wantID, id)
			}
			if !ok && w.Code != http.StatusNotFound {
				t.Errorf("Expected 404, got %d", w.Code)
			}
		})
	}
}
