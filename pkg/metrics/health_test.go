package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerUpdateAndHealth(t *testing.T) {
	c := NewChecker("1.0.0")
	c.Update("cluster", true, "")

	health := c.Health()
	if health.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", health.Status)
	}
	if health.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", health.Version)
	}
	if health.Components["cluster"] != "healthy" {
		t.Errorf("expected cluster healthy, got '%s'", health.Components["cluster"])
	}
}

func TestCheckerHealth_OneUnhealthy(t *testing.T) {
	c := NewChecker("")
	c.Update("cluster", true, "")
	c.Update("resource_manager", false, "yarn: connection refused")

	health := c.Health()
	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got '%s'", health.Status)
	}
	if health.Components["resource_manager"] != "unhealthy: yarn: connection refused" {
		t.Errorf("unexpected resource_manager status: %s", health.Components["resource_manager"])
	}
}

func TestCheckerReadiness_AllCriticalHealthy(t *testing.T) {
	c := NewChecker("")
	c.Update("cluster", true, "")
	c.Update("resource_manager", true, "")
	c.Update("reconciler", true, "")

	readiness := c.Readiness()
	if readiness.Status != "ready" {
		t.Errorf("expected status 'ready', got '%s'", readiness.Status)
	}
}

func TestCheckerReadiness_MissingCriticalComponent(t *testing.T) {
	c := NewChecker("")
	c.Update("cluster", true, "")
	// resource_manager and reconciler never reported in

	readiness := c.Readiness()
	if readiness.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got '%s'", readiness.Status)
	}
	if readiness.Message == "" {
		t.Error("expected message explaining why not ready")
	}
}

func TestCheckerReadiness_CriticalComponentUnhealthy(t *testing.T) {
	c := NewChecker("")
	c.Update("cluster", true, "")
	c.Update("resource_manager", false, "node discovery failed")
	c.Update("reconciler", true, "")

	readiness := c.Readiness()
	if readiness.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got '%s'", readiness.Status)
	}
}

func TestCheckerHealthHandler(t *testing.T) {
	c := NewChecker("test")
	c.Update("cluster", true, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	c.HealthHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var health Status
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy status, got %s", health.Status)
	}
	if health.Version != "test" {
		t.Errorf("expected version 'test', got %s", health.Version)
	}
}

func TestCheckerHealthHandler_Unhealthy(t *testing.T) {
	c := NewChecker("")
	c.Update("resource_manager", false, "broken")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	c.HealthHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var health Status
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "unhealthy" {
		t.Errorf("expected unhealthy status, got %s", health.Status)
	}
}

func TestCheckerReadyHandler(t *testing.T) {
	c := NewChecker("")
	c.Update("cluster", true, "")
	c.Update("resource_manager", true, "")
	c.Update("reconciler", true, "")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	c.ReadyHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var readiness Status
	if err := json.NewDecoder(w.Body).Decode(&readiness); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if readiness.Status != "ready" {
		t.Errorf("expected ready status, got %s", readiness.Status)
	}
}

func TestCheckerReadyHandler_NotReady(t *testing.T) {
	c := NewChecker("")
	c.Update("cluster", true, "")
	// resource_manager, reconciler not registered

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	c.ReadyHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var readiness Status
	if err := json.NewDecoder(w.Body).Decode(&readiness); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if readiness.Status != "not_ready" {
		t.Errorf("expected not_ready status, got %s", readiness.Status)
	}
}

func TestCheckerLivenessHandler(t *testing.T) {
	c := NewChecker("")

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	c.LivenessHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "alive" {
		t.Errorf("expected status 'alive', got '%s'", response["status"])
	}
	if response["uptime"] == "" {
		t.Error("uptime should not be empty")
	}
}

func TestCheckerUpdate_OverwritesPreviousState(t *testing.T) {
	c := NewChecker("")
	c.Update("reconciler", true, "ok")
	c.Update("reconciler", false, "sample: dial tcp: connection refused")

	health := c.Health()
	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy' after re-update, got '%s'", health.Status)
	}
	if health.Components["reconciler"] != "unhealthy: sample: dial tcp: connection refused" {
		t.Errorf("unexpected reconciler status: %s", health.Components["reconciler"])
	}
}

func TestCheckerIndependentInstances(t *testing.T) {
	a := NewChecker("")
	b := NewChecker("")

	a.Update("cluster", false, "down")
	b.Update("cluster", true, "")

	if a.Health().Status == b.Health().Status {
		t.Error("two Checker instances should not share component state")
	}
}
