package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/procdock/procdock/internal/command"
	"github.com/procdock/procdock/internal/common/logger"
	v1 "github.com/procdock/procdock/pkg/api/v1"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return log
}

func newTestRouter(t *testing.T, recentLimit int) (*gin.Engine, *command.Runner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := newTestLogger(t)
	registry := command.NewRegistry(nil, recentLimit, log)
	runner := command.NewRunner(registry, command.NewExecFactory(), command.NewPtyFactory(80, 24), nil, command.RunnerOptions{
		StopGracePeriod: 500 * time.Millisecond,
	}, log)
	t.Cleanup(func() { runner.RemoveAll() })

	router := gin.New()
	RegisterCommandRoutes(router, runner, log)
	return router, runner
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type commandResponse struct {
	Command v1.Command `json:"command"`
}

func TestRunCommandEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	w := doJSON(t, router, http.MethodPost, "/api/v1/commands", map[string]interface{}{
		"category": "test",
		"command":  "sh",
		"args":     []string{"-c", "printf 'http-output'; sleep 2"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /commands status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	var resp commandResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Command.ID == "" {
		t.Fatal("response command has no id")
	}
	if resp.Command.Status != v1.CommandRunning {
		t.Errorf("status = %v, want running", resp.Command.Status)
	}

	// The registered command is immediately visible
	w = doJSON(t, router, http.MethodGet, "/api/v1/commands/"+resp.Command.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /commands/%s status = %d, want 200", resp.Command.ID, w.Code)
	}

	// Buffered output is returned on demand
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		w = doJSON(t, router, http.MethodGet, "/api/v1/commands/"+resp.Command.ID+"?include_output=true", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("GET with output status = %d, want 200", w.Code)
		}
		var current commandResponse
		if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		for _, chunk := range current.Command.Output {
			if strings.Contains(chunk.Data, "http-output") {
				return
			}
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("output never contained the expected text")
}

func TestRunCommandValidation(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	w := doJSON(t, router, http.MethodPost, "/api/v1/commands", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST without command status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/commands", map[string]interface{}{
		"command": "procdock-no-such-tool",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST with unknown executable status = %d, want 400", w.Code)
	}
}

func TestGetCommandNotFound(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	w := doJSON(t, router, http.MethodGet, "/api/v1/commands/test-missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("GET missing command status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/commands/test-missing/restart", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("restart missing command status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/commands/test-missing/stop", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("stop missing command status = %d, want 404", w.Code)
	}
}

func TestStopAndRemoveCommand(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	w := doJSON(t, router, http.MethodPost, "/api/v1/commands", map[string]interface{}{
		"category": "test",
		"command":  "sleep",
		"args":     []string{"60"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /commands status = %d, want 201", w.Code)
	}
	var resp commandResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	id := resp.Command.ID

	w = doJSON(t, router, http.MethodPost, "/api/v1/commands/"+id+"/stop", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("stop status = %d, want 204", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/commands/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET after stop status = %d, want 200", w.Code)
	}
	var current commandResponse
	if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if current.Command.Status != v1.CommandStopped {
		t.Errorf("status after stop = %v, want stopped", current.Command.Status)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/v1/commands/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", w.Code)
	}
	// Removal is idempotent
	w = doJSON(t, router, http.MethodDelete, "/api/v1/commands/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("second DELETE status = %d, want 204", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/commands/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", w.Code)
	}
}

func TestListCommandsScope(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	for _, category := range []string{"one", "two", "three"} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/commands", map[string]interface{}{
			"category": category,
			"command":  "sleep",
			"args":     []string{"60"},
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("POST %s status = %d, want 201", category, w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/commands?scope=all", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list all status = %d, want 200", w.Code)
	}
	var all v1.CommandList
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if all.Total != 3 {
		t.Errorf("scope=all total = %d, want 3", all.Total)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/commands?scope=recent", nil)
	var recent v1.CommandList
	if err := json.Unmarshal(w.Body.Bytes(), &recent); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if recent.Total != 2 {
		t.Errorf("scope=recent total = %d, want 2", recent.Total)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/commands?scope=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid scope status = %d, want 400", w.Code)
	}
}

func TestTerminalEndpointsRequirePty(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	w := doJSON(t, router, http.MethodPost, "/api/v1/commands", map[string]interface{}{
		"category": "test",
		"command":  "sleep",
		"args":     []string{"60"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /commands status = %d, want 201", w.Code)
	}
	var resp commandResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	id := resp.Command.ID

	w = doJSON(t, router, http.MethodGet, "/api/v1/commands/"+id+"/screen", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("screen on pipe command status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/commands/"+id+"/input", map[string]interface{}{
		"data": "hello\n",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("input on pipe command status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/commands/"+id+"/resize", map[string]interface{}{
		"cols": 100,
		"rows": 40,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("resize on pipe command status = %d, want 400", w.Code)
	}
}
