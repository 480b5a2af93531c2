// End-to-end smoke test for a running procdock daemon.
// Exercises the HTTP API and the WebSocket stream against a real child
// process: run, subscribe, watch output, restart, stop, remove.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	v1 "github.com/procdock/procdock/pkg/api/v1"
	ws "github.com/procdock/procdock/pkg/websocket"
)

var (
	addr    = flag.String("addr", "localhost:8080", "Daemon host:port")
	workDir = flag.String("workdir", "/tmp", "Working directory for the test command")
	verbose = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	fmt.Printf("=== procdock smoke test against %s ===\n\n", *addr)

	// 1. Daemon up?
	log("Checking health...")
	resp, err := http.Get("http://" + *addr + "/health")
	if err != nil {
		fmt.Printf("Daemon not reachable: %v\n", err)
		os.Exit(1)
	}
	resp.Body.Close()

	// 2. Run a short command that ticks on stdout.
	log("Running command...")
	cmd := runCommand(v1.RunCommandRequest{
		Category:   "smoketest",
		Command:    "sh",
		Args:       []string{"-c", `for i in 1 2 3; do echo "tick $i"; sleep 1; done`},
		WorkingDir: *workDir,
	})
	log("Command ID: %s (pid %d)", cmd.ID, cmd.PID)

	// 3. Subscribe over WebSocket and stream until the run completes.
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+*addr+"/ws", nil)
	if err != nil {
		fmt.Printf("WebSocket dial failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	log("Subscribing to %s...", cmd.ID)
	send(conn, &ws.Message{
		ID:        "sub-1",
		Type:      ws.MessageTypeRequest,
		Action:    ws.ActionCommandSubscribe,
		Payload:   mustMarshal(map[string]string{"command_id": cmd.ID}),
		Timestamp: time.Now().UTC(),
	})

	status := streamUntilDone(conn, cmd.ID, 30*time.Second)
	if status != "completed" {
		fmt.Printf("Expected completed, got %q\n", status)
		os.Exit(1)
	}
	log("First run completed")

	// 4. Restart reuses the ID and runs the same command again.
	log("Restarting...")
	post(fmt.Sprintf("/api/v1/commands/%s/restart", cmd.ID), nil)
	status = streamUntilDone(conn, cmd.ID, 30*time.Second)
	if status != "completed" {
		fmt.Printf("Expected completed after restart, got %q\n", status)
		os.Exit(1)
	}
	log("Restart completed")

	// 5. Stop on an already-finished command is a no-op, not an error.
	log("Stopping (idempotent)...")
	post(fmt.Sprintf("/api/v1/commands/%s/stop", cmd.ID), nil)

	// 6. Remove, then confirm the registry no longer knows the ID.
	log("Removing...")
	del(fmt.Sprintf("/api/v1/commands/%s", cmd.ID))
	r, err := http.Get(fmt.Sprintf("http://%s/api/v1/commands/%s", *addr, cmd.ID))
	if err != nil {
		fmt.Printf("Lookup after remove failed: %v\n", err)
		os.Exit(1)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusNotFound {
		fmt.Printf("Expected 404 after remove, got %d\n", r.StatusCode)
		os.Exit(1)
	}

	fmt.Println("\nPASS")
}

func runCommand(req v1.RunCommandRequest) *v1.Command {
	body := post("/api/v1/commands", req)
	var resp struct {
		Command *v1.Command `json:"command"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Command == nil {
		fmt.Printf("Bad run response: %v\n%s\n", err, body)
		os.Exit(1)
	}
	return resp.Command
}

// streamUntilDone prints output notifications for the command until a
// terminal status notification arrives or the deadline passes. The server
// batches queued messages into one frame separated by newlines.
func streamUntilDone(conn *websocket.Conn, commandID string, timeout time.Duration) string {
	deadline := time.Now().Add(timeout)
	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Printf("WebSocket read failed: %v\n", err)
			os.Exit(1)
		}

		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if len(line) == 0 {
				continue
			}
			if status, done := handleMessage(line, commandID); done {
				return status
			}
		}
	}
}

func handleMessage(data []byte, commandID string) (string, bool) {
	var msg ws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", false
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return "", false
	}
	if id, _ := payload["command_id"].(string); id != commandID {
		return "", false
	}

	switch msg.Action {
	case ws.ActionCommandOutput:
		text, _ := payload["data"].(string)
		log("[%s] %s", payload["stream"], strings.TrimRight(text, "\n"))
	case ws.ActionCommandStatus:
		status, _ := payload["status"].(string)
		log("status: %s", status)
		switch status {
		case "completed", "failed", "stopped":
			return status, true
		}
	}
	return "", false
}

func send(conn *websocket.Conn, msg *ws.Message) {
	if err := conn.WriteJSON(msg); err != nil {
		fmt.Printf("WebSocket write failed: %v\n", err)
		os.Exit(1)
	}
}

func post(path string, payload interface{}) []byte {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(mustMarshal(payload))
	}
	resp, err := http.Post("http://"+*addr+path, "application/json", body)
	if err != nil {
		fmt.Printf("POST %s failed: %v\n", path, err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		fmt.Printf("POST %s returned %d: %s\n", path, resp.StatusCode, data)
		os.Exit(1)
	}
	return data
}

func del(path string) {
	req, _ := http.NewRequest(http.MethodDelete, "http://"+*addr+path, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("DELETE %s failed: %v\n", path, err)
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		fmt.Printf("DELETE %s returned %d\n", path, resp.StatusCode)
		os.Exit(1)
	}
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("Marshal failed: %v\n", err)
		os.Exit(1)
	}
	return data
}

func log(format string, args ...interface{}) {
	if *verbose {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
	}
}
