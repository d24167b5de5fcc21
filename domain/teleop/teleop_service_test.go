package teleop

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newServiceApp(t *testing.T) (*fiber.App, *harness) {
	t.Helper()
	h := newHarness()
	h.start(t)
	svc := NewTeleopService(NewKeypad(h.pub, DefaultSpeeds, false), h.pub, testLogger())

	app := fiber.New()
	app.Post("/api/teleop/press/:button", svc.PressHandler)
	app.Post("/api/teleop/release", svc.ReleaseHandler)
	app.Post("/api/teleop/event", svc.EventHandler)
	app.Get("/api/teleop/state", svc.StateHandler)
	return app, h
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("Invalid JSON from %s: %s", path, string(body))
	}
	return resp.StatusCode, out
}

func doJSONRequest(t *testing.T, app *fiber.App, path, payload string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("Invalid JSON from %s: %s", path, string(body))
	}
	return resp.StatusCode, out
}

func TestPressAndReleaseHandlers(t *testing.T) {
	app, h := newServiceApp(t)

	code, body := doRequest(t, app, "POST", "/api/teleop/press/left")
	if code != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, body)
	}
	if body["status"] != "armed" {
		t.Errorf("Expected armed status, got %v", body["status"])
	}
	h.sink.expect(t, Command{AngularZ: -1})

	code, _ = doRequest(t, app, "POST", "/api/teleop/release")
	if code != fiber.StatusOK {
		t.Fatalf("Expected 200 on release, got %d", code)
	}
	h.sink.expect(t, Zero)

	_, body = doRequest(t, app, "GET", "/api/teleop/state")
	state, ok := body["state"].(map[string]interface{})
	if !ok {
		t.Fatalf("Missing state in response: %v", body)
	}
	if state["armed"] != false || state["running"] != true {
		t.Errorf("Unexpected state %v", state)
	}
}

func TestPressUnknownButtonIsBadRequest(t *testing.T) {
	app, h := newServiceApp(t)

	code, body := doRequest(t, app, "POST", "/api/teleop/press/jump")
	if code != fiber.StatusBadRequest {
		t.Errorf("Expected 400, got %d", code)
	}
	if body["error"] == nil {
		t.Errorf("Expected error message")
	}
	h.sink.expectNone(t)
}

func TestReleaseTransportFailureIsBadGateway(t *testing.T) {
	app, h := newServiceApp(t)
	h.pub.SetCommand(Command{LinearX: 0.2})
	h.sink.fail.Store(true)

	code, _ := doRequest(t, app, "POST", "/api/teleop/release")
	if code != fiber.StatusBadGateway {
		t.Errorf("Expected 502, got %d", code)
	}
}

func TestHandleEventRejectsUnknownEvent(t *testing.T) {
	h := newHarness()
	svc := NewTeleopService(NewKeypad(h.pub, DefaultSpeeds, false), h.pub, testLogger())
	if err := svc.HandleEvent(KeypadEvent{Event: "hover"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Expected ErrUnknownEvent, got %v", err)
	}
}

func TestEventHandler(t *testing.T) {
	app, h := newServiceApp(t)

	code, body := doJSONRequest(t, app, "/api/teleop/event", `{"event":"press","button":"forward"}`)
	if code != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, body)
	}
	h.sink.expect(t, Command{LinearX: 0.2})

	tests := []string{
		`{"event":"hover"}`,
		`{"event":"press","button":"jump"}`,
		`{"event":`,
	}
	for _, payload := range tests {
		code, body := doJSONRequest(t, app, "/api/teleop/event", payload)
		if code != fiber.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", payload, code)
		}
		if body["error"] == nil {
			t.Errorf("%s: expected error message", payload)
		}
	}
}

func TestStateHandlerListsButtons(t *testing.T) {
	app, _ := newServiceApp(t)

	_, body := doRequest(t, app, "GET", "/api/teleop/state")
	buttons, ok := body["buttons"].([]interface{})
	if !ok || len(buttons) != len(Buttons) {
		t.Fatalf("Expected %d buttons, got %v", len(Buttons), body["buttons"])
	}
	for i, b := range Buttons {
		if buttons[i] != string(b) {
			t.Errorf("Button %d: expected %s, got %v", i, b, buttons[i])
		}
	}
}
