package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

func bufferedLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "storefront-test", Level: zerolog.DebugLevel, Output: buf})
}

// logLines decodes every JSON log line written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func findLog(t *testing.T, buf *bytes.Buffer, message string) map[string]any {
	t.Helper()
	for _, entry := range logLines(t, buf) {
		if entry["message"] == message {
			return entry
		}
	}
	t.Fatalf("no %q log line in %s", message, buf.String())
	return nil
}

func TestRecovererAnswersGenericToastForSession(t *testing.T) {
	var buf bytes.Buffer
	logg := bufferedLogger(&buf)
	sessionID := uuid.NewString()
	handler := RequestID(logg)(Recoverer(logg)(Session(newManager(t), sessionCfg, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("cart decode exploded")
	}))))

	req := httptest.NewRequest(http.MethodGet, "/storefront/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: sessionID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeInternal) || payload.Error.Message != pkgerrors.GenericMessage {
		t.Fatalf("unexpected error payload %+v", payload.Error)
	}

	entry := findLog(t, &buf, "panic.recovered")
	if entry["session_id"] != sessionID {
		t.Fatalf("expected session_id %s in panic log, got %v", sessionID, entry["session_id"])
	}
	if entry["request_id"] == nil {
		t.Fatal("expected request_id in panic log")
	}
}

func TestRecovererLeavesStartedResponse(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"data":{}}`))
		panic("late failure")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storefront/v1/cart", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected started status to stand, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("error envelope appended to started body: %s", rec.Body.String())
	}
}

func TestRecovererRepanicsAbortHandler(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if recovered := recover(); recovered != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", recovered)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
