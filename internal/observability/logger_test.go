package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf).
		WithField("request_id", "r1").
		WithFields(map[string]interface{}{"to": "g@x.com"}).
		WithError(errors.New("boom")).
		Error("notification failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "r1" || entry["to"] != "g@x.com" || entry["error"] != "boom" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["level"] != "error" || entry["msg"] != "notification failed" {
		t.Errorf("unexpected level/msg %v", entry)
	}
}
