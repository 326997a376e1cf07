package blog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel)

	l.With("node_id", 1).Info().Str("event", "listener_bound").Msg("broker starting")

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("unmarshal log line: %v (line: %s)", err, buf.String())
	}
	if fields["node_id"] != float64(1) {
		t.Errorf("expected node_id=1, got %v", fields["node_id"])
	}
	if fields["event"] != "listener_bound" {
		t.Errorf("expected event=listener_bound, got %v", fields["event"])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.WarnLevel)

	l.Info().Msg("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected info-level log suppressed at warn level, got %q", buf.String())
	}

	l.Error().Msg("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected error-level log to be written, got %q", buf.String())
	}
}
