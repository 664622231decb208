package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestLevelFromVerbosity(t *testing.T) {
	cases := []struct {
		v    uint8
		want Level
	}{
		{0, LevelWarn},
		{1, LevelInfo},
		{2, LevelDebug},
		{5, LevelDebug},
	}
	for _, c := range cases {
		if got := LevelFromVerbosity(c.v); got != c.want {
			t.Errorf("LevelFromVerbosity(%d) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestWithRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "run-123")
	if got := GetRequestID(ctx); got != "run-123" {
		t.Fatalf("GetRequestID() = %q, want run-123", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("GetRequestID() on bare context = %q, want empty", got)
	}
}

func TestInitLoggerJSON(t *testing.T) {
	InitLogger(LevelDebug, FormatJSON)
	defer InitLogger(LevelWarn, FormatText)

	if _, ok := GetLogger().Handler().(*slog.JSONHandler); !ok {
		t.Fatalf("expected InitLogger to install a JSON handler, got %T", GetLogger().Handler())
	}
}

func TestTransformRecoveredDoesNotPanic(t *testing.T) {
	TransformRecovered("CSSFlattener", "style.css", errNoop{})
}

type errNoop struct{}

func (errNoop) Error() string { return "noop" }
