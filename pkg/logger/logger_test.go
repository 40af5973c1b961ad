package logger

import (
	"context"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"info":    InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
		"":        InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	l := New(&Config{Level: InfoLevel, Format: "json", Output: "stdout"})
	if l.Level() != InfoLevel {
		t.Fatalf("expected info, got %v", l.Level())
	}

	l.SetLevel(DebugLevel)
	if l.Level() != DebugLevel {
		t.Errorf("expected debug after SetLevel, got %v", l.Level())
	}
}

func TestWithPreservesLevel(t *testing.T) {
	l := New(&Config{Level: WarnLevel, Format: "text", Output: "stderr"})
	derived := l.With("component", "test")

	sl, ok := derived.(*SlogLogger)
	if !ok {
		t.Fatalf("expected *SlogLogger, got %T", derived)
	}
	if sl.Level() != WarnLevel {
		t.Errorf("derived logger lost level: %v", sl.Level())
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	l := FromContext(nil)
	if l == nil {
		t.Fatal("expected global fallback, got nil")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("expected global fallback for bare context")
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	l := New(&Config{Level: DebugLevel, Format: "json", Output: "stdout"})
	ctx := l.WithContext(context.Background())

	got := FromContext(ctx)
	if got != Logger(l) {
		t.Error("expected the attached logger back from context")
	}
}
