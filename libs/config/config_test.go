package config

import "testing"

func TestStringFallback(t *testing.T) {
	t.Setenv("CFG_TEST_KEY", "")
	if got := String("CFG_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("CFG_TEST_KEY", "value")
	if got := String("CFG_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("CFG_REQUIRED", "")
	if _, err := RequiredString("CFG_REQUIRED"); err == nil {
		t.Fatal("expected error for unset key")
	}
	t.Setenv("CFG_REQUIRED", "x")
	v, err := RequiredString("CFG_REQUIRED")
	if err != nil || v != "x" {
		t.Fatalf("expected x, got %q err=%v", v, err)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("CFG_INT", "42")
	if got := Int("CFG_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("CFG_INT", "not-a-number")
	if got := Int("CFG_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("CFG_PORT", "8080")
	if v, err := Port("CFG_PORT", "80"); err != nil || v != "8080" {
		t.Fatalf("expected 8080, got %q err=%v", v, err)
	}
	t.Setenv("CFG_PORT", "70000")
	if _, err := Port("CFG_PORT", "80"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
