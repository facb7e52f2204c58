package util

import "testing"

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("INTAKE_TEST_STRING", "custom")
	if got := GetEnvDefault("INTAKE_TEST_STRING", "fallback"); got != "custom" {
		t.Errorf("expected custom, got %q", got)
	}
	if got := GetEnvDefault("INTAKE_TEST_STRING_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"OFF", true, false},
		{"", true, true},
		{"", false, false},
		{"garbage", true, true},
		{"garbage", false, false},
		{" true ", false, true},
	}
	for _, tt := range tests {
		t.Setenv("INTAKE_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("INTAKE_TEST_BOOL", tt.defaultValue); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}

func TestParseIntEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue int
		want         int
	}{
		{"42", 7, 42},
		{" 10 ", 7, 10},
		{"-3", 7, -3},
		{"", 7, 7},
		{"not-a-number", 7, 7},
	}
	for _, tt := range tests {
		t.Setenv("INTAKE_TEST_INT", tt.value)
		if got := ParseIntEnv("INTAKE_TEST_INT", tt.defaultValue); got != tt.want {
			t.Errorf("ParseIntEnv(%q, %d) = %d, want %d", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}
