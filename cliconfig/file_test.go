package cliconfig

import "testing"

func TestParseLine(t *testing.T) {
	for _, tc := range []struct {
		line, key, value string
	}{
		{"endpoint=http://localhost:5000/api/v1/", "endpoint", "http://localhost:5000/api/v1/"},
		{"DEBUG = True", "DEBUG", "True"},
		{"SECRET_KEY = 'development key'", "SECRET_KEY", "development key"},
		{`greeting = "say \"hi\"" # comment`, "greeting", `say "hi"`},
		{"url = 'http://x/#anchor'", "url", "http://x/#anchor"},
		{"export TOKEN=abc", "TOKEN", "abc"},
		{"log-level: debug", "log-level", "debug"},
	} {
		key, value, err := parseLine(tc.line)
		if err != nil {
			t.Errorf("parseLine(%q) error = %v", tc.line, err)
			continue
		}
		if key != tc.key || value != tc.value {
			t.Errorf("parseLine(%q) = (%q, %q), want (%q, %q)", tc.line, key, value, tc.key, tc.value)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{"", "just words", "= value"} {
		if _, _, err := parseLine(line); err == nil {
			t.Errorf("parseLine(%q) error = nil, want an error", line)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if got, want := normalizeKey("RETRY_ATTEMPTS"), "retry-attempts"; got != want {
		t.Errorf("normalizeKey(RETRY_ATTEMPTS) = %q, want %q", got, want)
	}
}
