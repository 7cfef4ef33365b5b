package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	s := cfg.Settings()
	if s.WeaveShell != "sh" || s.WeaveTimeout != time.Minute || s.Indent != "auto" {
		t.Errorf("settings = %+v", s)
	}
}

func TestCollectionConfig_Invalid(t *testing.T) {
	cases := map[string]CollectionConfig{
		"bad indent": {Root: ".", Indent: "wide"},
		"bad glob":   {Root: ".", Ignore: []string{"ok/**", "[unclosed"}},
		"no root":    {Indent: "2"},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	ok := CollectionConfig{Root: ".", Indent: "tabs", Ignore: []string{"**/*.bak"}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid collection config rejected: %v", err)
	}
}

func TestWeaveConfig_Invalid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Weave.Shell = ""
	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "weave:") {
		t.Fatalf("expected weave error, got %v", err)
	}
	cfg = NewDefaultConfig()
	cfg.Weave.Timeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative timeout should fail")
	}
}

func TestAppConfig_LogFormat(t *testing.T) {
	cfg := ApplicationConfig{}
	if err := cfg.Validate(); err != nil || cfg.LogFormat != LogFormatText {
		t.Fatalf("empty format should default to text: %v %q", err, cfg.LogFormat)
	}
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown log format should fail")
	}
}
