package cli

import (
	"path/filepath"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg.SetContext(&Context{
		Name:    "prod",
		APIKey:  "k1",
		BaseURL: "https://api.example.com",
		Model:   "fast-7b",
	})
	cfg.SetContext(&Context{
		Name:      "local",
		BaseURL:   "http://localhost:8000",
		StreamURL: "ws://localhost:8000",
	})
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentContext != "prod" {
		t.Errorf("current = %q, want first added", got.CurrentContext)
	}
	cur, err := got.Current()
	if err != nil {
		t.Fatal(err)
	}
	if cur.APIKey != "k1" || cur.Model != "fast-7b" {
		t.Errorf("context = %+v", cur)
	}
}

func TestUseAndDeleteContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.SetContext(&Context{Name: "a"})
	cfg.SetContext(&Context{Name: "b"})

	if err := cfg.UseContext("b"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "b" {
		t.Errorf("current = %q", cfg.CurrentContext)
	}
	if err := cfg.UseContext("missing"); err == nil {
		t.Error("expected error for unknown context")
	}

	if err := cfg.DeleteContext("b"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("current = %q after deleting active context", cfg.CurrentContext)
	}
	if _, err := cfg.Current(); err == nil {
		t.Error("expected error with no current context")
	}
}

func TestStreamBaseFallsBack(t *testing.T) {
	ctx := &Context{BaseURL: "https://api.example.com"}
	if got := ctx.StreamBase(); got != "https://api.example.com" {
		t.Errorf("StreamBase = %q", got)
	}
	ctx.StreamURL = "wss://stream.example.com"
	if got := ctx.StreamBase(); got != "wss://stream.example.com" {
		t.Errorf("StreamBase = %q", got)
	}
}
