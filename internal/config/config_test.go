package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	c, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.Port != ":5001" || c.FPS != 30 || c.LogFile != "urban3d.log" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.CacheTTL != 6*time.Hour || c.CacheStaleTTL != 365*24*time.Hour {
		t.Fatalf("ttl = %v / %v", c.CacheTTL, c.CacheStaleTTL)
	}
	if got := c.BBox().Key(); got != "b:-114.07150,51.04550,-114.06650,51.04930" {
		t.Fatalf("BBox().Key() = %q", got)
	}
}

func TestEnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	data := "PORT=:7000\nUSERNAME=alice\nBBOX_WEST=-73.01\nBBOX_SOUTH=40\nBBOX_EAST=-73\nBBOX_NORTH=40.01\n"
	if err := os.WriteFile(filepath.Join(dir, ".env.staging"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_ENV", "staging")
	t.Setenv("USERNAME", "bob")
	t.Setenv("CACHE_TTL", "30m")

	c, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.Port != ":7000" {
		t.Fatalf("Port = %q, want :7000 from env file", c.Port)
	}
	if c.Username != "bob" {
		t.Fatalf("Username = %q, want environment to win", c.Username)
	}
	if c.CacheTTL != 30*time.Minute {
		t.Fatalf("CacheTTL = %v, want 30m", c.CacheTTL)
	}
	if bb := c.BBox(); bb.MinX != -73.01 || bb.MaxY != 40.01 {
		t.Fatalf("BBox = %+v", bb)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	t.Setenv("BBOX_EAST", "-120")
	if _, err := LoadFrom(t.TempDir()); err == nil {
		t.Fatal("inverted bbox accepted")
	}
}

func TestAddr(t *testing.T) {
	for port, want := range map[string]string{"5001": ":5001", ":8080": ":8080", "127.0.0.1:9": "127.0.0.1:9"} {
		if got := (Config{Port: port}).Addr(); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", port, got, want)
		}
	}
}
