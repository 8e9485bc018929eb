package config

import (
	"os"
	"testing"
)

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnvVars()

	// Password has no default
	os.Setenv("DB_PASSWORD", "testpass")
	defer os.Unsetenv("DB_PASSWORD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected host localhost, got %s", cfg.Database.Host)
	}
	if cfg.Database.Name != "gamblers_report" {
		t.Errorf("Expected db name gamblers_report, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMin != 2 {
		t.Errorf("Expected pool min 2, got %d", cfg.Database.PoolMin)
	}
	if cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool max 10, got %d", cfg.Database.PoolMax)
	}
	if len(cfg.CORS.Origins) != 1 {
		t.Errorf("Expected 1 CORS origin, got %d", len(cfg.CORS.Origins))
	}
	if cfg.Report.BoundariesPath != "data/vic_lga_boundaries.geojson" {
		t.Errorf("Unexpected boundaries path: %s", cfg.Report.BoundariesPath)
	}
	if cfg.Report.MaxUploadMB != 32 {
		t.Errorf("Expected max upload 32 MB, got %d", cfg.Report.MaxUploadMB)
	}
	if cfg.Report.UploadRPS != 1.0 {
		t.Errorf("Expected upload RPS 1.0, got %f", cfg.Report.UploadRPS)
	}
	if cfg.Report.UploadBurst != 3 {
		t.Errorf("Expected upload burst 3, got %d", cfg.Report.UploadBurst)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearConfigEnvVars()

	os.Setenv("PORT", "9090")
	os.Setenv("ENV", "production")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("BOUNDARIES_PATH", "/srv/boundaries.geojson")
	os.Setenv("MAX_UPLOAD_MB", "8")
	os.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	defer clearConfigEnvVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "production" {
		t.Errorf("Expected env production, got %s", cfg.Server.Env)
	}
	if cfg.Report.BoundariesPath != "/srv/boundaries.geojson" {
		t.Errorf("Unexpected boundaries path: %s", cfg.Report.BoundariesPath)
	}
	if cfg.Report.MaxUploadMB != 8 {
		t.Errorf("Expected max upload 8 MB, got %d", cfg.Report.MaxUploadMB)
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	clearConfigEnvVars()

	if _, err := Load(); err == nil {
		t.Error("Expected Load() to fail without DB_PASSWORD")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", Env: "test"},
			Database: DatabaseConfig{
				Host: "localhost", Port: "5432", Name: "db",
				User: "u", Password: "p", PoolMin: 1, PoolMax: 5,
			},
			CORS: CORSConfig{Origins: []string{"http://localhost:3000"}},
			Report: ReportConfig{
				BoundariesPath: "b.geojson",
				MaxUploadMB:    16,
				UploadRPS:      1,
				UploadBurst:    2,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"pool min above max", func(c *Config) { c.Database.PoolMin = 10; c.Database.PoolMax = 2 }},
		{"no cors origins", func(c *Config) { c.CORS.Origins = nil }},
		{"missing boundaries path", func(c *Config) { c.Report.BoundariesPath = "" }},
		{"zero upload cap", func(c *Config) { c.Report.MaxUploadMB = 0 }},
		{"non-positive rps", func(c *Config) { c.Report.UploadRPS = 0 }},
		{"zero burst", func(c *Config) { c.Report.UploadBurst = 0 }},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Expected base config to validate, got: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"http://a", 1},
		{"http://a, http://b", 2},
		{"http://a,,http://b,", 2},
	}

	for _, tt := range tests {
		if got := parseOrigins(tt.in); len(got) != tt.want {
			t.Errorf("parseOrigins(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}

func clearConfigEnvVars() {
	vars := []string{
		"PORT", "ENV",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_POOL_MIN", "DB_POOL_MAX",
		"CORS_ORIGINS",
		"BOUNDARIES_PATH", "MAX_UPLOAD_MB", "UPLOAD_RPS", "UPLOAD_BURST", "MAP_TILES",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
