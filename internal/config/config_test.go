package config

import "testing"

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when JWT_SECRET is missing")
	}
}

func TestLoadDatabaseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PG_EMBEDDED_DIR", "")
	t.Setenv("PG_EMBEDDED_PORT", "")
	t.Setenv("DB_LOG_QUERIES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.EmbeddedDir != "./db_data" {
		t.Errorf("EmbeddedDir = %q, want ./db_data", cfg.Database.EmbeddedDir)
	}
	if cfg.Database.EmbeddedPort != 5433 {
		t.Errorf("EmbeddedPort = %d, want 5433", cfg.Database.EmbeddedPort)
	}
	if cfg.Database.LogQueries {
		t.Error("LogQueries should default to false")
	}
}

func TestLoadDatabaseOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PG_EMBEDDED_DIR", "/tmp/pg")
	t.Setenv("PG_EMBEDDED_PORT", "6544")
	t.Setenv("DB_LOG_QUERIES", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.EmbeddedDir != "/tmp/pg" {
		t.Errorf("EmbeddedDir = %q, want /tmp/pg", cfg.Database.EmbeddedDir)
	}
	if cfg.Database.EmbeddedPort != 6544 {
		t.Errorf("EmbeddedPort = %d, want 6544", cfg.Database.EmbeddedPort)
	}
	if !cfg.Database.LogQueries {
		t.Error("LogQueries should be enabled")
	}
}

func TestLoadEmbeddedPortIgnoresGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PG_EMBEDDED_PORT", "not-a-port")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.EmbeddedPort != 5433 {
		t.Errorf("EmbeddedPort = %d, want fallback 5433", cfg.Database.EmbeddedPort)
	}
}
