package config

import "testing"

func setRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.StoreDriver != StoreDriverMongo {
		t.Fatalf("expected mongo store by default, got %q", cfg.StoreDriver)
	}
	if cfg.MongoURI != "mongodb://localhost:27017/" || cfg.MongoDatabase != "chrysalis" {
		t.Fatalf("unexpected mongo defaults: %q %q", cfg.MongoURI, cfg.MongoDatabase)
	}
	if cfg.AgentAppName != "lume_mental_health" {
		t.Fatalf("unexpected app name %q", cfg.AgentAppName)
	}
	if cfg.SessionTTLMinutes != 1440 || cfg.AgentMaxTransfers != 3 {
		t.Fatalf("unexpected numeric defaults: ttl=%d transfers=%d", cfg.SessionTTLMinutes, cfg.AgentMaxTransfers)
	}
}

func TestLoadConfig_MissingSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("GEMINI_API_KEY", "key")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without SESSION_SECRET")
	}
}

func TestLoadConfig_PostgresRequiresDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", " Postgres ")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/lume")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("expected normalized driver, got %q", cfg.StoreDriver)
	}
}

func TestLoadConfig_OpenAIProviderRequiresKey(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without LLM_API_KEY")
	}
}

func TestLoadConfig_UnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadConfig_AgentMaxTransfers(t *testing.T) {
	setRequired(t)

	t.Setenv("AGENT_MAX_TRANSFERS", "0")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.AgentMaxTransfers != 0 {
		t.Fatalf("0 must be kept to disable delegation, got %d", cfg.AgentMaxTransfers)
	}

	t.Setenv("AGENT_MAX_TRANSFERS", "-2")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.AgentMaxTransfers != 0 {
		t.Fatalf("negative values clamp to 0, got %d", cfg.AgentMaxTransfers)
	}
}
