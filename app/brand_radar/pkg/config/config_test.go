package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
llm:
  base_url: "https://api.example.com/v1"
  api_key: "file-key"
  model: "gpt-4o-mini"
reddit:
  client_id: "file-id"
  subreddits:
    - technology
search:
  provider: "tavily"
  tavily:
    api_key: "file-tavily"
log:
  level: "debug"
concurrency:
  qps: 2
  rpm: 60
`

func writeTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if len(cfg.Reddit.Subreddits) != 1 || cfg.Reddit.Subreddits[0] != "technology" {
		t.Errorf("Reddit.Subreddits = %v", cfg.Reddit.Subreddits)
	}
	if cfg.Concurrency.RPM != 60 {
		t.Errorf("Concurrency.RPM = %d", cfg.Concurrency.RPM)
	}
}

func TestLoadConfig_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("TAVILY_API_KEY", "env-tavily")
	t.Setenv("REDDIT_CLIENT_SECRET", "env-secret")

	cfg, err := LoadConfig(writeTempConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("LLM.APIKey = %q, env must win over the file", cfg.LLM.APIKey)
	}
	if cfg.Search.Tavily.APIKey != "env-tavily" {
		t.Errorf("Tavily.APIKey = %q", cfg.Search.Tavily.APIKey)
	}
	if cfg.Reddit.ClientSecret != "env-secret" {
		t.Errorf("Reddit.ClientSecret = %q", cfg.Reddit.ClientSecret)
	}
	// 未设置环境变量的字段保持文件值
	if cfg.Reddit.ClientID != "file-id" {
		t.Errorf("Reddit.ClientID = %q, want file value", cfg.Reddit.ClientID)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() must fail on a missing file")
	}
}
