package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, `
http:
  port: 8080
queue:
  addrs: ["localhost:6379"]
`)
	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Queue.Driver != "redis" {
		t.Errorf("driver = %q, want redis default", cfg.Queue.Driver)
	}
	if cfg.Queue.DocumentStream != "ieql:documents" || cfg.Queue.ResponseStream != "ieql:responses" {
		t.Errorf("stream defaults = %q / %q", cfg.Queue.DocumentStream, cfg.Queue.ResponseStream)
	}
	if cfg.Scan.ExcerptWindowBytes != 64 {
		t.Errorf("excerpt window = %d, want 64", cfg.Scan.ExcerptWindowBytes)
	}
	if !cfg.Scan.AllowTextFallback {
		t.Error("text fallback should default to enabled")
	}
	if cfg.Scan.InputQueueCapacity <= 0 || cfg.Scan.OutputQueueCapacity <= 0 {
		t.Error("queue capacities should have defaults")
	}
}

func TestLoadNoTextFallback(t *testing.T) {
	writeConfig(t, `
http:
  port: 8080
queue:
  addrs: ["localhost:6379"]
scan:
  no_text_fallback: true
`)
	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scan.AllowTextFallback {
		t.Error("no_text_fallback should disable the raw fallback")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("IEQL_TEST_ADDR", "redis.internal:6379")
	writeConfig(t, `
http:
  port: 8080
queue:
  addrs: ["${IEQL_TEST_ADDR}"]
  password: "${IEQL_TEST_MISSING:-fallback}"
`)
	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Queue.Addrs[0] != "redis.internal:6379" {
		t.Errorf("addr = %q", cfg.Queue.Addrs[0])
	}
	if cfg.Queue.Password != "fallback" {
		t.Errorf("password = %q, want default expansion", cfg.Queue.Password)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad port", Config{HTTP: HTTPConfig{Port: 0}, Queue: QueueConfig{Driver: "redis", Addrs: []string{"x"}}}},
		{"bad driver", Config{HTTP: HTTPConfig{Port: 1}, Queue: QueueConfig{Driver: "etcd", Addrs: []string{"x"}}}},
		{"no addrs", Config{HTTP: HTTPConfig{Port: 1}, Queue: QueueConfig{Driver: "redis"}}},
		{"negative workers", Config{
			HTTP:  HTTPConfig{Port: 1},
			Queue: QueueConfig{Driver: "redis", Addrs: []string{"x"}},
			Scan:  ScanConfig{Workers: -1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigYAMLShape(t *testing.T) {
	data := `
http:
  port: 9000
  read_timeout_sec: 5
queue:
  driver: valkey
  addrs: ["a:1", "b:2"]
  document_stream: "docs"
  consumer_group: "grp"
scan:
  workers: 4
  excerpt_window_bytes: 32
queries:
  dir: "/etc/ieql/queries"
logging:
  level: debug
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Queue.Driver != "valkey" || len(cfg.Queue.Addrs) != 2 {
		t.Errorf("queue = %+v", cfg.Queue)
	}
	if cfg.Scan.Workers != 4 || cfg.Scan.ExcerptWindowBytes != 32 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if cfg.Queries.Dir != "/etc/ieql/queries" {
		t.Errorf("queries = %+v", cfg.Queries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}
