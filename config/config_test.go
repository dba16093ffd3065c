package config

import (
	"strings"
	"testing"
)

func TestValidateYAMLContent_AcceptsExample(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("expected example config to validate: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "./worktally.db" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Notify.Driver != NotifyLocal {
		t.Fatalf("unexpected notify driver: %q", cfg.Notify.Driver)
	}
	if cfg.Report.TopN != 10 {
		t.Fatalf("unexpected top_n: %d", cfg.Report.TopN)
	}
}

func TestRenderYAML_RoundTripsThroughValidation(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DSN = "postgres://wt:secret@db:5432/worktally?sslmode=disable"
	cfg.Notify.Driver = NotifyRedis
	cfg.Notify.Fallback = NotifyFile
	cfg.Notify.File = "/var/run/worktally signal.json"
	cfg.Notify.RedisDB = 2
	cfg.User.ID = "007"
	cfg.User.Name = "Doe, Jane: \"JD\""
	cfg.Report.TopN = 3

	got, err := ValidateYAMLContent([]byte(RenderYAML(cfg)))
	if err != nil {
		t.Fatalf("rendered config does not validate: %v\n%s", err, RenderYAML(cfg))
	}
	if *got != cfg {
		t.Fatalf("expected %+v, got %+v", cfg, *got)
	}
}

func TestYAMLString(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":               `""`,
		"sqlite":         "sqlite",
		"./worktally.db": "./worktally.db",
		"localhost:6379": "localhost:6379",
		"true":           `"true"`,
		"42":             `"42"`,
		"a b":            `"a b"`,
		"key:":           `"key:"`,
	}
	for input, want := range tests {
		if got := yamlString(input); got != want {
			t.Fatalf("%q: expected %s, got %s", input, want, got)
		}
	}
}

func TestValidateYAMLContent_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte("user:\n  id: \" alice \"\n"))
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.User.ID != "alice" {
		t.Fatalf("expected trimmed user id, got %q", cfg.User.ID)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Notify.RedisChannel != "worktally.changes" {
		t.Fatalf("unexpected redis channel default: %q", cfg.Notify.RedisChannel)
	}
}

func TestValidateYAMLContent_AcceptsDriverCaseInsensitive(t *testing.T) {
	t.Parallel()

	content := []byte(`store:
  driver: "Memory"
notify:
  driver: "LOCAL"
`)

	cfg, err := ValidateYAMLContent(content)
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("unexpected driver: %q", cfg.Store.Driver)
	}
}

func TestValidateYAMLContent_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "unknown store driver",
			content: "store:\n  driver: mysql\n",
			field:   "Driver",
		},
		{
			name:    "postgres without dsn",
			content: "store:\n  driver: postgres\n",
			field:   "DSN",
		},
		{
			name:    "file notifier without path",
			content: "notify:\n  driver: file\n",
			field:   "File",
		},
		{
			name:    "fallback equal to driver",
			content: "notify:\n  driver: local\n  fallback: local\n",
			field:   "Fallback",
		},
		{
			name:    "unknown fallback",
			content: "notify:\n  driver: redis\n  fallback: redis\n",
			field:   "Fallback",
		},
		{
			name:    "file fallback without path",
			content: "notify:\n  driver: redis\n  fallback: file\n",
			field:   "notify.file",
		},
		{
			name:    "unknown log level",
			content: "log:\n  level: verbose\n",
			field:   "Level",
		},
		{
			name:    "negative top n",
			content: "report:\n  top_n: -1\n",
			field:   "TopN",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ValidateYAMLContent([]byte(tc.content))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("expected error mentioning %s, got %v", tc.field, err)
			}
		})
	}
}

func TestValidateYAMLContent_AcceptsFileFallback(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte("notify:\n  driver: Redis\n  fallback: FILE\n  file: /tmp/worktally.signal\n"))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Notify.Driver != NotifyRedis || cfg.Notify.Fallback != NotifyFile {
		t.Fatalf("unexpected notify config: %+v", cfg.Notify)
	}
}

func TestValidateYAMLContent_RejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := ValidateYAMLContent([]byte("store: [unterminated"))
	if err == nil {
		t.Fatalf("expected read error")
	}
	if !strings.Contains(err.Error(), "read config content") {
		t.Fatalf("unexpected error: %v", err)
	}
}
