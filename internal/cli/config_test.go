package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/pipeline"
	"github.com/ppiankov/geoscore/internal/score"
)

func newTestViper(t *testing.T, configPath string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("GEOSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			t.Fatalf("ReadInConfig: %v", err)
		}
	}
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t, ""))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if diff := cmp.Diff(model.DefaultConfig(), cfg); diff != "" {
		t.Errorf("defaults changed (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `scoring:
  buckets: 8
  normalize: false
http:
  timeout: 5s
llm:
  provider: ollama
  model: llama3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GEOSCORE_LLM_MODEL", "mistral")
	t.Setenv("GEOSCORE_SERVER_PORT", "9090")

	cfg, err := loadConfig(newTestViper(t, path))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Scoring.Buckets != 8 || cfg.Scoring.Normalize {
		t.Errorf("scoring from file not applied: %+v", cfg.Scoring)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("http.timeout: got %v", cfg.HTTP.Timeout)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("llm.provider: got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "mistral" {
		t.Errorf("env should override file, got model %q", cfg.LLM.Model)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port: got %d", cfg.Server.Port)
	}
	// Untouched keys keep their defaults
	if cfg.Scoring.MaxInputChars != 50000 {
		t.Errorf("max_input_chars: got %d", cfg.Scoring.MaxInputChars)
	}
}

func TestLoadConfig_InvalidBuckets(t *testing.T) {
	for _, n := range []string{"0", "1001"} {
		t.Setenv("GEOSCORE_SCORING_BUCKETS", n)
		if _, err := loadConfig(newTestViper(t, "")); !errors.Is(err, score.ErrInvalidBuckets) {
			t.Errorf("buckets=%s: expected ErrInvalidBuckets, got %v", n, err)
		}
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# geoscore configuration file") {
		t.Error("Expected commented header")
	}

	got := &model.Config{}
	if err := yaml.Unmarshal(data, got); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if diff := cmp.Diff(model.DefaultConfig(), got); diff != "" {
		t.Errorf("written config differs from defaults (-want +got):\n%s", diff)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when the config already exists")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"answer.txt", "answer"},
		{"/tmp/reports/answer one.md", "answer-one"},
		{"Laksa", "Laksa"},
		{`what?:"x"`, "what___x_"},
		{"", "report"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderScores_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	scores := map[string]float64{"Authoritativeness": 41.5, "Uniqueness": 70}

	var buf bytes.Buffer
	if err := renderScores(&buf, pipeline.NewRenderer(false), score.ModeDocument, scores, path); err != nil {
		t.Fatalf("renderScores: %v", err)
	}
	if !strings.Contains(buf.String(), "Authoritativeness") {
		t.Errorf("Expected table output, got %q", buf.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Mode   string             `json:"mode"`
		Scores map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Mode != "document" || got.Scores["Uniqueness"] != 70 {
		t.Errorf("Unexpected JSON %+v", got)
	}
}
