package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"deckrip/internal/config"
	"deckrip/internal/extract"
	"deckrip/internal/testsupport"
)

func writeTestConfig(t *testing.T, base string) (string, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "warn"

	doc, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, cfg
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootListsSubcommands(t *testing.T) {
	output, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"extract", "inspect", "stats", "config"} {
		if !strings.Contains(output, name) {
			t.Fatalf("help output missing %q:\n%s", name, output)
		}
	}
}

func TestExtractCommandEndToEnd(t *testing.T) {
	base := t.TempDir()
	t.Setenv("DECKRIP_OUTPUT_DIR", "")
	configPath, cfg := writeTestConfig(t, base)

	archive := testsupport.BuildAPKG(t, base, testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 3, Fields: testsupport.PadFields(
				`{{c1::answer}} <img src="pic.png">`, "", "y")},
		},
		Media: []testsupport.MediaFile{
			{Name: "pic.png", Data: []byte("png")},
			{Name: "spare.png", Data: []byte("png2")},
		},
	})

	output, err := runCommand(t, "--config", configPath, "extract", archive, "--no-progress")
	if err != nil {
		t.Fatalf("extract: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Notes written") {
		t.Fatalf("missing report table:\n%s", output)
	}

	storePath := filepath.Join(cfg.Paths.OutputDir, extract.StoreName)
	if _, err := os.Stat(storePath); err != nil {
		t.Fatalf("store not written: %v", err)
	}
	mediaDir := filepath.Join(cfg.Paths.OutputDir, extract.MediaDirName)
	if _, err := os.Stat(filepath.Join(mediaDir, "pic.png")); err != nil {
		t.Fatalf("media not materialized: %v", err)
	}
	if _, err := os.Stat(filepath.Join(mediaDir, "spare.png")); err == nil {
		t.Fatal("unreferenced media should not be materialized")
	}

	// Stats against the fresh store.
	statsOut, err := runCommand(t, "--config", configPath, "stats", "--db", storePath)
	if err != nil {
		t.Fatalf("stats: %v\n%s", err, statsOut)
	}
	if !strings.Contains(statsOut, "Notes") {
		t.Fatalf("missing stats table:\n%s", statsOut)
	}
}

func TestExtractCommandRejectsMissingArchive(t *testing.T) {
	base := t.TempDir()
	configPath, _ := writeTestConfig(t, base)

	_, err := runCommand(t, "--config", configPath, "extract",
		filepath.Join(base, "absent.apkg"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing-archive error, got %v", err)
	}
}

func TestInspectCommandJSON(t *testing.T) {
	base := t.TempDir()
	archive := testsupport.BuildAPKG(t, base, testsupport.APKGSpec{
		Media: []testsupport.MediaFile{{Name: "x.png", Data: []byte("x")}},
	})

	output, err := runCommand(t, "inspect", archive, "--json")
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, output)
	}
	if !strings.Contains(output, `"manifest_entries": 1`) {
		t.Fatalf("unexpected inspect output:\n%s", output)
	}
	if !strings.Contains(output, `"collection": "collection.anki21b"`) {
		t.Fatalf("unexpected inspect output:\n%s", output)
	}
}
