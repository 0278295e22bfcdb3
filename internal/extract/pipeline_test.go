package extract_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"deckrip/internal/config"
	"deckrip/internal/extract"
	"deckrip/internal/store"
	"deckrip/internal/testsupport"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func extractOptions(cfg *config.Config, archivePath string) extract.Options {
	return extract.Options{
		ArchivePath: archivePath,
		OutputDir:   cfg.Paths.OutputDir,
		ModelID:     cfg.Extract.ModelID,
		KeepRaw:     cfg.Extract.KeepRaw,
		Overwrite:   cfg.Extract.Overwrite,
		Strict:      cfg.Extract.Strict,
		StrictMedia: cfg.Extract.StrictMedia,
	}
}

func runPipeline(t *testing.T, spec testsupport.APKGSpec, opts ...testsupport.ConfigOption) (*extract.Report, string, error) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	archivePath := testsupport.BuildAPKG(t, t.TempDir(), spec)

	report, err := extract.Run(context.Background(), discardLogger(), extractOptions(cfg, archivePath))
	return report, cfg.Paths.OutputDir, err
}

func listMedia(t *testing.T, outputDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(outputDir, extract.MediaDirName))
	if err != nil {
		t.Fatalf("read media dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunHappyPath(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{
				ID:      1,
				ModelID: 10,
				Fields: testsupport.PadFields(
					`<p>{{c1::AS}} murmur <img src="a.jpg"> and [sound:b.mp3]</p>`,
					"extra text",
					"y<br>",
				),
				Tags: "cardio",
			},
			{
				ID:      2,
				ModelID: 10,
				Fields:  testsupport.PadFields("{{c1::x}} and {{c2::y}}", "", ""),
			},
		},
		Media: []testsupport.MediaFile{
			{Name: "a.jpg", Data: []byte("jpg")},
			{Name: "b.mp3", Data: []byte("mp3")},
			{Name: "unused.png", Data: []byte("png")},
		},
	}

	report, outputDir, err := runPipeline(t, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.NotesRead != 2 || report.NotesWritten != 2 || report.NotesSkipped != 0 {
		t.Fatalf("unexpected note counts: %+v", report)
	}
	if report.MediaReferenced != 2 || report.MediaExtracted != 2 || report.MediaMissing != 0 {
		t.Fatalf("unexpected media counts: %+v", report)
	}
	if report.ManifestEntries != 3 {
		t.Fatalf("manifest entries: %d", report.ManifestEntries)
	}

	media := listMedia(t, outputDir)
	if len(media) != 2 {
		t.Fatalf("expected exactly 2 media files, got %v", media)
	}

	st, err := store.Open(filepath.Join(outputDir, extract.StoreName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Notes != 2 {
		t.Fatalf("stored notes: %d", stats.Notes)
	}
	if stats.Cards != 3 {
		t.Fatalf("stored cards: got %d want 3", stats.Cards)
	}
	if stats.OneByOne != 1 {
		t.Fatalf("one-by-one count: %d", stats.OneByOne)
	}
}

func TestRunReferenceSetMinimality(t *testing.T) {
	media := make([]testsupport.MediaFile, 10)
	for i := range media {
		media[i] = testsupport.MediaFile{
			Name: fmt.Sprintf("file%d.png", i),
			Data: []byte{byte(i)},
		}
	}
	media[0].Name = "a.jpg"
	media[5].Name = "b.mp3"

	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: testsupport.PadFields(
				`<img src="a.jpg">`, "[sound:b.mp3]", "")},
		},
		Media: media,
	}

	report, outputDir, err := runPipeline(t, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.MediaExtracted != 2 {
		t.Fatalf("extracted: got %d want 2", report.MediaExtracted)
	}

	names := listMedia(t, outputDir)
	if len(names) != 2 {
		t.Fatalf("expected 2 files, got %v", names)
	}
	got := map[string]bool{}
	for _, n := range names {
		got[n] = true
	}
	if !got["a.jpg"] || !got["b.mp3"] {
		t.Fatalf("wrong files materialized: %v", names)
	}
}

func TestRunSkipsMalformedRecords(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: testsupport.PadFields("good one", "", "")},
			{ID: 2, ModelID: 1, Fields: []string{"only one field"}},
			{ID: 3, ModelID: 1, Fields: testsupport.PadFields("another good one", "", "")},
		},
	}

	report, _, err := runPipeline(t, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.NotesRead != 3 {
		t.Fatalf("read: %d", report.NotesRead)
	}
	if report.NotesSkipped != 1 {
		t.Fatalf("skipped: %d", report.NotesSkipped)
	}
	if report.NotesWritten != report.NotesRead-report.NotesSkipped {
		t.Fatalf("written %d != read %d - skipped %d",
			report.NotesWritten, report.NotesRead, report.NotesSkipped)
	}
}

func TestRunStrictAbortsOnMalformed(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: []string{"broken"}},
		},
	}
	_, _, err := runPipeline(t, spec, testsupport.WithStrict())
	if err == nil {
		t.Fatal("expected strict mode to abort")
	}
}

func TestRunMissingMediaWarnsByDefault(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: testsupport.PadFields(
				`<img src="ghost.png">`, "", "")},
		},
	}

	report, _, err := runPipeline(t, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.MediaMissing != 1 {
		t.Fatalf("missing: got %d want 1", report.MediaMissing)
	}
	if report.MediaExtracted != 0 {
		t.Fatalf("extracted: %d", report.MediaExtracted)
	}
}

func TestRunMissingMediaStrictAborts(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: testsupport.PadFields(
				`<img src="ghost.png">`, "", "")},
		},
	}
	_, _, err := runPipeline(t, spec, testsupport.WithStrictMedia())
	if !errors.Is(err, extract.ErrMissingMedia) {
		t.Fatalf("expected ErrMissingMedia, got %v", err)
	}
}

func TestRunModelFilter(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 10, Fields: testsupport.PadFields("keep me", "", "")},
			{ID: 2, ModelID: 99, Fields: testsupport.PadFields("drop me", "", "")},
		},
	}
	report, _, err := runPipeline(t, spec, testsupport.WithModelID(10))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.NotesRead != 1 || report.NotesWritten != 1 {
		t.Fatalf("model filter not applied: %+v", report)
	}
}

func TestRunRerunPolicy(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: testsupport.PadFields("note", "", "")},
		},
	}
	cfg := testsupport.NewConfig(t)
	archivePath := testsupport.BuildAPKG(t, t.TempDir(), spec)

	opts := extractOptions(cfg, archivePath)
	if _, err := extract.Run(context.Background(), discardLogger(), opts); err != nil {
		t.Fatalf("first run: %v", err)
	}

	if _, err := extract.Run(context.Background(), discardLogger(), opts); !errors.Is(err, store.ErrOutputExists) {
		t.Fatalf("expected ErrOutputExists on rerun, got %v", err)
	}

	testsupport.WithOverwrite()(cfg)
	report, err := extract.Run(context.Background(), discardLogger(), extractOptions(cfg, archivePath))
	if err != nil {
		t.Fatalf("overwrite rerun: %v", err)
	}
	if report.NotesWritten != 1 {
		t.Fatalf("overwrite rerun wrote %d rows", report.NotesWritten)
	}
}

func TestRunStaleMediaDirFailsBeforeWriting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mediaDir := filepath.Join(cfg.Paths.OutputDir, extract.MediaDirName)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("create stale media dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(mediaDir, "leftover.png"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed stale media: %v", err)
	}

	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: testsupport.PadFields("note", "", "")},
		},
	}
	archivePath := testsupport.BuildAPKG(t, t.TempDir(), spec)

	_, err := extract.Run(context.Background(), discardLogger(), extractOptions(cfg, archivePath))
	if !errors.Is(err, store.ErrOutputExists) {
		t.Fatalf("expected ErrOutputExists, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, extract.StoreName)); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("store must not be written when an output check fails")
	}
}

func TestRunKeepRaw(t *testing.T) {
	spec := testsupport.APKGSpec{
		Notes: []testsupport.SourceNote{
			{ID: 1, ModelID: 1, Fields: testsupport.PadFields("<b>bold</b>", "", "")},
		},
	}
	_, outputDir, err := runPipeline(t, spec, testsupport.WithKeepRaw())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	st, err := store.Open(filepath.Join(outputDir, extract.StoreName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !stats.RawColumns {
		t.Fatal("expected raw columns populated")
	}
}
