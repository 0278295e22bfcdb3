package extract

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"deckrip/internal/apkg"
	"deckrip/internal/htmltext"
	"deckrip/internal/logging"
	"deckrip/internal/notes"
	"deckrip/internal/store"
)

// Options configures one extraction run.
type Options struct {
	ArchivePath string
	OutputDir   string
	// ModelID restricts extraction to one note model; zero means all.
	ModelID int64
	// KeepRaw stores the uncleaned fields alongside the cleaned ones.
	KeepRaw bool
	// Overwrite replaces a previous run's store and media directory.
	Overwrite bool
	// Strict aborts on the first malformed note instead of skipping it.
	Strict bool
	// StrictMedia aborts on a missing manifest entry instead of warning.
	StrictMedia bool
	// Progress renders progress bars on stderr.
	Progress bool
}

// StoreName is the output database filename.
const StoreName = "deck.sqlite"

// MediaDirName is the output media directory name.
const MediaDirName = "media"

const lockFileName = ".deckrip.lock"

// Run executes the full pipeline and returns its report. All resource
// handles are released on every exit path.
func Run(ctx context.Context, logger *slog.Logger, opts Options) (*Report, error) {
	log := logging.WithComponent(logger, "extract")
	started := time.Now()

	report := &Report{
		RunID:     uuid.NewString(),
		Archive:   opts.ArchivePath,
		StorePath: filepath.Join(opts.OutputDir, StoreName),
		MediaDir:  filepath.Join(opts.OutputDir, MediaDirName),
	}
	log = log.With(logging.String("run_id", report.RunID))

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, Wrap(nil, "setup", "create output directory", err)
	}

	lock := flock.New(filepath.Join(opts.OutputDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, Wrap(nil, "setup", "acquire output lock", err)
	}
	if !locked {
		return nil, Wrap(ErrOutputBusy, "setup", opts.OutputDir, nil)
	}
	defer func() { _ = lock.Unlock() }()

	if err := prepareOutputs(report.StorePath, report.MediaDir, opts.Overwrite); err != nil {
		return nil, err
	}

	archive, err := apkg.Open(opts.ArchivePath)
	if err != nil {
		return nil, Wrap(nil, "archive", "open", err)
	}
	defer archive.Close()

	collectionName, err := archive.CollectionName()
	if err != nil {
		return nil, Wrap(nil, "archive", "locate collection", err)
	}
	report.Collection = collectionName
	log.Info("archive opened",
		logging.String("collection", collectionName),
		logging.Int("entries", archive.EntryCount()))

	// The manifest is decoded before any heavy work: it is fatal when
	// undecodable, so fail before cleaning the whole corpus.
	manifest, err := archive.Manifest()
	if err != nil {
		return nil, Wrap(nil, "manifest", "decode", err)
	}
	report.ManifestEntries = len(manifest)
	log.Info("media manifest decoded", logging.Int("entries", len(manifest)))

	stagingDir, err := os.MkdirTemp("", "deckrip-collection-")
	if err != nil {
		return nil, Wrap(nil, "collection", "create staging dir", err)
	}
	defer os.RemoveAll(stagingDir)

	collectionPath, err := archive.ExtractCollection(stagingDir)
	if err != nil {
		return nil, Wrap(nil, "collection", "stage database", err)
	}

	rawRows, err := readSourceNotes(ctx, collectionPath, opts.ModelID)
	if err != nil {
		return nil, Wrap(nil, "collection", "read notes", err)
	}
	report.NotesRead = len(rawRows)
	log.Info("source notes loaded",
		logging.Int("count", len(rawRows)),
		logging.Int64("model_id", opts.ModelID))

	cleaned, refs, skipped, err := cleanNotes(log, rawRows, opts)
	if err != nil {
		return nil, err
	}
	report.NotesSkipped = skipped
	report.MediaReferenced = refs.Len()

	st, err := store.Create(report.StorePath, store.Options{
		KeepRaw:   opts.KeepRaw,
		Overwrite: opts.Overwrite,
	})
	if err != nil {
		return nil, Wrap(nil, "store", "create", err)
	}
	defer st.Close()

	written, err := st.InsertNotes(ctx, cleaned)
	if err != nil {
		return nil, Wrap(nil, "store", "write notes", err)
	}
	report.NotesWritten = written
	log.Info("notes written", logging.String("path", report.StorePath), logging.Int("rows", written))

	extracted, missing, err := materializeMedia(log, archive, manifest, refs, report.MediaDir, opts)
	if err != nil {
		return nil, err
	}
	report.MediaExtracted = extracted
	report.MediaMissing = missing

	report.Elapsed = time.Since(started)
	logSummary(log, report)
	return report, nil
}

// cleanNotes runs phase one: every note cleaned independently, references
// accumulated across the whole corpus before any media is touched.
func cleanNotes(log *slog.Logger, rows []notes.Raw, opts Options) ([]notes.Cleaned, htmltext.Refs, int, error) {
	cleaned := make([]notes.Cleaned, 0, len(rows))
	refs := htmltext.NewRefs()
	skipped := 0

	bar := newProgressBar(opts.Progress, len(rows), "cleaning notes")
	for _, row := range rows {
		stepProgressBar(bar)

		rec, err := notes.Clean(row)
		if err != nil {
			if opts.Strict {
				return nil, htmltext.Refs{}, 0, Wrap(nil, "clean", "decode fields", err)
			}
			skipped++
			log.Warn("skipping malformed note", logging.Int64("note_id", row.ID), logging.Error(err))
			continue
		}

		// Raw fields are scanned too: sound refs can sit inside markup
		// that cleaning strips around them.
		refs.Scan(rec.Text, rec.Extra, rec.RawText, rec.RawExtra)
		cleaned = append(cleaned, rec)
	}
	finishProgressBar(bar)

	if skipped > 0 {
		log.Warn("malformed notes skipped", logging.Int("count", skipped))
	}
	return cleaned, refs, skipped, nil
}

func readSourceNotes(ctx context.Context, dbPath string, modelID int64) ([]notes.Raw, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open collection db: %w", err)
	}
	defer db.Close()

	query := "SELECT id, flds, tags FROM notes"
	args := []any{}
	if modelID != 0 {
		query += " WHERE mid = ?"
		args = append(args, modelID)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var out []notes.Raw
	for rows.Next() {
		var raw notes.Raw
		if err := rows.Scan(&raw.ID, &raw.Flds, &raw.Tags); err != nil {
			return nil, fmt.Errorf("scan note row: %w", err)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}

func logSummary(log *slog.Logger, report *Report) {
	log.Info("extraction complete",
		logging.Int("notes_written", report.NotesWritten),
		logging.Int("notes_skipped", report.NotesSkipped),
		logging.Int("media_extracted", report.MediaExtracted),
		logging.Int("media_missing", report.MediaMissing),
		logging.Duration("elapsed", report.Elapsed))
	if report.NotesSkipped > 0 || report.MediaMissing > 0 {
		log.Warn("run finished with data warnings",
			logging.Int("notes_skipped", report.NotesSkipped),
			logging.Int("media_missing", report.MediaMissing))
	}
}
