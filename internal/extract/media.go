package extract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"deckrip/internal/apkg"
	"deckrip/internal/htmltext"
	"deckrip/internal/logging"
	"deckrip/internal/store"
)

// materializeMedia copies every referenced manifest entry into mediaDir
// under its real filename. The directory has already passed the output
// policy check in prepareOutputs. Manifest entries nobody references are
// skipped; references with no manifest entry are counted as missing and
// warned (or abort the run under StrictMedia).
func materializeMedia(log *slog.Logger, archive *apkg.Archive, manifest apkg.Manifest, refs htmltext.Refs, mediaDir string, opts Options) (int, int, error) {
	index := manifest.Invert()
	names := refs.Filenames()

	extracted := 0
	missing := 0
	bar := newProgressBar(opts.Progress, len(names), "extracting media")
	for _, name := range names {
		stepProgressBar(bar)

		key, ok := index[norm.NFC.String(name)]
		if !ok {
			if opts.StrictMedia {
				return extracted, missing, Wrap(ErrMissingMedia, "media", name, nil)
			}
			missing++
			log.Warn("referenced media has no manifest entry", logging.String("file", name))
			continue
		}

		if err := copyMediaEntry(archive, key, filepath.Join(mediaDir, name)); err != nil {
			return extracted, missing, Wrap(nil, "media", "extract "+name, err)
		}
		extracted++
	}
	finishProgressBar(bar)

	log.Info("media materialized",
		logging.Int("extracted", extracted),
		logging.Int("missing", missing),
		logging.Int("manifest_entries", len(manifest)))
	if missing > 0 {
		log.Warn("referenced media missing from manifest", logging.Int("count", missing))
	}
	return extracted, missing, nil
}

// prepareOutputs applies the replace-or-fail policy to both output targets
// before any data is written, so a refused run leaves previous output
// untouched. Nothing is removed until every check has passed.
func prepareOutputs(storePath, mediaDir string, overwrite bool) error {
	if _, err := os.Stat(storePath); err == nil {
		if !overwrite {
			return Wrap(nil, "setup", "check output store",
				fmt.Errorf("%w: %s (enable extract.overwrite to replace)", store.ErrOutputExists, storePath))
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Wrap(nil, "setup", "check output store", err)
	}
	if err := prepareMediaDir(mediaDir, overwrite); err != nil {
		return Wrap(nil, "setup", "prepare media directory", err)
	}
	return nil
}

func prepareMediaDir(dir string, overwrite bool) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Fresh run.
	case err != nil:
		return fmt.Errorf("inspect media directory: %w", err)
	case len(entries) > 0 && !overwrite:
		return fmt.Errorf("%w: media directory %s is not empty", store.ErrOutputExists, dir)
	default:
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clear media directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	return nil
}

func copyMediaEntry(archive *apkg.Archive, key int, dest string) error {
	src, err := archive.OpenMedia(key)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	return out.Close()
}
