package apkg

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ManifestEntryName is the zip entry holding the media manifest.
const ManifestEntryName = "media"

// collectionCandidates in preference order. The .anki21b form is
// zstd-compressed; the older forms are plain sqlite files.
var collectionCandidates = []string{
	"collection.anki21b",
	"collection.anki21",
	"collection.anki2",
}

// Archive is an open .apkg container.
type Archive struct {
	path    string
	zr      *zip.ReadCloser
	entries map[string]*zip.File
}

// Open opens the archive and indexes its entries.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrArchive, path, err)
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	return &Archive{path: path, zr: zr, entries: entries}, nil
}

// Close releases the underlying zip handle.
func (a *Archive) Close() error {
	if a == nil || a.zr == nil {
		return nil
	}
	err := a.zr.Close()
	a.zr = nil
	return err
}

// Path returns the archive location on disk.
func (a *Archive) Path() string { return a.path }

// EntryCount returns the number of entries in the container.
func (a *Archive) EntryCount() int { return len(a.entries) }

// CollectionName returns the name of the collection database entry, or an
// ErrNoCollection error when none of the known forms is present.
func (a *Archive) CollectionName() (string, error) {
	for _, name := range collectionCandidates {
		if _, ok := a.entries[name]; ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: looked for %s", ErrNoCollection,
		strings.Join(collectionCandidates, ", "))
}

// ExtractCollection stages the collection database as a plain sqlite file
// under dir, decompressing when the archive carries the zstd form. The
// caller owns the returned file.
func (a *Archive) ExtractCollection(dir string) (string, error) {
	name, err := a.CollectionName()
	if err != nil {
		return "", err
	}

	src, err := a.openEntry(name)
	if err != nil {
		return "", err
	}
	defer src.Close()

	var reader io.Reader = src
	if strings.HasSuffix(name, ".anki21b") {
		dec, err := zstd.NewReader(src)
		if err != nil {
			return "", fmt.Errorf("%w: zstd reader: %w", ErrArchive, err)
		}
		defer dec.Close()
		reader = dec
	}

	dest := filepath.Join(dir, "collection.sqlite")
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("stage collection: %w", err)
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("%w: stage collection %s: %w", ErrArchive, name, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("stage collection: %w", err)
	}
	return dest, nil
}

// Manifest reads and decodes the media manifest entry.
func (a *Archive) Manifest() (Manifest, error) {
	src, err := a.openEntry(ManifestEntryName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestDecode, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest entry: %w", ErrManifestDecode, err)
	}
	return DecodeManifest(data)
}

// OpenMedia opens the media blob stored under the given numeric key.
func (a *Archive) OpenMedia(key int) (io.ReadCloser, error) {
	return a.openEntry(fmt.Sprintf("%d", key))
}

func (a *Archive) openEntry(name string) (io.ReadCloser, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoEntry, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", name, err)
	}
	return rc, nil
}
