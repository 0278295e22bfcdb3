package testsupport

import (
	"archive/zip"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// SourceNote is one row for the synthetic collection database.
type SourceNote struct {
	ID      int64
	ModelID int64
	Fields  []string
	Tags    string
}

// MediaFile is one media blob plus its manifest name.
type MediaFile struct {
	Name string
	Data []byte
}

// APKGSpec describes a synthetic archive.
type APKGSpec struct {
	Notes []SourceNote
	Media []MediaFile
	// PlainCollection stores the db as uncompressed collection.anki2
	// instead of the zstd collection.anki21b form.
	PlainCollection bool
	// OmitCollection builds a broken archive with no collection entry.
	OmitCollection bool
	// OmitManifest leaves out the media manifest entry.
	OmitManifest bool
}

// PadFields right-pads a field list out to the cloze model arity so the
// one-by-one flag lands on its positional index.
func PadFields(text, extra, oneByOne string) []string {
	fields := make([]string, 17)
	fields[0] = text
	fields[1] = extra
	fields[16] = oneByOne
	return fields
}

// BuildAPKG writes a synthetic .apkg under dir and returns its path.
func BuildAPKG(t testing.TB, dir string, spec APKGSpec) string {
	t.Helper()

	dbBytes := buildCollectionDB(t, dir, spec.Notes)

	path := filepath.Join(dir, "deck.apkg")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create apkg: %v", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			t.Fatalf("close apkg: %v", err)
		}
	}()

	zw := zip.NewWriter(out)

	if !spec.OmitCollection {
		if spec.PlainCollection {
			writeZipEntry(t, zw, "collection.anki2", dbBytes)
		} else {
			writeZipEntry(t, zw, "collection.anki21b", zstdCompress(t, dbBytes))
		}
	}

	if !spec.OmitManifest {
		names := make([]string, len(spec.Media))
		for i, m := range spec.Media {
			names[i] = m.Name
		}
		writeZipEntry(t, zw, "media", zstdCompress(t, EncodeManifest(names)))
	}

	for i, m := range spec.Media {
		writeZipEntry(t, zw, strconv.Itoa(i), m.Data)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("finalize apkg: %v", err)
	}
	return path
}

// EncodeManifest produces the decompressed manifest wire form: one
// length-prefixed record per filename, record position = zip entry number.
func EncodeManifest(names []string) []byte {
	var buf []byte
	for _, name := range names {
		inner := append([]byte{0x0a}, appendVarint(nil, len(name))...)
		inner = append(inner, name...)
		buf = append(buf, 0x0a)
		buf = appendVarint(buf, len(inner))
		buf = append(buf, inner...)
	}
	return buf
}

func appendVarint(dst []byte, v int) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

func buildCollectionDB(t testing.TB, dir string, rows []SourceNote) []byte {
	t.Helper()

	dbPath := filepath.Join(dir, "source-collection.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open source db: %v", err)
	}

	if _, err := db.Exec(`CREATE TABLE notes (
		id   INTEGER PRIMARY KEY,
		mid  INTEGER NOT NULL,
		flds TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		t.Fatalf("create notes table: %v", err)
	}

	for _, row := range rows {
		flds := strings.Join(row.Fields, "\x1f")
		if _, err := db.Exec(
			"INSERT INTO notes (id, mid, flds, tags) VALUES (?, ?, ?, ?)",
			row.ID, row.ModelID, flds, row.Tags,
		); err != nil {
			t.Fatalf("insert note %d: %v", row.ID, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close source db: %v", err)
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("read source db: %v", err)
	}
	return data
}

func writeZipEntry(t testing.TB, zw *zip.Writer, name string, data []byte) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create zip entry %s: %v", name, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write zip entry %s: %v", name, err)
	}
}

func zstdCompress(t testing.TB, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}
