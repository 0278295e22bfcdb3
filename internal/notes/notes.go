package notes

import (
	"errors"
	"fmt"
	"strings"

	"deckrip/internal/htmltext"
)

// FieldSeparator joins the positional fields inside a note's flds blob.
const FieldSeparator = "\x1f"

// Positional indices inside the flds blob for cloze-style note models.
const (
	idxText     = 0
	idxExtra    = 1
	idxOneByOne = 16
)

// minFieldCount is the arity floor: a record without at least the primary
// and secondary text fields cannot be converted. The one-by-one flag lives
// far to the right and is absent on trimmed-down models, so it is optional.
const minFieldCount = 2

// ErrMalformedRecord marks a note whose field blob does not decode.
var ErrMalformedRecord = errors.New("malformed note record")

// Raw is one source row as read from the collection database.
type Raw struct {
	ID   int64
	Flds string
	Tags string
}

// Fields is the named view of the positional blob.
type Fields struct {
	Text     string
	Extra    string
	OneByOne string
}

// Cleaned is the derived record written to the output store.
type Cleaned struct {
	ID       int64
	Text     string
	Extra    string
	RawText  string
	RawExtra string
	NumCards int
	OneByOne bool
	Tags     string
}

// ParseFields splits a flds blob into named fields, enforcing arity.
func ParseFields(flds string) (Fields, error) {
	parts := strings.Split(flds, FieldSeparator)
	if len(parts) < minFieldCount {
		return Fields{}, fmt.Errorf("%w: got %d fields, need at least %d",
			ErrMalformedRecord, len(parts), minFieldCount)
	}
	f := Fields{
		Text:  parts[idxText],
		Extra: parts[idxExtra],
	}
	if len(parts) > idxOneByOne {
		f.OneByOne = parts[idxOneByOne]
	}
	return f, nil
}

// Clean derives the output record for one source row. The card count is
// the number of distinct cloze group ids in the cleaned primary text;
// cleaning preserves cloze spans, so it matches the raw text's count.
func Clean(raw Raw) (Cleaned, error) {
	fields, err := ParseFields(raw.Flds)
	if err != nil {
		return Cleaned{}, fmt.Errorf("note %d: %w", raw.ID, err)
	}

	text := htmltext.Clean(fields.Text)
	extra := htmltext.Clean(fields.Extra)

	return Cleaned{
		ID:       raw.ID,
		Text:     text,
		Extra:    extra,
		RawText:  fields.Text,
		RawExtra: fields.Extra,
		NumCards: htmltext.CountClozeGroups(text),
		OneByOne: htmltext.Truthy(fields.OneByOne),
		Tags:     raw.Tags,
	}, nil
}
