package apkg

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/unicode/norm"
)

// Manifest maps a numeric zip entry key to the real media filename. It is
// the source of truth for renaming during materialization.
type Manifest map[int]string

// Invert returns a filename-to-key index. Filenames are NFC-normalized on
// both sides of the lookup; decks authored on macOS routinely carry NFD
// names that the note text references in NFC.
func (m Manifest) Invert() map[string]int {
	index := make(map[string]int, len(m))
	for key, name := range m {
		index[norm.NFC.String(name)] = key
	}
	return index
}

// DecodeManifest decompresses and decodes the media manifest blob.
//
// The decompressed payload is a sequence of length-prefixed records: each
// starts with tag 0x0a and a varint byte length, and its first inner field
// (again tag 0x0a, varint length) is the UTF-8 filename. A record's
// position in the sequence is its zip entry number.
func DecodeManifest(data []byte) (Manifest, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd reader: %w", ErrManifestDecode, err)
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrManifestDecode, err)
	}

	manifest := make(Manifest)
	pos := 0
	entry := 0
	for pos < len(payload) {
		if payload[pos] != 0x0a {
			return nil, fmt.Errorf("%w: unexpected tag 0x%02x at offset %d",
				ErrManifestDecode, payload[pos], pos)
		}
		pos++

		recordLen, next, err := readVarint(payload, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		recordEnd := pos + recordLen
		if recordEnd > len(payload) {
			return nil, fmt.Errorf("%w: record at offset %d overruns payload",
				ErrManifestDecode, pos)
		}

		if pos < recordEnd && payload[pos] == 0x0a {
			pos++
			nameLen, next, err := readVarint(payload, pos)
			if err != nil {
				return nil, err
			}
			pos = next
			if pos+nameLen > recordEnd {
				return nil, fmt.Errorf("%w: filename in record %d overruns record",
					ErrManifestDecode, entry)
			}
			manifest[entry] = string(payload[pos : pos+nameLen])
		}

		pos = recordEnd
		entry++
	}
	return manifest, nil
}

func readVarint(data []byte, pos int) (int, int, error) {
	value := 0
	shift := 0
	for {
		if pos >= len(data) {
			return 0, 0, fmt.Errorf("%w: truncated varint", ErrManifestDecode)
		}
		b := data[pos]
		pos++
		value |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, pos, nil
		}
		shift += 7
		if shift > 35 {
			return 0, 0, fmt.Errorf("%w: varint too wide", ErrManifestDecode)
		}
	}
}
