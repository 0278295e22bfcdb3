package apkg

import "errors"

var (
	// ErrArchive marks an unreadable or corrupt container. Fatal: nothing
	// can be extracted from an archive that does not open.
	ErrArchive = errors.New("archive unreadable")
	// ErrNoCollection marks an archive with no recognizable collection
	// database entry.
	ErrNoCollection = errors.New("no collection database in archive")
	// ErrManifestDecode marks a media manifest that fails decompression or
	// structural decoding. Fatal: media cannot be resolved without it.
	ErrManifestDecode = errors.New("media manifest undecodable")
	// ErrNoEntry marks a requested zip entry that is absent.
	ErrNoEntry = errors.New("archive entry not found")
)
