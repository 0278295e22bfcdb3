package extract

import "time"

// Report summarizes one extraction run. Skip and missing counts are part of
// the contract: a run that dropped records must say so.
type Report struct {
	RunID           string        `json:"run_id"`
	Archive         string        `json:"archive"`
	Collection      string        `json:"collection"`
	StorePath       string        `json:"store_path"`
	MediaDir        string        `json:"media_dir"`
	NotesRead       int           `json:"notes_read"`
	NotesWritten    int           `json:"notes_written"`
	NotesSkipped    int           `json:"notes_skipped"`
	ManifestEntries int           `json:"manifest_entries"`
	MediaReferenced int           `json:"media_referenced"`
	MediaExtracted  int           `json:"media_extracted"`
	MediaMissing    int           `json:"media_missing"`
	Elapsed         time.Duration `json:"elapsed"`
}
