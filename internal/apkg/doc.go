// Package apkg reads Anki .apkg archives.
//
// An .apkg is a zip container holding a sqlite collection database
// (zstd-compressed in the newer scheme), one "media" entry mapping numeric
// zip entry names to real filenames, and the media blobs themselves under
// those numeric names. The package locates and stages the collection
// database, decodes the media manifest, and hands out entry readers; it
// never interprets note content.
package apkg
