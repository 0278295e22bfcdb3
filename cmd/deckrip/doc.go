// Command deckrip converts an Anki-style .apkg flashcard archive into a
// normalized working store: a sqlite database of cleaned notes plus a flat
// directory of the media files those notes actually reference.
package main
