// Package notes decodes raw note records at the source-database boundary.
//
// Anki stores a note's fields as one blob joined by the 0x1f unit
// separator, with meaning assigned purely by position. ParseFields performs
// the positional decode exactly once, with an arity check, so nothing
// downstream ever touches raw indices.
package notes
