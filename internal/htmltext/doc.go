// Package htmltext cleans note field markup and scans media references.
//
// Clean is a pure function: HTML entities decode to literal characters and
// tags are stripped, while two embedded reference syntaxes survive — image
// tags re-emitted in the canonical <img src="NAME"> form and [sound:NAME]
// brackets untouched. Cloze spans ({{c1::answer}} or {{c1::answer::hint}})
// are not markup and pass through verbatim. Downstream consumers parse both
// reference forms, so their output must stay byte-for-byte stable.
package htmltext
