package htmltext

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	imgTagRE       = regexp.MustCompile(`(?i)<img\s[^>]*?src\s*=\s*["']([^"']+)["'][^>]*?>`)
	soundRefRE     = regexp.MustCompile(`\[sound:([^\]]+)\]`)
	htmlTagRE      = regexp.MustCompile(`<[^>]+>`)
	multiNewlineRE = regexp.MustCompile(`\n{3,}`)
	clozeGroupRE   = regexp.MustCompile(`\{\{c(\d+)::`)
)

// Clean strips markup from a raw note field. Image tags are replaced by
// placeholders before the generic tag strip so they cannot be eaten, then
// restored in canonical form. Entities decode before the strip, so markup
// that was entity-escaped in the source is stripped like any other tag.
func Clean(raw string) string {
	var images []string
	text := imgTagRE.ReplaceAllStringFunc(raw, func(match string) string {
		src := imgTagRE.FindStringSubmatch(match)[1]
		images = append(images, `<img src="`+src+`">`)
		return "\x00IMG" + strconv.Itoa(len(images)-1) + "\x00"
	})

	text = html.UnescapeString(text)
	text = htmlTagRE.ReplaceAllString(text, "")

	for i, img := range images {
		text = strings.Replace(text, "\x00IMG"+strconv.Itoa(i)+"\x00", img, 1)
	}

	text = strings.TrimSpace(text)
	text = multiNewlineRE.ReplaceAllString(text, "\n\n")
	return text
}

// CountClozeGroups returns the number of distinct cloze group ids in text.
// {{c1::A}} ... {{c2::B}} ... {{c1::C}} counts as 2.
func CountClozeGroups(text string) int {
	matches := clozeGroupRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}
	groups := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		groups[m[1]] = struct{}{}
	}
	return len(groups)
}

// Truthy reports whether a flag-style field holds a value once markup is
// stripped. Anki flag fields carry arbitrary junk like "y<br>".
func Truthy(value string) bool {
	cleaned := strings.TrimSpace(htmlTagRE.ReplaceAllString(value, ""))
	return cleaned != ""
}
