package htmltext

import "sort"

// Refs accumulates the distinct media filenames referenced by note text,
// partitioned by which preserved syntax matched them.
type Refs struct {
	Images map[string]struct{}
	Sounds map[string]struct{}
}

// NewRefs returns an empty reference set.
func NewRefs() Refs {
	return Refs{
		Images: make(map[string]struct{}),
		Sounds: make(map[string]struct{}),
	}
}

// Scan adds every image and sound reference found in the given texts.
// Absence of references is not an error; the set simply stays empty.
func (r Refs) Scan(texts ...string) {
	for _, text := range texts {
		for _, m := range imgTagRE.FindAllStringSubmatch(text, -1) {
			r.Images[m[1]] = struct{}{}
		}
		for _, m := range soundRefRE.FindAllStringSubmatch(text, -1) {
			r.Sounds[m[1]] = struct{}{}
		}
	}
}

// Contains reports whether name is referenced as either an image or a sound.
func (r Refs) Contains(name string) bool {
	if _, ok := r.Images[name]; ok {
		return true
	}
	_, ok := r.Sounds[name]
	return ok
}

// Len returns the number of distinct referenced filenames.
func (r Refs) Len() int {
	n := len(r.Images) + len(r.Sounds)
	for name := range r.Sounds {
		if _, ok := r.Images[name]; ok {
			n--
		}
	}
	return n
}

// Filenames returns the sorted union of image and sound references.
func (r Refs) Filenames() []string {
	names := make([]string, 0, len(r.Images)+len(r.Sounds))
	for name := range r.Images {
		names = append(names, name)
	}
	for name := range r.Sounds {
		if _, ok := r.Images[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
