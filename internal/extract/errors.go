package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingMedia marks a filename referenced by cleaned text with no
	// manifest entry. Either the cleaner mangled a reference or the deck
	// shipped without the file; both deserve surfacing.
	ErrMissingMedia = errors.New("referenced media missing from manifest")
	// ErrOutputBusy marks an output directory locked by another run.
	ErrOutputBusy = errors.New("output directory locked by another run")
)

// Wrap builds an error message that includes pipeline stage context while
// tagging it with the provided marker for errors.Is classification.
func Wrap(marker error, stage, operation string, err error) error {
	detail := buildDetail(stage, operation)
	switch {
	case marker != nil && err != nil:
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	case marker != nil:
		return fmt.Errorf("%w: %s", marker, detail)
	case err != nil:
		return fmt.Errorf("%s: %w", detail, err)
	default:
		return errors.New(detail)
	}
}

func buildDetail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
