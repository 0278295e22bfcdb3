package extract

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar returns nil when progress is disabled; the step/finish
// helpers tolerate nil so call sites stay unconditional.
func newProgressBar(enabled bool, total int, description string) *progressbar.ProgressBar {
	if !enabled || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)
}

func stepProgressBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

func finishProgressBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
