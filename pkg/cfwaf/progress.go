package cfwaf

import (
	"fmt"
	"io"
)

// FormatProgress renders a single textual progress line for zone enumeration.
func FormatProgress(activity, status, operation string, percent int) string {
	return fmt.Sprintf("%s: %s [%d%%] - %s", activity, status, percent, operation)
}

// WriteProgress emits one formatted progress line to the given writer.
func WriteProgress(w io.Writer, activity, status, operation string, percent int) {
	fmt.Fprintln(w, FormatProgress(activity, status, operation, percent))
}
