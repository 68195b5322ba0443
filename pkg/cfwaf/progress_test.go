package cfwaf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		testid    string
		activity  string
		status    string
		operation string
		percent   int
		expected  string
	}{
		{
			"First Zone",
			"Fetching zones",
			"Processing",
			"example.com",
			33,
			"Fetching zones: Processing [33%] - example.com",
		},
		{
			"Last Zone",
			"Fetching zones",
			"Processing",
			"example.org",
			100,
			"Fetching zones: Processing [100%] - example.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.testid, func(t *testing.T) {

			actual := FormatProgress(tt.activity, tt.status, tt.operation, tt.percent)
			assert.Equal(t, tt.expected, actual, "Progress line does not match.")
		})
	}
}

func TestWriteProgress(t *testing.T) {
	var buf bytes.Buffer
	WriteProgress(&buf, "Fetching zones", "Processing", "example.com", 50)
	assert.Equal(t, "Fetching zones: Processing [50%] - example.com\n", buf.String(), "Progress output does not match.")
}
