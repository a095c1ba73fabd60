package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name        string
		dateStr     string
		layout      string
		expectedOk  bool
		expectedY   int
		expectedM   time.Month
		expectedD   int
		expectedFmt string
	}{
		{"European format", "06.05.2024", "", true, 2024, time.May, 6, DateLayoutEuropean},
		{"Slash is day first", "05/06/2024", "", true, 2024, time.June, 5, DateLayoutSlash},
		{"Dash-separated", "09-05-2024", "", true, 2024, time.May, 9, DateLayoutDash},
		{"Single digits", "1.5.2024", "", true, 2024, time.May, 1, DateLayoutShort},
		{"ISO fallback", "2024-05-01", "", true, 2024, time.May, 1, DateLayoutISO},
		{"Trailing time dropped", "06.05.2024 00:00", "", true, 2024, time.May, 6, DateLayoutEuropean},
		{"Padded", "  01.05.2024 ", "", true, 2024, time.May, 1, DateLayoutEuropean},
		{"Explicit layout", "2024/05/09", "2006/01/02", true, 2024, time.May, 9, "2006/01/02"},
		{"Explicit layout mismatch", "09.05.2024", "2006/01/02", false, 0, 0, 0, ""},
		{"Month first rejected", "05/31/2024", "", false, 0, 0, 0, ""},
		{"Empty string", "", "", false, 0, 0, 0, ""},
		{"Invalid format", "not a date", "", false, 0, 0, 0, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			date, format, err := ParseDate(tc.dateStr, tc.layout)

			if !tc.expectedOk {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedY, date.Year())
			assert.Equal(t, tc.expectedM, date.Month())
			assert.Equal(t, tc.expectedD, date.Day())
			assert.Equal(t, tc.expectedFmt, format)
		})
	}
}

func TestToISODate(t *testing.T) {
	assert.Equal(t, "2024-05-09", ToISODate(time.Date(2024, time.May, 9, 13, 0, 0, 0, time.UTC)))
}
