package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		name           string
		location       string
		expectedCity   string
		expectedRegion string
		expectedOK     bool
	}{
		{
			name:           "City and state",
			location:       "Austin, Texas",
			expectedCity:   "Austin",
			expectedRegion: "Texas",
			expectedOK:     true,
		},
		{
			name:           "Whitespace around parts",
			location:       "  Austin ,  Texas  ",
			expectedCity:   "Austin",
			expectedRegion: "Texas",
			expectedOK:     true,
		},
		{
			name:           "Splits on first comma only",
			location:       "Austin, Texas, USA",
			expectedCity:   "Austin",
			expectedRegion: "Texas, USA",
			expectedOK:     true,
		},
		{
			name:       "No comma",
			location:   "Austin",
			expectedOK: false,
		},
		{
			name:       "Empty region",
			location:   "Austin, ",
			expectedOK: false,
		},
		{
			name:       "Empty city",
			location:   ", Texas",
			expectedOK: false,
		},
		{
			name:       "Only a comma",
			location:   ",",
			expectedOK: false,
		},
		{
			name:       "Empty string",
			location:   "",
			expectedOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city, region, ok := SplitLocation(tt.location)

			assert.Equal(t, tt.expectedOK, ok)
			if tt.expectedOK {
				assert.Equal(t, tt.expectedCity, city)
				assert.Equal(t, tt.expectedRegion, region)
			}
		})
	}
}
