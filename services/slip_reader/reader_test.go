package slip_reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		amount    float64
		reference string
	}{
		{"plain json", `{"amount": "150000", "reference": "TRX-1"}`, 150000, "TRX-1"},
		{"json fence", "```json\n{\"amount\": \"Rp 150.000\", \"reference\": \" 88 \"}\n```", 150000, "88"},
		{"generic fence", "```\n{\"amount\": \"1,250,000.50\", \"reference\": \"\"}\n```", 1250000.5, ""},
		{"decimal comma", `{"amount": "1.250,75", "reference": "x"}`, 1250.75, "x"},
		{"short decimal", `{"amount": "99.5", "reference": "x"}`, 99.5, "x"},
		{"unreadable amount", `{"amount": "", "reference": "x"}`, 0, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseReading(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.amount, r.Amount, 0.001)
			assert.Equal(t, tt.reference, r.Reference)
		})
	}

	_, err := ParseReading("the slip is blurry")
	assert.Error(t, err)
}

func TestIsValidImageType(t *testing.T) {
	assert.True(t, IsValidImageType("image/png"))
	assert.False(t, IsValidImageType("application/pdf"))
}
