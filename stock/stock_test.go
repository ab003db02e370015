package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampWithinRange(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		available int
		want      int
	}{
		{"in range", 3, 10, 3},
		{"above stock", 15, 10, 10},
		{"exactly stock", 10, 10, 10},
		{"zero requested", 0, 10, 1},
		{"negative requested", -4, 10, 1},
		{"single unit stock", 99, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clamp(tt.requested, tt.available)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 1)
			assert.LessOrEqual(t, got, tt.available)
		})
	}
}

func TestClampOutOfStock(t *testing.T) {
	for _, available := range []int{0, -1, -100} {
		_, err := Clamp(5, available)
		assert.ErrorIs(t, err, ErrOutOfStock)
	}
}

func TestParseQuantity(t *testing.T) {
	valid := map[string]int{
		"1":    1,
		"12":   12,
		" 7 ":  7,
		"0":    0,
		"0042": 42,
	}
	for raw, want := range valid {
		got, err := ParseQuantity(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	invalid := []string{"", "1.5", "1,5", "-3", "1e3", "2E2", "+4", "abc", "3.", "."}
	for _, raw := range invalid {
		_, err := ParseQuantity(raw)
		assert.ErrorIs(t, err, ErrInvalidQuantity, raw)
	}
}
