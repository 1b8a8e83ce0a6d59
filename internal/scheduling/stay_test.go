package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

func TestParseStay(t *testing.T) {
	cases := []struct {
		entry, departure string
		nights           int
		wantErr          error
	}{
		{"2025-03-01", "2025-03-01", 1, nil},
		{"2025-03-01", "2025-03-04", 3, nil},
		{"2025-02-28", "2025-03-01", 1, nil},
		{"2025-03-04", "2025-03-01", 0, domain.ErrOrdering},
		{"03/01/2025", "2025-03-04", 0, domain.ErrInvalidInput},
	}

	for _, tt := range cases {
		stay, err := ParseStay(tt.entry, tt.departure, time.UTC)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "%s -> %s", tt.entry, tt.departure)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.nights, stay.Nights, "%s -> %s", tt.entry, tt.departure)
	}
}

func TestValidateStay_PartialDayRoundsUp(t *testing.T) {
	entry := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)
	departure := time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC)

	nights, err := ValidateStay(entry, departure)
	require.NoError(t, err)
	assert.Equal(t, 2, nights)
}

func TestTotalPrice(t *testing.T) {
	assert.Equal(t, int64(36000), TotalPrice(12000, 3))

	stay, err := ParseStay("2025-03-01", "2025-03-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), stay.TotalPrice(12000))
}

func TestAdjustDeparture(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }

	got, advanced := AdjustDeparture(d(5), d(3))
	assert.True(t, advanced)
	assert.Equal(t, d(5), got)

	got, advanced = AdjustDeparture(d(2), d(3))
	assert.False(t, advanced)
	assert.Equal(t, d(3), got)
}
