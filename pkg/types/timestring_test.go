package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeString
		wantErr bool
	}{
		{"08:00", "08:00", false},
		{"19:30", "19:30", false},
		{"10:00:00", "10:00", false},
		{"24:00", "", true},
		{"7:00", "", true},
		{"+1:00", "", true},
		{"12:60", "", true},
		{"", "", true},
	}

	for _, tt := range cases {
		got, err := NewTimeStringFromString(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTimeString, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTimeString_AddMinutes(t *testing.T) {
	got, err := TimeString("08:30").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("09:00"), got)

	_, err = TimeString("23:45").AddMinutes(30)
	assert.ErrorIs(t, err, ErrTimeOutOfDay)
}

func TestTimeString_Compare(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("09:30"))
	assert.False(t, TimeString("09:30").IsBefore("09:30"))
	assert.True(t, TimeString("19:00").IsAfter("18:30"))
	assert.Equal(t, 570, TimeString("09:30").Minutes())
	assert.Equal(t, -1, TimeString("bad").Minutes())
}

func TestTimeString_On(t *testing.T) {
	day := time.Date(2025, 3, 1, 23, 10, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), TimeString("10:30").On(day))
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan([]byte("14:30:00")))
	assert.Equal(t, TimeString("14:30"), ts)

	require.NoError(t, ts.Scan(time.Date(0, 1, 1, 9, 15, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("09:15"), ts)

	assert.Error(t, ts.Scan(42))
}
