package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func TestGenerateSlots_DefaultWindow(t *testing.T) {
	slots, err := GenerateSlots(8, 19)
	require.NoError(t, err)

	require.Len(t, slots, 23)
	assert.Equal(t, types.TimeString("08:00"), slots[0])
	assert.Equal(t, types.TimeString("19:00"), slots[len(slots)-1])
	assert.NotContains(t, slots, types.TimeString("19:30"))

	for i := 1; i < len(slots); i++ {
		assert.Equal(t, 30, slots[i].Minutes()-slots[i-1].Minutes(), "gap before %s", slots[i])
	}
}

func TestGenerateSlots_Restartable(t *testing.T) {
	first, err := GenerateSlots(9, 11)
	require.NoError(t, err)
	first[0] = "00:00"

	second, err := GenerateSlots(9, 11)
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"09:00", "09:30", "10:00", "10:30", "11:00"}, second)
}

func TestGenerateSlots_InvalidWindow(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"inverted", 19, 8},
		{"empty", 8, 8},
		{"negative start", -1, 8},
		{"negative end", 0, -3},
		{"past midnight", 8, 24},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := GenerateSlots(tt.start, tt.end)
			assert.ErrorIs(t, err, domain.ErrInvalidWindow)
			assert.Nil(t, slots)
		})
	}
}

func TestIsOnGrid(t *testing.T) {
	w := domain.Window{StartHour: 8, EndHour: 19}

	assert.True(t, IsOnGrid(w, "08:00"))
	assert.True(t, IsOnGrid(w, "13:30"))
	assert.True(t, IsOnGrid(w, "19:00"))
	assert.False(t, IsOnGrid(w, "19:30"))
	assert.False(t, IsOnGrid(w, "07:30"))
	assert.False(t, IsOnGrid(w, "10:15"))
	assert.False(t, IsOnGrid(w, "bad"))
}
