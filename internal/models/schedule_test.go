package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCategory(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"scheduled", CategoryPrimary},
		{"confirmed", CategorySuccess},
		{"completed", CategoryInfo},
		{"cancelled", CategoryError},
		{"no_show", CategoryDefault},
		{"", CategoryDefault},
		{"SCHEDULED", CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			require.Equal(t, tt.expected, StatusCategory(tt.status))
		})
	}
}

func TestAvailabilityLabel(t *testing.T) {
	label, category := AvailabilitySlot{IsAvailable: true}.AvailabilityLabel()
	require.Equal(t, "Available", label)
	require.Equal(t, CategorySuccess, category)

	label, category = AvailabilitySlot{IsAvailable: false}.AvailabilityLabel()
	require.Equal(t, "Unavailable", label)
	require.Equal(t, CategoryError, category)
}

func TestIdentity_FullName(t *testing.T) {
	require.Equal(t, "Anna Smith", Identity{Username: "dr.smith", FirstName: "Anna", LastName: "Smith"}.FullName())
	require.Equal(t, "Anna", Identity{Username: "dr.smith", FirstName: "Anna"}.FullName())
	require.Equal(t, "dr.smith", Identity{Username: "dr.smith"}.FullName())
}
