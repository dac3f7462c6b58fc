package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		horizonDays int
		want        string
	}{
		{1, "7 Days"},
		{7, "7 Days"},
		{8, "14 Days"},
		{14, "14 Days"},
		{30, "30 Days"},
		{31, "90 Days"},
		{90, "90 Days"},
		{365, "90 Days"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodLabel(tt.horizonDays), "horizon %d", tt.horizonDays)
	}
}
