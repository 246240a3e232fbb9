package Models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadStatusTransitions(t *testing.T) {
	tests := []struct {
		from    LoadStatus
		to      LoadStatus
		allowed bool
	}{
		{LoadStatusAvailable, LoadStatusAssigned, true},
		{LoadStatusAvailable, LoadStatusCancelled, true},
		{LoadStatusAvailable, LoadStatusInTransit, false},
		{LoadStatusAvailable, LoadStatusDelivered, false},
		{LoadStatusAssigned, LoadStatusInTransit, true},
		{LoadStatusAssigned, LoadStatusAvailable, true},
		{LoadStatusAssigned, LoadStatusCancelled, true},
		{LoadStatusAssigned, LoadStatusDelivered, false},
		{LoadStatusInTransit, LoadStatusDelivered, true},
		{LoadStatusInTransit, LoadStatusAvailable, false},
		{LoadStatusInTransit, LoadStatusCancelled, false},
		{LoadStatusDelivered, LoadStatusAvailable, false},
		{LoadStatusDelivered, LoadStatusInTransit, false},
		{LoadStatusCancelled, LoadStatusAvailable, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestParseLoadStatus(t *testing.T) {
	status, err := ParseLoadStatus("InTransit")
	assert.NoError(t, err)
	assert.Equal(t, LoadStatusInTransit, status)

	_, err = ParseLoadStatus("Shipped")
	assert.Error(t, err)

	_, err = ParseLoadStatus("")
	assert.Error(t, err)
}

func TestDeliveredOnTime(t *testing.T) {
	scheduled := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	onTime := scheduled.Add(20 * time.Hour)
	late := scheduled.Add(30 * time.Hour)

	load := Load{ScheduledDeliveryDate: &scheduled, DeliveredAt: &onTime}
	assert.True(t, load.DeliveredOnTime())

	load.DeliveredAt = &late
	assert.False(t, load.DeliveredOnTime())

	// Missing either timestamp means not on time.
	load.DeliveredAt = nil
	assert.False(t, load.DeliveredOnTime())
	load.DeliveredAt = &onTime
	load.ScheduledDeliveryDate = nil
	assert.False(t, load.DeliveredOnTime())
}
