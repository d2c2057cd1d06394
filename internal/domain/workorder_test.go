package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkOrder_StampFinished(t *testing.T) {
	now := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)

	t.Run("finished without date", func(t *testing.T) {
		o := WorkOrder{InspectionFinished: true}
		o.StampFinished(now)
		require.NotNil(t, o.Details.Date)
		assert.Equal(t, now, *o.Details.Date)
	})

	t.Run("finished with date keeps it", func(t *testing.T) {
		earlier := now.Add(-48 * time.Hour)
		o := WorkOrder{InspectionFinished: true, Details: Details{Date: &earlier}}
		o.StampFinished(now)
		assert.Equal(t, earlier, *o.Details.Date)
	})

	t.Run("unfinished stays undated", func(t *testing.T) {
		o := WorkOrder{}
		o.StampFinished(now)
		assert.Nil(t, o.Details.Date)
	})
}

func TestWorkOrder_ApplyUpdate_PreservesIdentity(t *testing.T) {
	created := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	stored := WorkOrder{ID: "abc", Created: created, AddedBy: "dispatch", AssignedTo: "alice"}

	stored.ApplyUpdate(WorkOrder{
		ID:                 "ignored",
		AddedBy:            "dispatch",
		AssignedTo:         "bob",
		InspectionFinished: true,
		Details:            Details{Notes: "roof ok"},
		Location:           Location{Zip: "10001"},
	})

	assert.Equal(t, "abc", stored.ID)
	assert.Equal(t, created, stored.Created)
	assert.Equal(t, "bob", stored.AssignedTo)
	assert.True(t, stored.InspectionFinished)
	assert.Equal(t, "roof ok", stored.Details.Notes)
	assert.Equal(t, "10001", stored.Location.Zip)
}

func TestNow_UsesInjectedClock(t *testing.T) {
	frozen := time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, frozen, Now())
}
