package engine

import (
	"context"
	"testing"
	"time"

	"wardsync/internal/model"

	"github.com/stretchr/testify/require"
)

func TestBreakWatchSubstitutesOnBreakEntry(t *testing.T) {
	api := newFakeAPI()
	api.addRoom(model.Room{ID: "r1", StationID: "st-1", Number: "101"})
	api.addWorker(model.Worker{ID: "busy", Role: model.RoleStaff, Window: window("08:00", "17:00", "12:00", "13:00"), RoomID: "r1"})
	api.addWorker(model.Worker{ID: "idle", Role: model.RoleStaff, Window: window("08:00", "17:00", "13:00", "14:00")})

	clk := dayClock()
	at(clk, 12, 30)
	bw := NewBreakWatch(testContext(api, clk, nil), 15*time.Second)

	require.NoError(t, bw.Run(context.Background()))

	require.Empty(t, api.worker("busy").RoomID)
	require.Equal(t, "r1", api.worker("idle").RoomID)
	require.Equal(t, 1, bw.ActiveSubstitutions())
	require.True(t, bw.CoveredRooms()["r1"])
}

func TestBreakWatchRestoresOnBreakExit(t *testing.T) {
	api := newFakeAPI()
	api.addRoom(model.Room{ID: "r1", StationID: "st-1", Number: "101"})
	api.addWorker(model.Worker{ID: "busy", Role: model.RoleStaff, Window: window("08:00", "17:00", "12:00", "13:00"), RoomID: "r1"})
	api.addWorker(model.Worker{ID: "idle", Role: model.RoleStaff, Window: window("08:00", "17:00", "13:00", "14:00")})

	clk := dayClock()
	at(clk, 12, 30)
	bw := NewBreakWatch(testContext(api, clk, nil), 15*time.Second)
	require.NoError(t, bw.Run(context.Background()))

	preSubstitutionRoom := "r1"

	at(clk, 13, 0) // break over, end-exclusive boundary
	require.NoError(t, bw.Run(context.Background()))

	// The original worker holds exactly the room it held before - no drift.
	require.Equal(t, preSubstitutionRoom, api.worker("busy").RoomID)
	require.Empty(t, api.worker("idle").RoomID)
	require.Zero(t, bw.ActiveSubstitutions())
	require.Empty(t, bw.CoveredRooms())
}

func TestBreakWatchNoSubstituteLeavesRoomUncovered(t *testing.T) {
	api := newFakeAPI()
	api.addRoom(model.Room{ID: "r1", StationID: "st-1", Number: "101"})
	api.addWorker(model.Worker{ID: "busy", Role: model.RoleStaff, Window: window("08:00", "17:00", "12:00", "13:00"), RoomID: "r1"})

	clk := dayClock()
	at(clk, 12, 30)
	bw := NewBreakWatch(testContext(api, clk, nil), 15*time.Second)

	// Degraded state, not an error: the cycle completes and nothing moves.
	require.NoError(t, bw.Run(context.Background()))
	require.Equal(t, "r1", api.worker("busy").RoomID)
	require.Zero(t, bw.ActiveSubstitutions())
	require.Zero(t, api.replaceCalls)
}

func TestBreakWatchDoesNotDoubleSubstitute(t *testing.T) {
	api := newFakeAPI()
	api.addRoom(model.Room{ID: "r1", StationID: "st-1", Number: "101"})
	api.addWorker(model.Worker{ID: "busy", Role: model.RoleStaff, Window: window("08:00", "17:00", "12:00", "13:00"), RoomID: "r1"})
	api.addWorker(model.Worker{ID: "idle", Role: model.RoleStaff, Window: window("08:00", "17:00", "13:00", "14:00")})
	api.addWorker(model.Worker{ID: "spare", Role: model.RoleStaff, Window: window("08:00", "17:00", "13:00", "14:00")})

	clk := dayClock()
	at(clk, 12, 30)
	bw := NewBreakWatch(testContext(api, clk, nil), 15*time.Second)

	require.NoError(t, bw.Run(context.Background()))
	require.NoError(t, bw.Run(context.Background()))

	// One substitution stays in effect across repeated cycles.
	require.Equal(t, 1, bw.ActiveSubstitutions())
	require.Equal(t, 1, api.replaceCalls)
}

func TestBreakWatchSubstituteNotPulledFromCoveredPool(t *testing.T) {
	api := newFakeAPI()
	api.addRoom(model.Room{ID: "r1", StationID: "st-1", Number: "101"})
	api.addRoom(model.Room{ID: "r2", StationID: "st-1", Number: "102"})
	// Two workers on simultaneous breaks, one idle worker available.
	api.addWorker(model.Worker{ID: "b1", Role: model.RoleStaff, Window: window("08:00", "17:00", "12:00", "13:00"), RoomID: "r1"})
	api.addWorker(model.Worker{ID: "b2", Role: model.RoleStaff, Window: window("08:00", "17:00", "12:00", "13:00"), RoomID: "r2"})
	api.addWorker(model.Worker{ID: "idle", Role: model.RoleStaff, Window: window("08:00", "17:00", "13:00", "14:00")})

	clk := dayClock()
	at(clk, 12, 30)
	bw := NewBreakWatch(testContext(api, clk, nil), 15*time.Second)

	require.NoError(t, bw.Run(context.Background()))

	// The single idle worker covers exactly one room; the other stays
	// uncovered rather than reusing the same substitute.
	require.Equal(t, 1, bw.ActiveSubstitutions())
	require.Equal(t, 1, api.replaceCalls)
}

func TestBreakWatchRestoreAfterSubstitutionExact(t *testing.T) {
	api := newFakeAPI()
	api.addRoom(model.Room{ID: "r1", StationID: "st-1", Number: "101"})
	api.addRoom(model.Room{ID: "r2", StationID: "st-1", Number: "102"})
	api.addWorker(model.Worker{ID: "busy", Role: model.RoleStaff, Window: window("08:00", "17:00", "12:00", "13:00"), RoomID: "r2"})
	api.addWorker(model.Worker{ID: "idle", Role: model.RoleStaff, Window: window("08:00", "17:00", "13:00", "14:00")})

	clk := dayClock()
	before := api.worker("busy").RoomID

	at(clk, 12, 0) // break entry, start-inclusive boundary
	bw := NewBreakWatch(testContext(api, clk, nil), 15*time.Second)
	require.NoError(t, bw.Run(context.Background()))
	require.NotEqual(t, before, api.worker("busy").RoomID)

	at(clk, 13, 15)
	require.NoError(t, bw.Run(context.Background()))
	require.Equal(t, before, api.worker("busy").RoomID)
}
