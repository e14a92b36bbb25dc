package scheduleapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wardsync/internal/model"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{BaseURL: server.URL})
}

func TestGetPresenceList(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/stations/st-1/presence", r.URL.Path)
		require.Equal(t, "2026-08-30", r.URL.Query().Get("work_date"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"workers": []model.Worker{
				{ID: "w1", Role: model.RoleStaff, RoomID: "r1"},
				{ID: "w2", Role: model.RoleDoctor, RoomNumberHint: "204"},
			},
		})
	}))

	workers, err := client.GetPresenceList(context.Background(), "st-1", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, workers, 2)
	require.True(t, workers[0].Assigned())
	require.False(t, workers[1].Assigned())
	require.Equal(t, "204", workers[1].RoomNumberHint)
}

func TestPushStatusBatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			StationID string               `json:"station_id"`
			WorkDate  string               `json:"work_date"`
			Statuses  []model.StatusUpdate `json:"statuses"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "st-1", body.StationID)
		require.Len(t, body.Statuses, 2)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"updated_count": 2})
	}))

	updates := []model.StatusUpdate{
		{WorkerID: "w1", Status: model.StatusWorking},
		{WorkerID: "w2", Status: model.StatusAvailable},
	}
	count, err := client.PushStatusBatch(context.Background(), "st-1", "2026-08-30", updates)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestResetDaily(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/reset-daily", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "2026-08-30", body["current_date"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.ResetSummary{
			ResetCount:      4,
			AutoAssignCount: 3,
			RoomsProcessed:  5,
			StaffOnShift:    6,
			AssignmentLog:   []string{"w1 -> r1"},
		})
	}))

	summary, err := client.ResetDaily(context.Background(), "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 4, summary.ResetCount)
	require.Equal(t, 3, summary.AutoAssignCount)
	require.False(t, summary.Skipped)
}

func TestUpstreamErrorWrapped(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := client.GetVacantRooms(context.Background(), "st-1")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUpstream)
	require.Contains(t, err.Error(), "502")
}

func TestStreamURL(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://scheduler.local:8080", StreamPath: "/ws/stations"})
	require.Equal(t, "ws://scheduler.local:8080/ws/stations/st-9", client.StreamURL("st-9"))

	secure := NewClient(Options{BaseURL: "https://scheduler.local", StreamPath: "/ws/stations"})
	require.Equal(t, "wss://scheduler.local/ws/stations/st-9", secure.StreamURL("st-9"))
}
