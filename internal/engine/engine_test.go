package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"wardsync/internal/model"
	"wardsync/pkg/clock"
	"wardsync/pkg/marker"
)

// fakeAPI is an in-memory upstream service. Assignments mutate worker and
// room state the way the real service does, so idempotency and restore
// invariants can be asserted against actual state.
type fakeAPI struct {
	mu      sync.Mutex
	workers map[string]*model.Worker
	order   []string
	rooms   map[string]*model.Room

	assignCalls  int
	replaceCalls int
	resetCalls   int

	resetSummary model.ResetSummary
	listErr      error
	pushErr      error
	resetErr     error

	pushed [][]model.StatusUpdate
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		workers: make(map[string]*model.Worker),
		rooms:   make(map[string]*model.Room),
	}
}

func (f *fakeAPI) addWorker(w model.Worker) {
	f.workers[w.ID] = &w
	f.order = append(f.order, w.ID)
	if w.RoomID != "" {
		if room, ok := f.rooms[w.RoomID]; ok {
			room.OccupantIDs = append(room.OccupantIDs, w.ID)
		}
	}
}

func (f *fakeAPI) addRoom(r model.Room) {
	f.rooms[r.ID] = &r
}

func (f *fakeAPI) worker(id string) model.Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.workers[id]
}

func (f *fakeAPI) GetPresenceList(_ context.Context, _, _ string) ([]model.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Worker, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.workers[id])
	}
	return out, nil
}

func (f *fakeAPI) PushStatusBatch(_ context.Context, _, _ string, updates []model.StatusUpdate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return 0, f.pushErr
	}
	f.pushed = append(f.pushed, updates)
	return len(updates), nil
}

func (f *fakeAPI) GetUnassignedWorkers(ctx context.Context, stationID, workDate string) ([]model.Worker, error) {
	all, err := f.GetPresenceList(ctx, stationID, workDate)
	if err != nil {
		return nil, err
	}
	out := make([]model.Worker, 0, len(all))
	for _, w := range all {
		if !w.Assigned() {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetVacantRooms(_ context.Context, _ string) ([]model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		if r.Vacant() {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeAPI) Assign(_ context.Context, workerID, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignCalls++
	w, ok := f.workers[workerID]
	if !ok {
		return errors.New("unknown worker")
	}
	if w.RoomID == roomID {
		return nil // idempotent repeat
	}
	w.RoomID = roomID
	if room, ok := f.rooms[roomID]; ok {
		room.OccupantIDs = append(room.OccupantIDs, workerID)
	}
	return nil
}

func (f *fakeAPI) Unassign(_ context.Context, workerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workers[workerID]
	if !ok {
		return errors.New("unknown worker")
	}
	f.removeOccupant(w.RoomID, workerID)
	w.RoomID = ""
	return nil
}

func (f *fakeAPI) Replace(_ context.Context, originalWorkerID, substituteWorkerID, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	original, ok := f.workers[originalWorkerID]
	if !ok {
		return errors.New("unknown original worker")
	}
	substitute, ok := f.workers[substituteWorkerID]
	if !ok {
		return errors.New("unknown substitute worker")
	}
	f.removeOccupant(original.RoomID, originalWorkerID)
	original.RoomID = ""
	substitute.RoomID = roomID
	if room, ok := f.rooms[roomID]; ok {
		room.OccupantIDs = append(room.OccupantIDs, substituteWorkerID)
	}
	return nil
}

func (f *fakeAPI) removeOccupant(roomID, workerID string) {
	room, ok := f.rooms[roomID]
	if !ok {
		return
	}
	kept := room.OccupantIDs[:0]
	for _, id := range room.OccupantIDs {
		if id != workerID {
			kept = append(kept, id)
		}
	}
	room.OccupantIDs = kept
}

func (f *fakeAPI) ResetDaily(_ context.Context, _ string) (model.ResetSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	if f.resetErr != nil {
		return model.ResetSummary{}, f.resetErr
	}
	cleared := 0
	for _, w := range f.workers {
		if w.RoomID != "" {
			cleared++
			w.RoomID = ""
		}
	}
	for _, r := range f.rooms {
		r.OccupantIDs = nil
	}
	summary := f.resetSummary
	summary.ResetCount = cleared
	return summary, nil
}

func (f *fakeAPI) GetStationDetail(_ context.Context, stationID string) (model.StationDetail, error) {
	return model.StationDetail{StationID: stationID}, nil
}

// capturePublisher records published snapshots.
type capturePublisher struct {
	mu        sync.Mutex
	snapshots []model.PresenceSnapshot
}

func (p *capturePublisher) PublishSnapshot(s model.PresenceSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *capturePublisher) published() []model.PresenceSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.PresenceSnapshot(nil), p.snapshots...)
}

func testContext(api *fakeAPI, clk clock.Clock, pub Publisher) *Context {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Context{
		StationID: "st-1",
		Clock:     clk,
		API:       api,
		Markers:   marker.NewMemoryStore(),
		Publisher: pub,
	}
}

func at(t *clock.Fake, hour, minute int) {
	now := t.Now()
	t.Set(time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()))
}

func dayClock() *clock.Fake {
	return clock.NewFake(time.Date(2026, 8, 30, 9, 0, 0, 0, time.Local))
}

func window(workStart, workEnd, breakStart, breakEnd string) model.ScheduleWindow {
	parse := func(s string) model.TimeOfDay {
		tod, err := model.ParseTimeOfDay(s)
		if err != nil {
			panic(err)
		}
		return tod
	}
	return model.ScheduleWindow{
		WorkStart:  parse(workStart),
		WorkEnd:    parse(workEnd),
		BreakStart: parse(breakStart),
		BreakEnd:   parse(breakEnd),
	}
}
