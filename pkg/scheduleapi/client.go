// Package scheduleapi is the client for the external scheduling/persistence
// service. Every read and mutation the engine performs goes through this
// contract; the engine itself owns no durable state.
package scheduleapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wardsync/internal/model"

	"github.com/go-resty/resty/v2"
)

// ErrUpstream marks any transport-level failure (non-2xx, timeout, malformed
// payload). Callers log it and retry on the next cycle tick; it is never
// fatal.
var ErrUpstream = errors.New("upstream scheduling service error")

// API is the operation contract the engine requires from the upstream
// service. All mutations are idempotent: repeating assign/unassign/replace
// with the same arguments leaves the same state.
type API interface {
	GetPresenceList(ctx context.Context, stationID, workDate string) ([]model.Worker, error)
	PushStatusBatch(ctx context.Context, stationID, workDate string, updates []model.StatusUpdate) (int, error)
	GetUnassignedWorkers(ctx context.Context, stationID, workDate string) ([]model.Worker, error)
	GetVacantRooms(ctx context.Context, stationID string) ([]model.Room, error)
	Assign(ctx context.Context, workerID, roomID string) error
	Unassign(ctx context.Context, workerID string) error
	Replace(ctx context.Context, originalWorkerID, substituteWorkerID, roomID string) error
	ResetDaily(ctx context.Context, currentDate string) (model.ResetSummary, error)
	GetStationDetail(ctx context.Context, stationID string) (model.StationDetail, error)
}

// Client is the resty-backed implementation of API.
type Client struct {
	http       *resty.Client
	baseURL    string
	streamPath string
}

// Options configures the upstream client.
type Options struct {
	BaseURL    string
	StreamPath string // websocket push channel path, e.g. /ws/stations
	Timeout    time.Duration
	RetryCount int
}

// NewClient creates an upstream client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.StreamPath == "" {
		opts.StreamPath = "/ws/stations"
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:       httpClient,
		baseURL:    opts.BaseURL,
		streamPath: opts.StreamPath,
	}
}

// StreamURL returns the websocket URL of the per-station push channel.
func (c *Client) StreamURL(stationID string) string {
	base := c.baseURL
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	return fmt.Sprintf("%s%s/%s", strings.TrimRight(base, "/"), c.streamPath, stationID)
}

// GetPresenceList returns workers with schedule windows and current
// assignments for a station and work date.
func (c *Client) GetPresenceList(ctx context.Context, stationID, workDate string) ([]model.Worker, error) {
	var out struct {
		Workers []model.Worker `json:"workers"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("work_date", workDate).
		SetResult(&out).
		Get(fmt.Sprintf("/api/v1/stations/%s/presence", stationID))
	if err := c.check(resp, err, "get presence list"); err != nil {
		return nil, err
	}
	return out.Workers, nil
}

// PushStatusBatch persists the computed statuses for audit/history and
// returns the number of updated rows.
func (c *Client) PushStatusBatch(ctx context.Context, stationID, workDate string, updates []model.StatusUpdate) (int, error) {
	body := map[string]interface{}{
		"station_id": stationID,
		"work_date":  workDate,
		"statuses":   updates,
	}
	var out struct {
		UpdatedCount int `json:"updated_count"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/api/v1/stations/%s/statuses", stationID))
	if err := c.check(resp, err, "push status batch"); err != nil {
		return 0, err
	}
	return out.UpdatedCount, nil
}

// GetUnassignedWorkers returns on-shift workers without an active room
// assignment.
func (c *Client) GetUnassignedWorkers(ctx context.Context, stationID, workDate string) ([]model.Worker, error) {
	var out struct {
		Workers []model.Worker `json:"workers"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("work_date", workDate).
		SetResult(&out).
		Get(fmt.Sprintf("/api/v1/stations/%s/workers/unassigned", stationID))
	if err := c.check(resp, err, "get unassigned workers"); err != nil {
		return nil, err
	}
	return out.Workers, nil
}

// GetVacantRooms returns the station's currently unoccupied rooms.
func (c *Client) GetVacantRooms(ctx context.Context, stationID string) ([]model.Room, error) {
	var out struct {
		Rooms []model.Room `json:"rooms"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/v1/stations/%s/rooms/vacant", stationID))
	if err := c.check(resp, err, "get vacant rooms"); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

// Assign binds a worker to a room.
func (c *Client) Assign(ctx context.Context, workerID, roomID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"worker_id": workerID, "room_id": roomID}).
		Post("/api/v1/assignments")
	return c.check(resp, err, "assign")
}

// Unassign removes a worker's active assignment.
func (c *Client) Unassign(ctx context.Context, workerID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/v1/assignments/%s", workerID))
	return c.check(resp, err, "unassign")
}

// Replace moves a room assignment from the original worker to a substitute,
// recording a back-reference so the substitution can be undone.
func (c *Client) Replace(ctx context.Context, originalWorkerID, substituteWorkerID, roomID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"original_worker_id":   originalWorkerID,
			"substitute_worker_id": substituteWorkerID,
			"room_id":              roomID,
		}).
		Post("/api/v1/assignments/replace")
	return c.check(resp, err, "replace")
}

// ResetDaily clears today's assignments and re-runs auto-assignment for all
// stations on the upstream side, returning the full structured summary.
func (c *Client) ResetDaily(ctx context.Context, currentDate string) (model.ResetSummary, error) {
	var out model.ResetSummary
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"current_date": currentDate}).
		SetResult(&out).
		Post("/api/v1/reset-daily")
	if err := c.check(resp, err, "reset daily"); err != nil {
		return model.ResetSummary{}, err
	}
	return out, nil
}

// GetStationDetail returns the station's current detail; this is the polling
// fallback source and returns the same shape the push channel delivers.
func (c *Client) GetStationDetail(ctx context.Context, stationID string) (model.StationDetail, error) {
	var out model.StationDetail
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/v1/stations/%s/detail", stationID))
	if err := c.check(resp, err, "get station detail"); err != nil {
		return model.StationDetail{}, err
	}
	return out, nil
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s: status %d: %s", ErrUpstream, op, resp.StatusCode(), resp.String())
	}
	return nil
}
