// Package livesync keeps a station view fresh through a push-first,
// poll-fallback transport. A websocket stream from the upstream service is
// the preferred source; when it fails the supervisor degrades to periodic
// polling and keeps retrying the stream. A heartbeat watchdog forces a
// reconnect when the stream is nominally open but silent.
package livesync

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"wardsync/internal/model"
	"wardsync/pkg/clock"
	"wardsync/pkg/logger"
	"wardsync/pkg/metrics"

	"github.com/gorilla/websocket"
)

// Message is one frame on the push channel.
type Message struct {
	Type      string          `json:"type"` // status_update, error
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ApplyFunc receives station detail from either source. The same function
// handles push frames and poll responses, so UI update logic is identical
// regardless of transport mode.
type ApplyFunc func(detail model.StationDetail)

// Poller is the fallback source; the upstream client satisfies it.
type Poller interface {
	GetStationDetail(ctx context.Context, stationID string) (model.StationDetail, error)
}

// Conn is the subset of a websocket connection the supervisor needs.
type Conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

// DialFunc opens the push channel. Injectable for tests.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// DefaultDial dials with the gorilla websocket default dialer.
func DefaultDial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Options configures a Supervisor.
type Options struct {
	StationID        string
	StreamURL        string
	Poller           Poller
	Apply            ApplyFunc
	Clock            clock.Clock
	Dial             DialFunc
	PollInterval     time.Duration
	HeartbeatCheck   time.Duration
	HeartbeatTimeout time.Duration
}

// Supervisor owns the connection lifecycle for one station. It is created
// when the station is selected and stopped when it is deselected.
type Supervisor struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	conn        Conn
	pushActive  bool
	lastMessage time.Time
}

// NewSupervisor creates a transport supervisor for one station.
func NewSupervisor(parent context.Context, opts Options) *Supervisor {
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	if opts.Dial == nil {
		opts.Dial = DefaultDial
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.HeartbeatCheck <= 0 {
		opts.HeartbeatCheck = 5 * time.Second
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{opts: opts, ctx: ctx, cancel: cancel}
}

// Start launches the connection loop and the heartbeat watchdog.
func (s *Supervisor) Start() {
	s.wg.Add(2)
	go s.run()
	go s.watchdog()
}

// Stop tears the transport down and waits for its goroutines.
func (s *Supervisor) Stop() {
	s.cancel()
	s.closeConn()
	s.wg.Wait()
}

// PushActive reports whether the push channel is currently the source.
func (s *Supervisor) PushActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushActive
}

// LastMessageAt returns when the last push frame arrived.
func (s *Supervisor) LastMessageAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMessage
}

func (s *Supervisor) run() {
	defer s.wg.Done()

	for s.ctx.Err() == nil {
		conn, err := s.opts.Dial(s.ctx, s.opts.StreamURL)
		if err != nil {
			logger.Warnf("livesync: push channel dial failed for station %s, polling: %v", s.opts.StationID, err)
			s.setPush(false, nil)
			if !s.pollOnce() {
				return
			}
			continue
		}

		logger.Infof("livesync: push channel open for station %s", s.opts.StationID)
		s.setPush(true, conn)
		s.pump(conn)
		s.setPush(false, nil)

		// Degrade to one poll cycle before re-subscribing, so viewers keep
		// getting updates while the stream is down.
		if s.ctx.Err() == nil && !s.pollOnce() {
			return
		}
	}
}

// pump reads frames until the stream errors, the watchdog closes the
// connection, or the supervisor stops.
func (s *Supervisor) pump(conn Conn) {
	defer conn.Close()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				logger.Warnf("livesync: push channel closed for station %s: %v", s.opts.StationID, err)
				metrics.ReconnectsTotal.WithLabelValues("stream_error").Inc()
			}
			return
		}
		s.touch()
		s.handleFrame(payload)
	}
}

func (s *Supervisor) handleFrame(payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.Warnf("livesync: malformed push frame for station %s: %v", s.opts.StationID, err)
		return
	}

	switch msg.Type {
	case "status_update":
		var detail model.StationDetail
		if err := json.Unmarshal(msg.Data, &detail); err != nil {
			logger.Warnf("livesync: malformed status update for station %s: %v", s.opts.StationID, err)
			return
		}
		s.opts.Apply(detail)
	case "error":
		logger.Warnf("livesync: upstream error for station %s: %s", s.opts.StationID, msg.Message)
	default:
		logger.Debugf("livesync: ignoring frame type %q for station %s", msg.Type, s.opts.StationID)
	}
}

// pollOnce performs one fallback poll and waits one interval before the
// next push attempt. Returns false when the supervisor is stopping.
func (s *Supervisor) pollOnce() bool {
	detail, err := s.opts.Poller.GetStationDetail(s.ctx, s.opts.StationID)
	if err != nil {
		logger.Warnf("livesync: poll failed for station %s: %v", s.opts.StationID, err)
	} else {
		s.opts.Apply(detail)
	}

	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// watchdog runs independently of the connection loop. A push channel that
// is open but silent past the timeout is torn down, which makes the run
// loop redial the same station.
func (s *Supervisor) watchdog() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.HeartbeatCheck)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkHeartbeat()
		}
	}
}

func (s *Supervisor) checkHeartbeat() {
	s.mu.Lock()
	stale := s.pushActive && s.opts.Clock.Now().Sub(s.lastMessage) > s.opts.HeartbeatTimeout
	conn := s.conn
	s.mu.Unlock()

	if !stale || conn == nil {
		return
	}
	logger.Warnf("livesync: no message within %v for station %s, forcing reconnect", s.opts.HeartbeatTimeout, s.opts.StationID)
	metrics.ReconnectsTotal.WithLabelValues("heartbeat").Inc()
	_ = conn.Close()
}

func (s *Supervisor) setPush(active bool, conn Conn) {
	s.mu.Lock()
	s.pushActive = active
	s.conn = conn
	if active {
		s.lastMessage = s.opts.Clock.Now()
	}
	s.mu.Unlock()

	mode := 0.0
	if active {
		mode = 1.0
	}
	metrics.TransportMode.WithLabelValues(s.opts.StationID).Set(mode)
}

func (s *Supervisor) touch() {
	s.mu.Lock()
	s.lastMessage = s.opts.Clock.Now()
	s.mu.Unlock()
}

func (s *Supervisor) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
