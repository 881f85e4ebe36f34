package main

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickInterval     = 100 * time.Millisecond
	BroadcastEvery   = 2 // state broadcasts every N ticks
	AutoSaveInterval = 5 * time.Second
	maxSessions      = 1000
)

// SessionIdleTimeout is how long a session with no attached client keeps
// simulating before it is saved and shut down. Variable so tests can
// shorten it.
var SessionIdleTimeout = 2 * time.Minute

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Session owns one player's running simulation. All mutation goes through
// the Game's own locking; the session loop just drives time forward and
// flushes state out.
type Session struct {
	ID       string
	PlayerID int64
	Game     *Game

	mu        sync.Mutex
	client    Broadcaster
	expanded  map[string]bool // branch ID -> expanded, per-connection UI state
	idleSince time.Time

	tick    atomic.Uint64 // read from client goroutines via Attach broadcasts
	stop    chan struct{}
	stopped sync.Once

	db        *DB
	analytics *Analytics
}

// SessionManager handles creation and lookup of sessions, keyed by player
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	db        *DB
	analytics *Analytics
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(db *DB, analytics *Analytics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[int64]*Session),
		db:        db,
		analytics: analytics,
	}
}

// Resume returns the player's running session, or creates one by loading
// their save and reconciling offline income. The offline result is non-nil
// only when a fresh session awarded catch-up earnings.
func (sm *SessionManager) Resume(playerID int64) (*Session, *OfflineResult, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sess, ok := sm.sessions[playerID]; ok {
		return sess, nil, nil
	}
	if len(sm.sessions) >= maxSessions {
		return nil, nil, fmt.Errorf("server full")
	}

	game := NewGame()
	var offline *OfflineResult
	if sm.db != nil {
		raw, err := sm.db.GetSave(playerID)
		if err != nil {
			return nil, nil, fmt.Errorf("load save: %w", err)
		}
		if raw != nil {
			res, ok := game.RestoreSave(raw)
			if !ok {
				log.Printf("session: discarding corrupt save for player %d", playerID)
			} else if res.Earned > 0 {
				offline = &res
			}
		}
	}

	sess := &Session{
		ID:        GenerateID(8),
		PlayerID:  playerID,
		Game:      game,
		expanded:  make(map[string]bool),
		idleSince: time.Now(),
		stop:      make(chan struct{}),
		db:        sm.db,
		analytics: sm.analytics,
	}
	sm.sessions[playerID] = sess
	go sess.Run(sm)

	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionStart, playerID, sess.ID, "")
		if offline != nil {
			sm.analytics.Track(EvtOfflineAward, playerID, sess.ID,
				fmt.Sprintf(`{"earned":%.2f,"seconds":%.1f}`, offline.Earned, offline.Seconds))
		}
		sm.analytics.SetActiveSessions(len(sm.sessions))
	}
	return sess, offline, nil
}

// Get returns a player's session, or nil
func (sm *SessionManager) Get(playerID int64) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// remove drops a stopped session from the registry
func (sm *SessionManager) remove(playerID int64) {
	sm.mu.Lock()
	delete(sm.sessions, playerID)
	n := len(sm.sessions)
	sm.mu.Unlock()
	if sm.analytics != nil {
		sm.analytics.SetActiveSessions(n)
	}
}

// StopAll saves and stops every session (server shutdown)
func (sm *SessionManager) StopAll() {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		sessions = append(sessions, sess)
	}
	sm.mu.RUnlock()

	for _, sess := range sessions {
		sess.Stop()
		sess.save()
	}
}

// Run drives the simulation until the session stops. Income accrues from
// real elapsed time rather than assuming the ticker fired on schedule.
func (s *Session) Run(sm *SessionManager) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	saveTicker := time.NewTicker(AutoSaveInterval)
	defer saveTicker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			s.Game.Advance(now.Sub(last).Seconds())
			last = now
			if s.tick.Add(1)%BroadcastEvery == 0 {
				s.broadcastState()
			}
			if s.idleExpired(now) {
				s.shutdown(sm)
				return
			}
		case <-saveTicker.C:
			s.save()
		case <-s.stop:
			s.shutdown(sm)
			return
		}
	}
}

// Stop requests shutdown; safe to call more than once
func (s *Session) Stop() {
	s.stopped.Do(func() { close(s.stop) })
}

// shutdown persists the final snapshot and unregisters the session
func (s *Session) shutdown(sm *SessionManager) {
	s.save()
	if s.analytics != nil {
		s.analytics.Track(EvtSessionEnd, s.PlayerID, s.ID, "")
	}
	sm.remove(s.PlayerID)
}

// save writes the current snapshot to the database
func (s *Session) save() {
	if s.db == nil {
		return
	}
	if err := s.db.PutSave(s.PlayerID, s.Game.ExportSave()); err != nil {
		log.Printf("session: save error for player %d: %v", s.PlayerID, err)
	}
}

// Attach connects a client to this session and resets the idle clock
func (s *Session) Attach(client Broadcaster) {
	s.mu.Lock()
	s.client = client
	s.idleSince = time.Time{}
	s.mu.Unlock()
	s.broadcastState()
}

// Detach disconnects the client; the simulation keeps running until the
// idle timeout fires.
func (s *Session) Detach(client Broadcaster) {
	s.mu.Lock()
	if s.client == client {
		s.client = nil
		s.idleSince = time.Now()
	}
	s.mu.Unlock()
}

// SetBranchExpanded records per-connection branch visibility
func (s *Session) SetBranchExpanded(branchID string, expanded bool) {
	s.mu.Lock()
	s.expanded[branchID] = expanded
	s.mu.Unlock()
}

func (s *Session) idleExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.idleSince.IsZero() && now.Sub(s.idleSince) > SessionIdleTimeout
}

// broadcastState sends the msgpack-encoded state to the attached client
func (s *Session) broadcastState() {
	s.mu.Lock()
	client := s.client
	expanded := make(map[string]bool, len(s.expanded))
	for k, v := range s.expanded {
		expanded[k] = v
	}
	s.mu.Unlock()
	if client == nil {
		return
	}

	view := buildStateView(s.Game, expanded, s.tick.Load())
	data, err := msgpack.Marshal(&view)
	if err != nil {
		log.Printf("msgpack marshal error: %v", err)
		return
	}
	client.SendBinary(data)
}
