package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/db"
	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
	"github.com/Park-Jeong-Gil/tap-tap-burger/netplay"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
	"github.com/tidwall/gjson"
)

const (
	tickInterval = 16 * time.Millisecond
	saveTimeout  = 10 * time.Second
)

// Client frame types
const (
	MsgTypeStart  = "start"
	MsgTypeAction = "action"
	MsgTypeClear  = "clear"
	MsgTypeUndo   = "undo"
)

// Server frame types
const (
	MsgTypeSnapshot = "snapshot"
	MsgTypeEvent    = "event"
	MsgTypeOpponent = "opponent"
	MsgTypeRoom     = "room"
	MsgTypeResult   = "result"
	MsgTypeExpired  = "expired"
	MsgTypeError    = "error"
)

// Frame is what the session writes to its websocket.
type Frame struct {
	Type     string             `json:"type"`
	Snapshot *game.Snapshot     `json:"snapshot,omitempty"`
	Event    *game.Event        `json:"event,omitempty"`
	Opponent *netplay.PeerState `json:"opponent,omitempty"`
	Room     *room.Room         `json:"room,omitempty"`
	Status   room.Status        `json:"status,omitempty"`
	Result   *ResultPayload     `json:"result,omitempty"`
	Reason   string             `json:"reason,omitempty"`
}

// ResultPayload ends a match on the client.
type ResultPayload struct {
	Mode     game.Mode      `json:"mode"`
	Score    int            `json:"score"`
	MaxCombo int            `json:"maxCombo"`
	Outcome  netplay.Result `json:"outcome,omitempty"`
	NewBest  bool           `json:"newBest"`
}

// Session owns one player's match for the life of a websocket. Every call
// into the match happens on the run goroutine.
type Session struct {
	srv    *Server
	client *Client
	mode   game.Mode
	roomID string

	match  *game.Match
	room   *room.Room
	versus *netplay.Versus
	coop   *netplay.Coop

	lastTick time.Time
	finished bool
	results  chan ResultPayload
}

func newSession(srv *Server, client *Client, mode game.Mode, roomID string) *Session {
	return &Session{
		srv:     srv,
		client:  client,
		mode:    mode,
		roomID:  roomID,
		match:   game.NewMatch(game.DefaultConfig(mode)),
		results: make(chan ResultPayload, 1),
	}
}

func (s *Session) multiplayer() bool {
	return s.mode != game.ModeSolo
}

func (s *Session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer close(s.client.send)
	defer close(s.client.done)

	var (
		msgs     <-chan netplay.Message
		statuses <-chan room.Status
		expire   <-chan time.Time
	)

	if s.multiplayer() {
		r, err := s.enter(ctx)
		if err != nil {
			s.sendExpired(err)
			return
		}
		s.room = r

		msgs, err = s.srv.bus.Subscribe(ctx, s.roomID)
		if err != nil {
			log.Printf("[SESSION] bus for room %s unavailable: %v", s.roomID, err)
			s.send(Frame{Type: MsgTypeError, Reason: "bus_unavailable"})
			return
		}
		statuses = s.srv.watcher.Run(ctx, s.roomID)
		s.send(Frame{Type: MsgTypeRoom, Room: r, Status: r.Status})

		switch r.Status {
		case room.StatusWaiting:
			deadline := r.CreatedAt.Add(s.srv.lobby.WaitingTimeout())
			timer := time.NewTimer(time.Until(deadline))
			defer timer.Stop()
			expire = timer.C
		case room.StatusPlaying:
			s.startMatch(ctx)
		}
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-s.client.inbox:
			if !ok {
				s.disconnect(ctx)
				return
			}
			s.handleFrame(ctx, data)

		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				continue
			}
			s.handleBus(ctx, msg)

		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			if s.handleStatus(ctx, st) {
				return
			}

		case <-expire:
			expire = nil
			if s.match.Status() == game.StatusIdle {
				log.Printf("[SESSION] room %s never started, expiring", s.roomID)
				s.srv.finisher.MarkFinished(ctx, s.roomID, s.client.playerID)
				s.sendExpired(&room.RefusalError{RoomID: s.roomID, Reason: room.ReasonExpired})
				return
			}

		case res := <-s.results:
			s.send(Frame{Type: MsgTypeResult, Result: &res})

		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// enter checks that the room can still be played by this client.
func (s *Session) enter(ctx context.Context) (*room.Room, error) {
	r, err := s.srv.lobby.Info(ctx, s.roomID)
	if err != nil {
		return nil, err
	}
	if _, ok := r.Member(s.client.playerID); !ok {
		return nil, &room.RefusalError{RoomID: s.roomID, Reason: room.ReasonNotMember}
	}
	if r.Status == room.StatusFinished || r.Mode != s.mode {
		return nil, &room.RefusalError{RoomID: s.roomID, Reason: room.ReasonExpired}
	}
	return r, nil
}

func (s *Session) startMatch(ctx context.Context) {
	if s.match.Status() == game.StatusPlaying {
		return
	}
	// Rooms are single use.
	if s.multiplayer() && s.match.Status() != game.StatusIdle {
		return
	}

	cfg := game.DefaultConfig(s.mode)
	switch s.mode {
	case game.ModeCoop:
		cfg.RoomSeed = game.RoomSeed(s.roomID)
		s.coop = netplay.NewCoop(s.roomID, s.client.playerID, s.coopKeys(ctx), s.srv.bus)
		s.send(Frame{Type: MsgTypeRoom, Room: s.room, Status: s.room.Status})
	case game.ModeVersus:
		s.versus = netplay.NewVersus(netplay.VersusConfig{
			RoomID:        s.roomID,
			PlayerID:      s.client.playerID,
			Bus:           s.srv.bus,
			StateInterval: s.srv.cfg.StateSendInterval,
		})
		s.versus.Connected()
	}

	s.match = game.NewMatch(cfg)
	s.match.Start()
	s.finished = false
	s.lastTick = time.Now()
	log.Printf("[SESSION] %s started %s match %s", s.client.playerID, s.mode, s.roomID)
	s.flush(ctx)
}

// coopKeys returns the keys stored on the started room. If the room cannot
// be read they are derived from the room id, which gives the same split.
func (s *Session) coopKeys(ctx context.Context) game.CoopKeys {
	r, err := s.srv.lobby.Info(ctx, s.roomID)
	if err != nil {
		log.Printf("[SESSION] reading coop room %s failed: %v", s.roomID, err)
	} else {
		s.room = r
	}
	if me, ok := s.room.Member(s.client.playerID); ok && len(me.Keys) > 0 {
		return me.Keys
	}

	log.Printf("[SESSION] no stored keys for %s in room %s, deriving them", s.client.playerID, s.roomID)
	hostKeys, guestKeys := game.AssignCoopKeys(s.roomID)
	if s.room.HostID == s.client.playerID {
		return hostKeys
	}
	return guestKeys
}

func (s *Session) tick(ctx context.Context, now time.Time) {
	if s.match.Status() != game.StatusPlaying {
		return
	}
	dt := now.Sub(s.lastTick).Seconds()
	s.lastTick = now
	s.match.Tick(dt)
	s.flush(ctx)
}

// flush publishes what the last transition changed: sync traffic to the
// peer, then events and a snapshot to the client.
func (s *Session) flush(ctx context.Context) {
	events := s.match.DrainEvents()
	snap := s.match.Snapshot()

	if s.versus != nil {
		s.versus.Sync(ctx, snap, events)
	}
	for i := range events {
		s.send(Frame{Type: MsgTypeEvent, Event: &events[i]})
	}
	s.send(Frame{Type: MsgTypeSnapshot, Snapshot: &snap})

	if snap.Status == game.StatusGameOver && !s.finished {
		s.finish(ctx, snap)
	}
}

func (s *Session) finish(ctx context.Context, snap game.Snapshot) {
	s.finished = true
	res := ResultPayload{Mode: s.mode, Score: snap.Score, MaxCombo: snap.MaxCombo}
	if s.versus != nil {
		res.Outcome = s.versus.Result()
	}
	if s.multiplayer() {
		s.srv.finisher.MarkFinished(ctx, s.roomID, s.client.playerID)
	}
	go s.save(res)
}

// save runs off the session goroutine and reports back through results.
func (s *Session) save(res ResultPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if s.mode == game.ModeCoop {
		// Both partners hold the same score; the host writes it.
		if s.room != nil && s.room.HostID == s.client.playerID {
			for _, p := range s.room.Players {
				if p.ID != s.client.playerID {
					db.SaveTeamScore(ctx, s.srv.scores, s.client.playerID, p.ID, res.Score, res.MaxCombo)
				}
			}
		}
	} else {
		newBest, err := db.SaveResult(ctx, s.srv.scores, db.ScoreEntry{
			PlayerID: s.client.playerID,
			Mode:     string(s.mode),
			Nickname: s.client.nickname,
			Score:    res.Score,
			MaxCombo: res.MaxCombo,
		})
		res.NewBest = err == nil && newBest
	}
	select {
	case s.results <- res:
	default:
		log.Printf("[SESSION] result for %s dropped", s.client.playerID)
	}
}

func (s *Session) handleFrame(ctx context.Context, data []byte) {
	if !gjson.ValidBytes(data) {
		log.Printf("[SESSION] dropping malformed frame from %s", s.client.playerID)
		return
	}
	frame := gjson.ParseBytes(data)

	switch frame.Get("type").String() {
	case MsgTypeStart:
		s.handleStart(ctx)
	case MsgTypeAction:
		s.apply(ctx, game.Action(frame.Get("action").String()))
	case MsgTypeUndo:
		s.apply(ctx, game.ActionCancel)
	case MsgTypeClear:
		// Clearing is not a relayed input, so coop partners would diverge.
		if s.coop == nil && s.match.ClearStaged() {
			s.flush(ctx)
		}
	default:
		log.Printf("[SESSION] unknown frame type %q from %s", frame.Get("type").String(), s.client.playerID)
	}
}

func (s *Session) handleStart(ctx context.Context) {
	if !s.multiplayer() {
		s.startMatch(ctx)
		return
	}
	if _, err := s.srv.lobby.Start(ctx, s.roomID, s.client.playerID); err != nil {
		reason, _ := room.ReasonOf(err)
		s.send(Frame{Type: MsgTypeError, Reason: string(reason)})
		return
	}
	netplay.AnnounceStart(ctx, s.srv.bus, s.roomID, s.client.playerID)
	s.startMatch(ctx)
}

func (s *Session) apply(ctx context.Context, a game.Action) {
	if !a.Valid() || s.match.Status() != game.StatusPlaying {
		return
	}
	if s.coop != nil {
		s.coop.Local(ctx, s.match, a)
	} else {
		s.match.Apply(a)
	}
	s.flush(ctx)
}

func (s *Session) handleBus(ctx context.Context, msg netplay.Message) {
	if s.match.Status() == game.StatusIdle {
		if msg.Event == netplay.EventGameStart && msg.From != s.client.playerID {
			s.startMatch(ctx)
		}
		return
	}

	switch {
	case s.versus != nil:
		eff := s.versus.Receive(ctx, s.match, msg)
		if eff.OpponentChanged {
			if opp, ok := s.versus.Opponent(); ok {
				s.send(Frame{Type: MsgTypeOpponent, Opponent: &opp})
			}
		}
	case s.coop != nil:
		s.coop.Receive(s.match, msg)
	}
	s.flush(ctx)
}

// handleStatus reacts to a room status change and reports whether the
// session is over.
func (s *Session) handleStatus(ctx context.Context, st room.Status) bool {
	s.send(Frame{Type: MsgTypeRoom, Status: st})

	switch st {
	case room.StatusPlaying:
		s.startMatch(ctx)
	case room.StatusFinished:
		switch s.match.Status() {
		case game.StatusIdle:
			s.sendExpired(&room.RefusalError{RoomID: s.roomID, Reason: room.ReasonExpired})
			return true
		case game.StatusPlaying:
			if s.versus != nil {
				s.versus.Forfeit(s.match)
			} else {
				s.match.ForceGameOver()
			}
			s.flush(ctx)
		}
	}
	return false
}

// disconnect releases the room when the client goes away.
func (s *Session) disconnect(ctx context.Context) {
	log.Printf("[SESSION] %s disconnected", s.client.playerID)
	if !s.multiplayer() {
		return
	}
	switch s.match.Status() {
	case game.StatusIdle:
		s.srv.finisher.LeaveWaiting(ctx, s.roomID, s.client.playerID)
	case game.StatusPlaying:
		s.srv.finisher.MarkFinished(ctx, s.roomID, s.client.playerID)
	}
}

func (s *Session) sendExpired(err error) {
	reason, ok := room.ReasonOf(err)
	if !ok {
		log.Printf("[SESSION] room %s unavailable: %v", s.roomID, err)
		reason = "unavailable"
	}
	s.send(Frame{Type: MsgTypeExpired, Reason: string(reason)})
}

func (s *Session) send(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Printf("[SESSION] encode %s frame: %v", f.Type, err)
		return
	}
	select {
	case s.client.send <- data:
	default:
		log.Printf("[WS] send buffer full for %s, dropping %s", s.client.playerID, f.Type)
	}
}
