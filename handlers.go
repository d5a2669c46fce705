package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/Park-Jeong-Gil/tap-tap-burger/db"
	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
	"github.com/Park-Jeong-Gil/tap-tap-burger/netplay"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
	"github.com/gorilla/mux"
)

const (
	defaultLeaderboardSize = 50
	maxLeaderboardSize     = 100
)

// refusalStatus maps room refusals to HTTP codes.
var refusalStatus = map[room.Reason]int{
	room.ReasonNotFound:   http.StatusNotFound,
	room.ReasonExpired:    http.StatusGone,
	room.ReasonRoomFull:   http.StatusConflict,
	room.ReasonNotWaiting: http.StatusConflict,
	room.ReasonNotReady:   http.StatusConflict,
	room.ReasonNotHost:    http.StatusForbidden,
	room.ReasonNotMember:  http.StatusForbidden,
}

func writeRoomError(w http.ResponseWriter, err error) {
	if reason, ok := room.ReasonOf(err); ok {
		writeError(w, refusalStatus[reason], string(reason))
		return
	}
	log.Printf("[ROOM] ERROR: %v", err)
	writeError(w, http.StatusInternalServerError, "room_unavailable")
}

// requirePlayer authenticates the request or writes a 401.
func requirePlayer(w http.ResponseWriter, r *http.Request) (*JWTClaims, bool) {
	claims, err := authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	return claims, true
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	claims, ok := requirePlayer(w, r)
	if !ok {
		return
	}
	var body struct {
		Mode game.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || (body.Mode != game.ModeCoop && body.Mode != game.ModeVersus) {
		writeError(w, http.StatusBadRequest, "mode must be coop or versus")
		return
	}

	rm, err := s.lobby.Create(r.Context(), body.Mode, room.Player{ID: claims.PlayerID, Nickname: claims.Nickname})
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rm)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := s.lobby.Info(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	claims, ok := requirePlayer(w, r)
	if !ok {
		return
	}
	rm, err := s.lobby.Join(r.Context(), mux.Vars(r)["id"], room.Player{ID: claims.PlayerID, Nickname: claims.Nickname})
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	claims, ok := requirePlayer(w, r)
	if !ok {
		return
	}
	body := struct {
		Ready *bool `json:"ready"`
	}{}
	json.NewDecoder(r.Body).Decode(&body)
	ready := body.Ready == nil || *body.Ready

	rm, err := s.lobby.SetReady(r.Context(), mux.Vars(r)["id"], claims.PlayerID, ready)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleStartRoom(w http.ResponseWriter, r *http.Request) {
	claims, ok := requirePlayer(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	rm, err := s.lobby.Start(r.Context(), id, claims.PlayerID)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	netplay.AnnounceStart(r.Context(), s.bus, id, claims.PlayerID)
	writeJSON(w, http.StatusOK, rm)
}

// handleLeaveRoom is sent from page unload, so it answers at once and
// lets the finisher deliver the write.
func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	claims, ok := requirePlayer(w, r)
	if !ok {
		return
	}
	s.finisher.LeaveWaiting(r.Context(), mux.Vars(r)["id"], claims.PlayerID)
	w.WriteHeader(http.StatusAccepted)
}

// handleFinishRoom is also sent from page unload. Only members may end a
// room, since a finished room reads as a forfeit to whoever is still in it.
func (s *Server) handleFinishRoom(w http.ResponseWriter, r *http.Request) {
	claims, ok := requirePlayer(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	rm, err := s.lobby.Info(r.Context(), id)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	if _, ok := rm.Member(claims.PlayerID); !ok {
		writeError(w, http.StatusForbidden, string(room.ReasonNotMember))
		return
	}
	s.finisher.MarkFinished(r.Context(), id, claims.PlayerID)
	w.WriteHeader(http.StatusAccepted)
}

// leaderboardRange reads from/to, defaulting to the first page and
// capping the page size.
func leaderboardRange(r *http.Request) (int, int) {
	from, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil || from < 0 {
		from = 0
	}
	to, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil || to < from {
		to = from + defaultLeaderboardSize - 1
	}
	if to-from+1 > maxLeaderboardSize {
		to = from + maxLeaderboardSize - 1
	}
	return from, to
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	mode := game.Mode(mux.Vars(r)["mode"])
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	from, to := leaderboardRange(r)

	if mode == game.ModeCoop {
		teams, err := s.scores.GetTeamLeaderboard(r.Context(), from, to)
		if err != nil {
			log.Printf("[DB] Error loading team leaderboard: %v", err)
			writeError(w, http.StatusInternalServerError, "leaderboard_unavailable")
			return
		}
		writeJSON(w, http.StatusOK, teams)
		return
	}

	entries, err := s.scores.GetLeaderboard(r.Context(), string(mode), from, to)
	if err != nil {
		log.Printf("[DB] Error loading %s leaderboard: %v", mode, err)
		writeError(w, http.StatusInternalServerError, "leaderboard_unavailable")
		return
	}
	if entries == nil {
		entries = []db.ScoreEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMyScore(w http.ResponseWriter, r *http.Request) {
	claims, ok := requirePlayer(w, r)
	if !ok {
		return
	}
	mode := game.Mode(mux.Vars(r)["mode"])
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}

	best, err := s.scores.GetBestScore(r.Context(), claims.PlayerID, string(mode))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scores_unavailable")
		return
	}
	if best == nil {
		writeError(w, http.StatusNotFound, "no_score")
		return
	}
	writeJSON(w, http.StatusOK, best)
}
