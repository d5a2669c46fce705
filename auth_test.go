package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Park-Jeong-Gil/tap-tap-burger/db"
)

func TestJWT_RoundTrip(t *testing.T) {
	jwtSecret = []byte("test-secret")

	token, err := generateJWT(db.Player{PlayerID: "p1", Nickname: "Chef"})
	if err != nil {
		t.Fatalf("generateJWT failed: %v", err)
	}
	claims, err := verifyJWT(token)
	if err != nil {
		t.Fatalf("verifyJWT failed: %v", err)
	}
	if claims.PlayerID != "p1" || claims.Nickname != "Chef" {
		t.Errorf("Unexpected claims %+v", claims)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	jwtSecret = []byte("one")
	token, _ := generateJWT(db.Player{PlayerID: "p1"})

	jwtSecret = []byte("two")
	if _, err := verifyJWT(token); err == nil {
		t.Error("Expected token signed with another secret to be rejected")
	}
}

func TestAuthenticate_QueryToken(t *testing.T) {
	jwtSecret = []byte("test-secret")
	token, _ := generateJWT(db.Player{PlayerID: "beacon"})

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r/leave?token="+token, nil)
	claims, err := authenticate(req)
	if err != nil || claims.PlayerID != "beacon" {
		t.Errorf("Expected query token to authenticate, got %+v, %v", claims, err)
	}

	if _, err := authenticate(httptest.NewRequest(http.MethodGet, "/", nil)); err == nil {
		t.Error("Expected missing token to fail")
	}
}

func TestGuestLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/guest", strings.NewReader(`{"nickname":"  Chef  "}`))
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var session UserSession
	json.NewDecoder(rec.Body).Decode(&session)
	if session.Nickname != "Chef" || session.ID == "" {
		t.Fatalf("Unexpected session %+v", session)
	}

	claims, err := verifyJWT(session.Token)
	if err != nil || claims.PlayerID != session.ID {
		t.Errorf("Token does not match session: %+v, %v", claims, err)
	}
	if p, _ := srv.scores.GetPlayer(context.Background(), session.ID); p == nil {
		t.Error("Expected guest to be saved")
	}
}

func TestGuestLogin_DefaultNickname(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/guest", nil))

	var session UserSession
	json.NewDecoder(rec.Body).Decode(&session)
	if !strings.HasPrefix(session.Nickname, "player") {
		t.Errorf("Expected generated nickname, got %q", session.Nickname)
	}
}

func TestGoogleLogin_DisabledWithoutCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	googleOauthConfig = nil

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
