package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/db"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	googleOauthConfig *oauth2.Config
	oauthStateString  string
	jwtSecret         []byte
)

const tokenLifetime = 24 * time.Hour

type UserSession struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname"`
	Picture  string `json:"picture,omitempty"`
	Token    string `json:"token"`
}

type JWTClaims struct {
	PlayerID string `json:"player_id"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname"`
	Picture  string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// initAuth sets up token signing and, when credentials are present,
// Google sign-in. Guests can always play.
func initAuth(cfg Config) {
	if cfg.JWTSecret == "" {
		secret := make([]byte, 32)
		rand.Read(secret)
		jwtSecret = secret
		log.Println("Warning: JWT_SECRET not set, using randomly generated secret")
	} else {
		jwtSecret = []byte(cfg.JWTSecret)
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		log.Println("[AUTH] Google credentials not set, guest sign-in only")
		return
	}

	googleOauthConfig = &oauth2.Config{
		RedirectURL:  cfg.GoogleRedirectURL,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	b := make([]byte, 32)
	rand.Read(b)
	oauthStateString = base64.URLEncoding.EncodeToString(b)
}

// guestNickname mimics the client's default "player1234" names.
func guestNickname() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "player"
	}
	return fmt.Sprintf("player%04d", n.Int64())
}

func (s *Server) handleGuestLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Nickname string `json:"nickname"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	nickname := strings.TrimSpace(body.Nickname)
	if nickname == "" {
		nickname = guestNickname()
	}
	player := db.Player{PlayerID: uuid.NewString(), Nickname: nickname}
	if err := s.scores.SavePlayer(r.Context(), player); err != nil {
		log.Printf("[AUTH] ERROR: Failed to save guest %s: %v", player.PlayerID, err)
	}

	token, err := generateJWT(player)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_generation_failed")
		return
	}
	log.Printf("[AUTH] Guest signed in: %s (%s)", nickname, player.PlayerID)
	writeJSON(w, http.StatusOK, UserSession{ID: player.PlayerID, Nickname: nickname, Token: token})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if googleOauthConfig == nil {
		writeError(w, http.StatusNotFound, "google_sign_in_disabled")
		return
	}
	log.Printf("[AUTH] Google OAuth login initiated from IP: %s", r.RemoteAddr)
	url := googleOauthConfig.AuthCodeURL(oauthStateString, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if googleOauthConfig == nil {
		writeError(w, http.StatusNotFound, "google_sign_in_disabled")
		return
	}
	frontendURL := s.cfg.FrontendURL

	if r.FormValue("state") != oauthStateString {
		log.Printf("[AUTH] ERROR: Invalid OAuth state - potential CSRF attack from IP: %s", r.RemoteAddr)
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=invalid_state", frontendURL), http.StatusTemporaryRedirect)
		return
	}

	token, err := googleOauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Printf("[AUTH] ERROR: Code exchange failed: %s", err.Error())
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=exchange_failed", frontendURL), http.StatusTemporaryRedirect)
		return
	}

	userInfo, err := getUserInfo(r.Context(), token)
	if err != nil {
		log.Printf("[AUTH] ERROR: Failed to get user info: %s", err.Error())
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=userinfo_failed", frontendURL), http.StatusTemporaryRedirect)
		return
	}

	player := db.Player{
		PlayerID: "google-" + userInfo.ID,
		Nickname: userInfo.Name,
		Email:    userInfo.Email,
		Picture:  userInfo.Picture,
	}
	if err := s.scores.SavePlayer(r.Context(), player); err != nil {
		log.Printf("[AUTH] ERROR: Failed to save player %s: %v", player.PlayerID, err)
	}

	jwtToken, err := generateJWT(player)
	if err != nil {
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=token_generation_failed", frontendURL), http.StatusTemporaryRedirect)
		return
	}
	log.Printf("[AUTH] Redirecting user %s to frontend callback", userInfo.Email)
	http.Redirect(w, r, fmt.Sprintf("%s/auth/callback?token=%s", frontendURL, jwtToken), http.StatusTemporaryRedirect)
}

func getUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	resp, err := googleOauthConfig.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned %d", resp.StatusCode)
	}

	var userInfo GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}
	return &userInfo, nil
}

func generateJWT(p db.Player) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		PlayerID: p.PlayerID,
		Email:    p.Email,
		Nickname: p.Nickname,
		Picture:  p.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "tap-tap-burger",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		log.Printf("[AUTH] ERROR: Failed to sign JWT token: %s", err.Error())
		return "", err
	}
	return signed, nil
}

func verifyJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.PlayerID != "" {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// authenticate reads the bearer token, or the token query parameter for
// callers that cannot set headers (websocket, sendBeacon).
func authenticate(r *http.Request) (*JWTClaims, error) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		return nil, fmt.Errorf("no token provided")
	}
	return verifyJWT(tokenString)
}

func handleVerifySession(w http.ResponseWriter, r *http.Request) {
	claims, err := authenticate(r)
	if err != nil {
		log.Printf("[AUTH] ERROR: Session verification failed from IP: %s - %s", r.RemoteAddr, err.Error())
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	writeJSON(w, http.StatusOK, UserSession{
		ID:       claims.PlayerID,
		Email:    claims.Email,
		Nickname: claims.Nickname,
		Picture:  claims.Picture,
		Token:    strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	// With JWT, logout is handled client-side by removing the token
	log.Printf("[AUTH] Logout request from IP: %s", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}
