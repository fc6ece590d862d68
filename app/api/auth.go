package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/rbhz/zh-dictionary/app/db"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// JWTClaims custom claims with user id
type JWTClaims struct {
	User *int64 `json:"user"`
	jwt.StandardClaims
}

// AuthResponse response for authentication
type AuthResponse struct {
	Token string `json:"token"`
}

// Credentials is a sign up and token request body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authService implements methods for API authentication
type authService struct {
	storage   db.UserStorage
	jwtSecret []byte
	ttl       time.Duration
}

// createToken creates JWT token
func (s *authService) createToken(userID int64) (string, error) {
	now := time.Now().UTC()
	ttl := s.ttl
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		User: &userID,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			NotBefore: now.Unix(),
		},
	})
	tokenStr, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return tokenStr, nil
}

func decodeCredentials(r *http.Request) (Credentials, error) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return creds, errors.New("invalid JSON")
	}
	creds.Username = strings.TrimSpace(creds.Username)
	return creds, nil
}

// SignUp creates new user
func (s *authService) SignUp(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len([]rune(creds.Username)) < minUsernameLength || len(creds.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("username must have at least %d characters and password at least %d", minUsernameLength, minPasswordLength))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	user, err := s.storage.CreateUser(r.Context(), db.User{Username: creds.Username, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		log.Error().Err(err).Str("username", creds.Username).Msg("failed to create user")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	log.Info().Int64("user", int64(user.ID)).Msg("User signed up")
	writeJSON(w, http.StatusCreated, user)
}

// Token checks credentials and returns JWT token
func (s *authService) Token(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.storage.GetUserByName(r.Context(), creds.Username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		log.Error().Err(err).Str("username", creds.Username).Msg("failed to get user")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	token, err := s.createToken(int64(user.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to create token")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: token})
}

// UserCtx checks authorization token and adds user to context
func (s *authService) UserCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestToken := r.Header.Get("Authorization")
		if !strings.HasPrefix(requestToken, "Bearer ") {
			requestToken = ""
		}
		requestToken = strings.TrimPrefix(requestToken, "Bearer ")
		if requestToken == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		token, err := jwt.ParseWithClaims(requestToken, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return s.jwtSecret, nil
		})
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims := token.Claims.(*JWTClaims)
		if claims.User == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		now := time.Now().Unix()
		if claims.NotBefore > now || claims.ExpiresAt < now {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserIDKey, db.UserID(*claims.User))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns authenticated user id
func userFromContext(ctx context.Context) (db.UserID, bool) {
	userID, ok := ctx.Value(ctxUserIDKey).(db.UserID)
	return userID, ok
}
