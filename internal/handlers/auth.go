package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/pliu/taskchat/internal/auth"
	"github.com/pliu/taskchat/internal/models"
	"github.com/pliu/taskchat/internal/store"
)

const minPasswordLen = 8

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenIssuer is the signing side of the token manager.
type TokenIssuer interface {
	Issue(userID int) (string, error)
	TTL() time.Duration
}

type AuthHandler struct {
	Store  store.Store
	Tokens TokenIssuer
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	var fields []fieldError
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 255 {
		fields = append(fields, fieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(creds.Password) < minPasswordLen {
		fields = append(fields, fieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if len(fields) > 0 {
		respondDetail(w, http.StatusBadRequest, fields)
		return
	}

	hashed, err := auth.HashPassword(creds.Password)
	if err != nil {
		log.Printf("hash password: %v", err)
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &models.User{Email: email, HashedPassword: hashed}
	if err := h.Store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			respondDetail(w, http.StatusConflict, "Email already registered")
			return
		}
		log.Printf("create user: %v", err)
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.issueCookie(w, user.ID); err != nil {
		log.Printf("issue token: %v", err)
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	user, err := h.Store.GetUserByEmail(email)
	// Unknown email and wrong password produce the exact same response so
	// that login cannot be used to probe which emails are registered.
	if err != nil || !auth.CheckPassword(creds.Password, user.HashedPassword) {
		respondDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.issueCookie(w, user.ID); err != nil {
		log.Printf("issue token: %v", err)
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Logout clears the cookie and always succeeds, token or not. The token
// itself stays valid until expiry; there is no server-side revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *AuthHandler) issueCookie(w http.ResponseWriter, userID int) error {
	token, err := h.Tokens.Issue(userID)
	if err != nil {
		return err
	}
	auth.SetTokenCookie(w, token, int(h.Tokens.TTL().Seconds()))
	return nil
}
