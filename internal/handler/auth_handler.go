package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bancodigital/banca-api/internal/domain"
	"github.com/bancodigital/banca-api/internal/middleware"
	"github.com/bancodigital/banca-api/internal/session"
)

// Authenticator defines the account operations used by AuthHandler.
type Authenticator interface {
	Authenticate(ctx context.Context, accountNumber, pin string) (*domain.Account, error)
}

// SessionWriter defines the session store operations used by AuthHandler.
type SessionWriter interface {
	Put(ctx context.Context, id string, record *session.Record) error
	Revoke(ctx context.Context, id string) error
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	accounts  Authenticator
	sessions  SessionWriter
	jwtSecret []byte
	tokenTTL  time.Duration
}

type LoginRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required,len=14,numeric"`
	PIN           string `json:"pin" validate:"required,len=4,numeric"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Account AccountResponse `json:"account"`
}

func NewAuthHandler(accounts Authenticator, sessions SessionWriter, jwtSecret []byte, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.accounts.Authenticate(c.Request.Context(), req.AccountNumber, req.PIN)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			middleware.RespondWithError(c, http.StatusUnauthorized, "Incorrect account number or PIN")
			return
		}
		log.Printf("login failed: %v", err)
		middleware.RespondWithError(c, http.StatusBadGateway, "Could not reach the banking backend")
		return
	}

	sessionID := uuid.New().String()
	record := &session.Record{
		AccountID:     account.ID,
		HolderID:      account.HolderID,
		AccountNumber: account.Number,
	}
	if err := h.sessions.Put(c.Request.Context(), sessionID, record); err != nil {
		log.Printf("failed to store session: %v", err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to start session")
		return
	}

	token, err := middleware.NewToken(h.jwtSecret, sessionID, record, h.tokenTTL)
	if err != nil {
		log.Printf("failed to sign token: %v", err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to start session")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, Account: toAccountResponse(account)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not logged in")
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), sessionID); err != nil {
		log.Printf("failed to revoke session %s: %v", sessionID, err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to end session")
		return
	}
	c.Status(http.StatusNoContent)
}
