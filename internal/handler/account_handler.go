package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bancodigital/banca-api/internal/domain"
	"github.com/bancodigital/banca-api/internal/middleware"
)

// AccountOperations defines the account service operations used by
// AccountHandler.
type AccountOperations interface {
	GetAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Operation, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Operation, error)
	History(ctx context.Context, accountID int64) ([]domain.Operation, error)
	UpdateContact(ctx context.Context, holderID int64, phone, email string) error
}

// AccountHandler serves the authenticated dashboard operations. The
// account identity comes from the session on every request; nothing is
// cached between calls.
type AccountHandler struct {
	accounts AccountOperations
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ContactRequest struct {
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type OperationsResponse struct {
	Operations []OperationResponse `json:"operations"`
}

func NewAccountHandler(accounts AccountOperations) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, _ := middleware.GetAccountID(c)

	account, err := h.accounts.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("failed to fetch account %d: %v", accountID, err)
		middleware.RespondWithError(c, http.StatusBadGateway, "Could not reach the banking backend")
		return
	}

	c.JSON(http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) Deposit(c *gin.Context) {
	accountID, _ := middleware.GetAccountID(c)

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Rejected before any remote call is issued.
	if !req.Amount.IsPositive() {
		middleware.RespondWithError(c, http.StatusBadRequest, "Amount must be greater than zero")
		return
	}

	operation, err := h.accounts.Deposit(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		h.respondOperationError(c, accountID, err)
		return
	}

	c.JSON(http.StatusCreated, toOperationResponse(operation))
}

func (h *AccountHandler) Withdraw(c *gin.Context) {
	accountID, _ := middleware.GetAccountID(c)

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		middleware.RespondWithError(c, http.StatusBadRequest, "Amount must be greater than zero")
		return
	}

	operation, err := h.accounts.Withdraw(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
			return
		}
		h.respondOperationError(c, accountID, err)
		return
	}

	c.JSON(http.StatusCreated, toOperationResponse(operation))
}

func (h *AccountHandler) History(c *gin.Context) {
	accountID, _ := middleware.GetAccountID(c)

	operations, err := h.accounts.History(c.Request.Context(), accountID)
	if err != nil {
		h.respondOperationError(c, accountID, err)
		return
	}

	responses := make([]OperationResponse, len(operations))
	for i := range operations {
		responses[i] = toOperationResponse(&operations[i])
	}
	c.JSON(http.StatusOK, OperationsResponse{Operations: responses})
}

func (h *AccountHandler) UpdateContact(c *gin.Context) {
	holderID, _ := middleware.GetHolderID(c)

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.accounts.UpdateContact(c.Request.Context(), holderID, req.Phone, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, "Holder not found")
		default:
			log.Printf("failed to update contact for holder %d: %v", holderID, err)
			middleware.RespondWithError(c, http.StatusBadGateway, "Could not reach the banking backend")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) respondOperationError(c *gin.Context, accountID int64, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}
	log.Printf("operation failed for account %d: %v", accountID, err)
	middleware.RespondWithError(c, http.StatusBadGateway, "Could not reach the banking backend")
}
