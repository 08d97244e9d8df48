package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bancodigital/banca-api/internal/domain"
	"github.com/bancodigital/banca-api/internal/middleware"
	"github.com/bancodigital/banca-api/internal/service"
)

// Registrar defines the registration operations used by RegisterHandler.
type Registrar interface {
	Register(ctx context.Context, form service.RegisterForm) (*service.RegisteredAccount, error)
}

// RegisterHandler handles new holder and account registration.
type RegisterHandler struct {
	registrations Registrar
}

type RegisterResponse struct {
	Holder  *HolderResponse `json:"holder"`
	Account AccountResponse `json:"account"`
}

// FormErrorResponse reports every violated form field at once, keyed by
// field name, so the client can display all of them together.
type FormErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func NewRegisterHandler(registrations Registrar) *RegisterHandler {
	return &RegisterHandler{registrations: registrations}
}

func (h *RegisterHandler) Register(c *gin.Context) {
	var form service.RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if result := service.ValidateForm(form); !result.IsValid {
		c.JSON(http.StatusBadRequest, FormErrorResponse{
			Message: "Registration form is invalid",
			Errors:  result.Errors,
		})
		return
	}

	registered, err := h.registrations.Register(c.Request.Context(), form)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyRegistered):
			middleware.RespondWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrValidation):
			middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrGenerationExhausted):
			log.Printf("registration failed: %v", err)
			middleware.RespondWithError(c, http.StatusInternalServerError, "Could not allocate an account number")
		default:
			log.Printf("registration failed: %v", err)
			middleware.RespondWithError(c, http.StatusBadGateway, "Could not reach the banking backend")
		}
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Holder:  toHolderResponse(registered.Holder),
		Account: toAccountResponse(registered.Account),
	})
}
