package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancodigital/banca-api/internal/domain"
)

// HolderResponse is the API shape of a holder.
type HolderResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FirstSurname  string `json:"firstSurname"`
	SecondSurname string `json:"secondSurname"`
	DNI           string `json:"dni"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

// AccountResponse is the API shape of an account. The PIN never appears
// in a response.
type AccountResponse struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	CCI           string          `json:"cci"`
	Balance       decimal.Decimal `json:"balance"`
	Holder        *HolderResponse `json:"holder,omitempty"`
}

// OperationResponse is the API shape of a ledger operation.
type OperationResponse struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
}

func toHolderResponse(holder *domain.Holder) *HolderResponse {
	if holder == nil {
		return nil
	}
	return &HolderResponse{
		ID:            holder.ID,
		Name:          holder.Name,
		FirstSurname:  holder.FirstSurname,
		SecondSurname: holder.SecondSurname,
		DNI:           holder.DNI,
		Email:         holder.Email,
		Phone:         holder.Phone,
	}
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:            account.ID,
		AccountNumber: account.Number,
		AccountType:   string(account.Type),
		CCI:           account.CCI,
		Balance:       account.Balance,
		Holder:        toHolderResponse(account.Holder),
	}
}

func toOperationResponse(operation *domain.Operation) OperationResponse {
	return OperationResponse{
		ID:        operation.ID,
		Timestamp: operation.Timestamp,
		Kind:      string(operation.Detail.Kind),
		Amount:    operation.Detail.Amount,
	}
}
