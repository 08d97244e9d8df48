// Package domain defines the banking entities as this client sees them.
// The JSON tags map each field to its column in the remote store; API
// responses use their own representations in the handler package.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the closed set of account types the backend accepts.
type AccountType string

const (
	AccountTypeSavings  AccountType = "AHORRO"
	AccountTypeChecking AccountType = "CORRIENTE"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeChecking
}

// Holder is the natural person who owns an account. DNI, email and phone
// are globally unique in the remote store. After creation only email and
// phone may change.
type Holder struct {
	ID            int64  `json:"idn_tit"`
	Name          string `json:"nom_tit"`
	FirstSurname  string `json:"fir_ape_tit"`
	SecondSurname string `json:"sec_ape_tit"`
	DNI           string `json:"dni_tit"`
	Email         string `json:"eml_tit"`
	Phone         string `json:"tlf_tit"`
}

// Account is a bank account record. Number is 14 digits, CCI 20 digits;
// both unique. The PIN column is never decoded: authentication filters on
// it remotely and no caller reads it. Holder is set on read projections
// that embed the titular row.
type Account struct {
	ID       int64           `json:"idn_cta"`
	HolderID int64           `json:"idn_tit"`
	Type     AccountType     `json:"tpo_cta"`
	Number   string          `json:"nro_cta"`
	CCI      string          `json:"cci_cta"`
	Balance  decimal.Decimal `json:"sld_cta"`
	Holder   *Holder         `json:"titular,omitempty"`
}

// OperationKind tags an operation as a deposit or a withdrawal.
type OperationKind string

const (
	OperationDeposit    OperationKind = "deposit"
	OperationWithdrawal OperationKind = "withdrawal"
)

// OperationDetail is the amount side of an operation. Every operation has
// exactly one detail, never both, never neither.
type OperationDetail struct {
	Kind   OperationKind   `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// Operation is an append-only ledger event belonging to a holder.
type Operation struct {
	ID        int64           `json:"id"`
	HolderID  int64           `json:"holderId"`
	Timestamp time.Time       `json:"timestamp"`
	Detail    OperationDetail `json:"detail"`
}
