// Package service holds the account and registration workflows. Each
// operation is a strictly ordered chain of remote calls with no local
// transaction wrapping; the backend is the only source of truth and every
// read is a fresh fetch.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancodigital/banca-api/internal/domain"
	"github.com/bancodigital/banca-api/internal/postgrest"
)

// Remote schema names.
const (
	tableHolders    = "titular"
	tableAccounts   = "cuenta_bancaria"
	tableOperations = "operacion"
	tableDeposits   = "deposito"
	tableWithdraws  = "retiro"

	rpcIncrementBalance = "actualizar_saldo_deposito"
	rpcDecrementBalance = "actualizar_saldo_retiro"

	accountProjection   = "*, titular:titular(*)"
	operationProjection = "*, deposito(*), retiro(*)"
)

var (
	contactPhonePattern = regexp.MustCompile(`^[0-9]{9,15}$`)
	emailPattern        = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// AccountService wraps authentication, balance queries, deposits,
// withdrawals, history retrieval and contact updates.
type AccountService struct {
	db *postgrest.Client
}

func NewAccountService(db *postgrest.Client) *AccountService {
	return &AccountService{db: db}
}

// accountRef is the minimal projection used to resolve an account before a
// mutation.
type accountRef struct {
	HolderID int64           `json:"idn_tit"`
	Balance  decimal.Decimal `json:"sld_cta"`
}

// operationRow is the remote shape of an operation, with its optional
// embedded detail rows.
type operationRow struct {
	ID        int64     `json:"idn_ope"`
	HolderID  int64     `json:"idn_tit"`
	Timestamp time.Time `json:"fch_ope"`
	Deposit   *struct {
		Amount decimal.Decimal `json:"mnt_dep"`
	} `json:"deposito"`
	Withdrawal *struct {
		Amount decimal.Decimal `json:"mnt_ret"`
	} `json:"retiro"`
}

// Authenticate looks up the unique account matching both the number and
// the PIN, with its holder embedded. Zero or ambiguous matches are invalid
// credentials, not a distinct failure. Inputs are pre-validated by the
// caller; no format check happens here, and there is no lockout.
func (s *AccountService) Authenticate(ctx context.Context, accountNumber, pin string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.From(tableAccounts).
		Select(accountProjection).
		Eq("nro_cta", accountNumber).
		Eq("pin_cta", pin).
		Single().
		Get(ctx, &account)
	if err != nil {
		if errors.Is(err, postgrest.ErrNoRows) {
			return nil, fmt.Errorf("incorrect account number or PIN: %w", domain.ErrAuthentication)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	return &account, nil
}

// GetAccount refetches the full account and holder projection. Callers use
// this to refresh state after a mutation; there is no push mechanism.
func (s *AccountService) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	var account domain.Account
	err := s.db.From(tableAccounts).
		Select(accountProjection).
		Eq("idn_cta", accountID).
		Single().
		Get(ctx, &account)
	if err != nil {
		if errors.Is(err, postgrest.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", accountID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	return &account, nil
}

// Deposit records a deposit operation and asks the backend to increment
// the balance. Amount > 0 is the caller's precondition. The four remote
// steps are sequential and not transactional: a failure partway through
// leaves partial state behind.
func (s *AccountService) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Operation, error) {
	ref, err := s.resolveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	operation, err := s.createOperation(ctx, ref.HolderID)
	if err != nil {
		return nil, err
	}
	err = s.db.From(tableDeposits).Insert(ctx, map[string]any{
		"idn_ope": operation.ID,
		"mnt_dep": amount,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w: %v", domain.ErrRemote, err)
	}
	err = s.db.Rpc(ctx, rpcIncrementBalance, map[string]any{
		"p_idn_tit": ref.HolderID,
		"p_monto":   amount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w: %v", domain.ErrRemote, err)
	}

	operation.Detail = domain.OperationDetail{Kind: domain.OperationDeposit, Amount: amount}
	return operation, nil
}

// Withdraw mirrors Deposit with a withdrawal detail and the decrement
// procedure. The freshly fetched balance is checked here; the caller's
// earlier check against its own view of the balance does not count.
func (s *AccountService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Operation, error) {
	ref, err := s.resolveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if ref.Balance.LessThan(amount) {
		return nil, fmt.Errorf("balance %s is less than %s: %w", ref.Balance, amount, domain.ErrInsufficientFunds)
	}

	operation, err := s.createOperation(ctx, ref.HolderID)
	if err != nil {
		return nil, err
	}
	err = s.db.From(tableWithdraws).Insert(ctx, map[string]any{
		"idn_ope": operation.ID,
		"mnt_ret": amount,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to record withdrawal: %w: %v", domain.ErrRemote, err)
	}
	err = s.db.Rpc(ctx, rpcDecrementBalance, map[string]any{
		"p_idn_tit": ref.HolderID,
		"p_monto":   amount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w: %v", domain.ErrRemote, err)
	}

	operation.Detail = domain.OperationDetail{Kind: domain.OperationWithdrawal, Amount: amount}
	return operation, nil
}

// History returns every operation for the account's holder, newest first,
// as a fresh snapshot. A repeat call re-fetches from scratch.
func (s *AccountService) History(ctx context.Context, accountID int64) ([]domain.Operation, error) {
	ref, err := s.resolveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var rows []operationRow
	err = s.db.From(tableOperations).
		Select(operationProjection).
		Eq("idn_tit", ref.HolderID).
		Order("fch_ope", false).
		Get(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}

	operations := make([]domain.Operation, 0, len(rows))
	for _, row := range rows {
		operation, err := row.toOperation()
		if err != nil {
			return nil, err
		}
		operations = append(operations, operation)
	}
	return operations, nil
}

// UpdateContact changes the holder's phone and email, the only mutable
// holder fields. Both values are validated before any remote call.
func (s *AccountService) UpdateContact(ctx context.Context, holderID int64, phone, email string) error {
	if !contactPhonePattern.MatchString(phone) {
		return fmt.Errorf("phone must be 9 to 15 digits: %w", domain.ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("email address is not valid: %w", domain.ErrValidation)
	}

	err := s.db.From(tableHolders).
		Eq("idn_tit", holderID).
		Update(ctx, map[string]any{
			"tlf_tit": phone,
			"eml_tit": email,
		})
	if err != nil {
		if errors.Is(err, postgrest.ErrNoRows) {
			return fmt.Errorf("holder %d: %w", holderID, domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	return nil
}

func (s *AccountService) resolveAccount(ctx context.Context, accountID int64) (*accountRef, error) {
	var ref accountRef
	err := s.db.From(tableAccounts).
		Select("sld_cta, idn_tit").
		Eq("idn_cta", accountID).
		Single().
		Get(ctx, &ref)
	if err != nil {
		if errors.Is(err, postgrest.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", accountID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	return &ref, nil
}

func (s *AccountService) createOperation(ctx context.Context, holderID int64) (*domain.Operation, error) {
	var created struct {
		ID        int64     `json:"idn_ope"`
		HolderID  int64     `json:"idn_tit"`
		Timestamp time.Time `json:"fch_ope"`
	}
	err := s.db.From(tableOperations).
		Single().
		Insert(ctx, map[string]any{"idn_tit": holderID}, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation: %w: %v", domain.ErrRemote, err)
	}
	return &domain.Operation{
		ID:        created.ID,
		HolderID:  created.HolderID,
		Timestamp: created.Timestamp,
	}, nil
}

// toOperation converts the loose remote row into the tagged domain shape,
// enforcing exactly one detail per operation.
func (r operationRow) toOperation() (domain.Operation, error) {
	operation := domain.Operation{
		ID:        r.ID,
		HolderID:  r.HolderID,
		Timestamp: r.Timestamp,
	}
	switch {
	case r.Deposit != nil && r.Withdrawal != nil:
		return domain.Operation{}, fmt.Errorf("operation %d has both deposit and withdrawal details: %w", r.ID, domain.ErrRemote)
	case r.Deposit != nil:
		operation.Detail = domain.OperationDetail{Kind: domain.OperationDeposit, Amount: r.Deposit.Amount}
	case r.Withdrawal != nil:
		operation.Detail = domain.OperationDetail{Kind: domain.OperationWithdrawal, Amount: r.Withdrawal.Amount}
	default:
		return domain.Operation{}, fmt.Errorf("operation %d has no detail record: %w", r.ID, domain.ErrRemote)
	}
	return operation, nil
}
