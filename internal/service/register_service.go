package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bancodigital/banca-api/internal/domain"
	"github.com/bancodigital/banca-api/internal/postgrest"
)

const (
	accountNumberLength = 14
	cciLength           = 20

	// maxGenerateAttempts bounds unique-number generation. With 14
	// independently random digits a collision is negligible; the bound is
	// a safety net.
	maxGenerateAttempts = 10
)

var (
	dniPattern   = regexp.MustCompile(`^[0-9]{8}$`)
	phonePattern = regexp.MustCompile(`^[0-9]{7,15}$`)
	pinPattern   = regexp.MustCompile(`^[0-9]{4}$`)
)

// RegisterForm is the registration request as submitted by the client.
type RegisterForm struct {
	Nombre          string `json:"nombre"`
	PrimerApellido  string `json:"primerApellido"`
	SegundoApellido string `json:"segundoApellido"`
	DNI             string `json:"dni"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	PIN             string `json:"pin"`
	ConfirmPIN      string `json:"confirmPin"`
	TipoCuenta      string `json:"tipoCuenta"`
	SaldoInicial    string `json:"saldoInicial"`
}

// ValidationResult maps each violated field to its message. IsValid is
// true iff Errors is empty.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

// RegisteredAccount is the merged view returned after registration: the
// created account with the holder's fields denormalized onto it for
// immediate display.
type RegisteredAccount struct {
	Holder  *domain.Holder  `json:"holder"`
	Account *domain.Account `json:"account"`
}

// RegisterService wraps uniqueness checks, identifier generation and the
// two-step create-holder-then-create-account workflow.
type RegisterService struct {
	db *postgrest.Client
}

func NewRegisterService(db *postgrest.Client) *RegisterService {
	return &RegisterService{db: db}
}

// ValidateForm checks every field independently, so the caller can show
// all violations at once. Pure, no I/O.
func ValidateForm(form RegisterForm) ValidationResult {
	errs := map[string]string{}

	// Name length rules count runes, not bytes.
	if utf8.RuneCountInString(strings.TrimSpace(form.Nombre)) < 2 {
		errs["nombre"] = "Name must be at least 2 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(form.PrimerApellido)) < 2 {
		errs["primerApellido"] = "First surname must be at least 2 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(form.SegundoApellido)) < 2 {
		errs["segundoApellido"] = "Second surname must be at least 2 characters"
	}
	if !dniPattern.MatchString(form.DNI) {
		errs["dni"] = "DNI must be exactly 8 digits"
	}
	if !emailPattern.MatchString(form.Email) {
		errs["email"] = "Enter a valid email address"
	}
	if !phonePattern.MatchString(form.Telefono) {
		errs["telefono"] = "Phone must be 7 to 15 digits"
	}
	if !pinPattern.MatchString(form.PIN) {
		errs["pin"] = "PIN must be exactly 4 digits"
	}
	if form.PIN != form.ConfirmPIN {
		errs["confirmPin"] = "PINs do not match"
	}
	if !domain.AccountType(form.TipoCuenta).Valid() {
		errs["tipoCuenta"] = "Select a valid account type"
	}
	if form.SaldoInicial != "" {
		balance, err := decimal.NewFromString(form.SaldoInicial)
		if err != nil || balance.IsNegative() {
			errs["saldoInicial"] = "Initial balance must be a non-negative number"
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// GenerateAccountNumber returns a 14-digit account number. Each digit is
// independently uniform random; no checksum, no structure.
func GenerateAccountNumber() string {
	return randomDigits(accountNumberLength)
}

// GenerateCCI returns a 20-digit interbank routing code.
func GenerateCCI() string {
	return randomDigits(cciLength)
}

func randomDigits(length int) string {
	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(10))
		result[i] = byte('0' + num.Int64())
	}
	return string(result)
}

// generateUnique draws candidates from gen until exists reports one free,
// giving up after attempts tries.
func generateUnique(gen func() string, exists func(string) (bool, error), attempts int) (string, error) {
	for i := 0; i < attempts; i++ {
		candidate := gen()
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("gave up after %d attempts: %w", attempts, domain.ErrGenerationExhausted)
}

// exists probes one table for a row with column = value. The backend
// signals "no row" as an error code rather than an empty result; that
// specific code means free, everything else is a real fault.
func (s *RegisterService) exists(ctx context.Context, table, column string, value any) (bool, error) {
	var row map[string]any
	err := s.db.From(table).
		Select(column).
		Eq(column, value).
		Single().
		Get(ctx, &row)
	if err != nil {
		if errors.Is(err, postgrest.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	return true, nil
}

func (s *RegisterService) generateUniqueAccountNumber(ctx context.Context) (string, error) {
	return generateUnique(GenerateAccountNumber, func(candidate string) (bool, error) {
		return s.exists(ctx, tableAccounts, "nro_cta", candidate)
	}, maxGenerateAttempts)
}

// Register runs the registration pipeline: validate, three uniqueness
// checks, generate identifiers, create the holder, create the account.
// There is no single atomic commit; if the account insert fails, the
// just-created holder is deleted best-effort to avoid an orphan record.
func (s *RegisterService) Register(ctx context.Context, form RegisterForm) (*RegisteredAccount, error) {
	if result := ValidateForm(form); !result.IsValid {
		return nil, fmt.Errorf("registration form is invalid: %w", domain.ErrValidation)
	}

	if taken, err := s.exists(ctx, tableHolders, "dni_tit", form.DNI); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("DNI is already registered: %w", domain.ErrAlreadyRegistered)
	}
	if taken, err := s.exists(ctx, tableHolders, "eml_tit", form.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("email is already registered: %w", domain.ErrAlreadyRegistered)
	}
	if taken, err := s.exists(ctx, tableHolders, "tlf_tit", form.Telefono); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("phone is already registered: %w", domain.ErrAlreadyRegistered)
	}

	accountNumber, err := s.generateUniqueAccountNumber(ctx)
	if err != nil {
		return nil, err
	}
	cci := GenerateCCI()

	var holder domain.Holder
	err = s.db.From(tableHolders).Single().Insert(ctx, map[string]any{
		"nom_tit":     form.Nombre,
		"fir_ape_tit": form.PrimerApellido,
		"sec_ape_tit": form.SegundoApellido,
		"dni_tit":     form.DNI,
		"eml_tit":     form.Email,
		"tlf_tit":     form.Telefono,
	}, &holder)
	if err != nil {
		return nil, fmt.Errorf("failed to create holder: %w: %v", domain.ErrRemote, err)
	}

	initialBalance := decimal.Zero
	if form.SaldoInicial != "" {
		initialBalance, _ = decimal.NewFromString(form.SaldoInicial)
	}

	var account domain.Account
	err = s.db.From(tableAccounts).Single().Insert(ctx, map[string]any{
		"idn_tit": holder.ID,
		"tpo_cta": form.TipoCuenta,
		"nro_cta": accountNumber,
		"pin_cta": form.PIN,
		"cci_cta": cci,
		"sld_cta": initialBalance,
	}, &account)
	if err != nil {
		// Compensating delete, best effort: the holder insert already
		// committed remotely and must not be left orphaned.
		if delErr := s.db.From(tableHolders).Eq("idn_tit", holder.ID).Delete(ctx); delErr != nil {
			log.Printf("failed to delete holder %d after account creation failure: %v", holder.ID, delErr)
		}
		return nil, fmt.Errorf("failed to create account: %w: %v", domain.ErrRemote, err)
	}

	account.Holder = &holder
	return &RegisteredAccount{Holder: &holder, Account: &account}, nil
}
