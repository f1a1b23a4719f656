package membership

import "errors"

// Validation errors: malformed input, always recoverable by the caller.
var (
	ErrInvalidPhone      = errors.New("phone must be exactly 11 digits")
	ErrWeakPassword      = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrMissingAccountID  = errors.New("trading account id must be a non-empty number")
	ErrMissingField      = errors.New("required field missing")
	ErrInvalidPlatform   = errors.New("platform must be MT4 or MT5")
	ErrUnknownProduct    = errors.New("unknown product sku")
	ErrUnknownInviteCode = errors.New("unknown invitation code")
)

// Denial errors: the account tier does not allow the action.
var (
	ErrCapabilityDenied    = errors.New("capability not available for current tier")
	ErrInsufficientTier    = errors.New("activation requires tier L2 or above")
	ErrDowngradeNotAllowed = errors.New("product tier is below the current tier")
)

// Contract violations between the engine and its caller.
var (
	ErrInvalidTier       = errors.New("invalid tier")
	ErrUnknownCapability = errors.New("unknown capability")
)

var (
	validationErrors = []error{
		ErrInvalidPhone, ErrWeakPassword, ErrPasswordMismatch, ErrMissingAccountID,
		ErrMissingField, ErrInvalidPlatform, ErrUnknownProduct, ErrUnknownInviteCode,
	}
	deniedErrors   = []error{ErrCapabilityDenied, ErrInsufficientTier, ErrDowngradeNotAllowed}
	contractErrors = []error{ErrInvalidTier, ErrUnknownCapability}
)

// IsValidation reports whether err is caused by malformed input.
func IsValidation(err error) bool { return isAny(err, validationErrors) }

// IsDenied reports whether err is a tier-based refusal.
func IsDenied(err error) bool { return isAny(err, deniedErrors) }

// IsContractViolation reports whether err indicates a programming error.
func IsContractViolation(err error) bool { return isAny(err, contractErrors) }

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
