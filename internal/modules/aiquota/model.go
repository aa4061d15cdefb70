package aiquota

import "errors"

// ErrQuotaExhausted is returned when an employer has no AI-explanation
// credits remaining for the current month.
var ErrQuotaExhausted = errors.New("ai explanation quota exhausted")

// DefaultCredits is the number of explanation credits granted per month.
const DefaultCredits = 50
