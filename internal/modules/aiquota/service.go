package aiquota

import "context"

// Service orchestrates AI-explanation quota logic.
type Service struct {
	store *Store
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// UseCredit deducts one credit from the employer's monthly allowance.
// If the employer row does not exist yet it is initialised and the credit
// is immediately consumed. Returns ErrQuotaExhausted when the quota for
// the current month is exhausted.
func (s *Service) UseCredit(ctx context.Context, employerID string) error {
	err := s.store.UseCredit(ctx, employerID)
	if err != ErrQuotaExhausted {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureEmployer(ctx, employerID); initErr != nil {
		return initErr
	}
	return s.store.UseCredit(ctx, employerID)
}
