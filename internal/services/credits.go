package services

import (
	"context"
	"fmt"

	"mailproof/internal/models"
	"mailproof/internal/store"
	"mailproof/internal/utils/logger"
)

// CreditProvider reports the remaining balance held with the remote
// verification provider.
type CreditProvider interface {
	CreditBalance(ctx context.Context) (int, error)
}

// Balance is the credit summary for one owner: the provider-side remainder
// plus local aggregates over the append-only ledger.
type Balance struct {
	Remaining  int   `json:"credits_remaining"`
	Used       int64 `json:"credits_consumed"`
	Purchased  int64 `json:"credits_purchased"`
	TotalLists int64 `json:"total_count_of_email_lists"`
}

// CreditService exposes the append-only credit ledger. Entries are never
// updated in place; balances are recomputed by aggregation so history
// supports audit and replay.
type CreditService struct {
	records  store.RecordStore
	lists    store.ListStore
	provider CreditProvider
	log      *logger.Logger
}

func NewCreditService(records store.RecordStore, lists store.ListStore, creditProvider CreditProvider) *CreditService {
	return &CreditService{
		records:  records,
		lists:    lists,
		provider: creditProvider,
		log:      logger.New("credit_service"),
	}
}

// Record appends a ledger entry for ownerID
func (s *CreditService) Record(ctx context.Context, ownerID string, source models.RecordSource, used, purchased int) (*models.VerificationRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidArgument)
	}
	if used < 0 || purchased < 0 {
		return nil, fmt.Errorf("%w: credit amounts cannot be negative", ErrInvalidArgument)
	}

	record := &models.VerificationRecord{
		UserID:           ownerID,
		Source:           source,
		CreditsUsed:      used,
		CreditsPurchased: purchased,
	}
	if err := s.records.Append(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Balance aggregates the owner's non-deleted ledger rows and combines them
// with the remotely reported remaining balance.
func (s *CreditService) Balance(ctx context.Context, ownerID string) (*Balance, error) {
	remaining, err := s.provider.CreditBalance(ctx)
	if err != nil {
		return nil, err
	}

	used, purchased, err := s.records.Aggregate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	totalLists, err := s.lists.ActiveCount(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Credit balance for %s: used=%d purchased=%d remaining=%d", ownerID, used, purchased, remaining)
	return &Balance{
		Remaining:  remaining,
		Used:       used,
		Purchased:  purchased,
		TotalLists: totalLists,
	}, nil
}
