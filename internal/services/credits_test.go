package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mailproof/internal/models"
)

func TestCreditService_Record(t *testing.T) {
	records := new(MockRecordStore)
	svc := NewCreditService(records, new(MockListStore), new(MockProvider))

	records.On("Append", mock.Anything, mock.MatchedBy(func(r *models.VerificationRecord) bool {
		return r.UserID == "owner-1" && r.Source == models.RecordSourcePurchase &&
			r.CreditsUsed == 0 && r.CreditsPurchased == 500
	})).Return(nil)

	record, err := svc.Record(context.Background(), "owner-1", models.RecordSourcePurchase, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 500, record.CreditsPurchased)
	records.AssertExpectations(t)
}

func TestCreditService_Record_RejectsNegativeAmounts(t *testing.T) {
	svc := NewCreditService(new(MockRecordStore), new(MockListStore), new(MockProvider))

	_, err := svc.Record(context.Background(), "owner-1", models.RecordSourceBulk, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Record(context.Background(), "", models.RecordSourceBulk, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreditService_Balance(t *testing.T) {
	records := new(MockRecordStore)
	lists := new(MockListStore)
	remote := new(MockProvider)
	svc := NewCreditService(records, lists, remote)

	remote.On("CreditBalance", mock.Anything).Return(4200, nil)
	records.On("Aggregate", mock.Anything, "owner-1").Return(int64(800), int64(5000), nil)
	lists.On("ActiveCount", mock.Anything, "owner-1").Return(int64(7), nil)

	balance, err := svc.Balance(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 4200, balance.Remaining)
	assert.Equal(t, int64(800), balance.Used)
	assert.Equal(t, int64(5000), balance.Purchased)
	assert.Equal(t, int64(7), balance.TotalLists)
}
