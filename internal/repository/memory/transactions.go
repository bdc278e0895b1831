package memory

import (
	"context"
	"sort"

	"github.com/Dhoini/publishing-platform/internal/domain"
)

type transactionRepo struct {
	s *Store
}

func (r *transactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.authors[tx.AuthorID]; !ok {
		return domain.NewNotFoundError("author", tx.AuthorID)
	}
	for _, existing := range r.s.data.transactions {
		if existing.StripePaymentID == tx.StripePaymentID {
			return domain.NewDuplicateError("transaction", "stripe_payment_id", tx.StripePaymentID)
		}
	}
	if tx.Currency == "" {
		tx.Currency = domain.DefaultCurrency
	}

	r.s.data.transactionSeq++
	tx.ID = r.s.data.transactionSeq
	r.s.data.transactions[tx.ID] = *tx
	return nil
}

func (r *transactionRepo) GetByStripePaymentID(_ context.Context, paymentID string) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, tx := range r.s.data.transactions {
		if tx.StripePaymentID == paymentID {
			found := tx
			return &found, nil
		}
	}
	return nil, domain.NewNotFoundError("transaction", paymentID)
}

func (r *transactionRepo) ListByAuthor(_ context.Context, authorID int64) ([]domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	txs := make([]domain.Transaction, 0)
	for _, tx := range r.s.data.transactions {
		if tx.AuthorID == authorID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}
