package memory

import (
	"context"
	"strings"

	"github.com/Dhoini/publishing-platform/internal/domain"
)

type authorRepo struct {
	s *Store
}

// Create сохраняет автора; email уникален без учета регистра
func (r *authorRepo) Create(_ context.Context, author *domain.Author) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.authors {
		if strings.EqualFold(existing.Email, author.Email) {
			return domain.NewDuplicateError("author", "email", author.Email)
		}
	}

	r.s.data.authorSeq++
	author.ID = r.s.data.authorSeq
	r.s.data.authors[author.ID] = *author
	return nil
}

func (r *authorRepo) GetByID(_ context.Context, id int64) (*domain.Author, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	author, ok := r.s.data.authors[id]
	if !ok {
		return nil, domain.NewNotFoundError("author", id)
	}
	return &author, nil
}

func (r *authorRepo) GetByEmail(_ context.Context, email string) (*domain.Author, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, author := range r.s.data.authors {
		if strings.EqualFold(author.Email, email) {
			a := author
			return &a, nil
		}
	}
	return nil, domain.NewNotFoundError("author", email)
}

// LockForUpdate в памяти транзакции уже эксклюзивны, достаточно проверить существование
func (r *authorRepo) LockForUpdate(ctx context.Context, id int64) error {
	if err := requireTx(ctx, "LockForUpdate"); err != nil {
		return err
	}
	_, err := r.GetByID(ctx, id)
	return err
}
