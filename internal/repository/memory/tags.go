package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Dhoini/publishing-platform/internal/domain"
)

type tagRepo struct {
	s *Store
}

func (r *tagRepo) Create(_ context.Context, tag *domain.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUniqueLocked(tag); err != nil {
		return err
	}
	r.s.data.tagSeq++
	tag.ID = r.s.data.tagSeq
	r.s.data.tags[tag.ID] = *tag
	return nil
}

func (r *tagRepo) Update(_ context.Context, tag *domain.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.tags[tag.ID]; !ok {
		return domain.NewNotFoundError("tag", tag.ID)
	}
	if err := r.checkUniqueLocked(tag); err != nil {
		return err
	}
	r.s.data.tags[tag.ID] = *tag
	return nil
}

func (r *tagRepo) checkUniqueLocked(tag *domain.Tag) error {
	for id, existing := range r.s.data.tags {
		if id != tag.ID && strings.EqualFold(existing.Name, tag.Name) {
			return domain.NewDuplicateError("tag", "name", tag.Name)
		}
	}
	return nil
}

// Delete отклоняет удаление метки, на которую ссылаются материалы
func (r *tagRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.tags[id]; !ok {
		return domain.NewNotFoundError("tag", id)
	}
	if r.usageLocked(id) > 0 {
		return domain.ErrTagInUse
	}
	delete(r.s.data.tags, id)
	return nil
}

func (r *tagRepo) GetByID(_ context.Context, id int64) (*domain.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tag, ok := r.s.data.tags[id]
	if !ok {
		return nil, domain.NewNotFoundError("tag", id)
	}
	return &tag, nil
}

func (r *tagRepo) List(_ context.Context) ([]domain.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tags := make([]domain.Tag, 0, len(r.s.data.tags))
	for _, tag := range r.s.data.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (r *tagRepo) UsageCount(_ context.Context, id int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.usageLocked(id), nil
}

func (r *tagRepo) usageLocked(id int64) int {
	n := 0
	for _, a := range r.s.data.articles {
		for _, tagID := range a.TagIDs {
			if tagID == id {
				n++
				break
			}
		}
	}
	return n
}

func (r *tagRepo) Missing(_ context.Context, ids []int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var missing []int64
	for _, id := range ids {
		if _, ok := r.s.data.tags[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
