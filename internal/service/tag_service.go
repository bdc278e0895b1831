package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// TagService управление метками
type TagService struct {
	tags  repository.TagRepository
	clock clock.Clock
	log   *logger.Logger
}

// NewTagService создает сервис меток
func NewTagService(store repository.Store, clk clock.Clock, log *logger.Logger) *TagService {
	return &TagService{tags: store.Tags(), clock: clk, log: log}
}

func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id int64) (*domain.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tag %d: %w", id, err)
	}
	return tag, nil
}

// Create создает метку; имя уникально
func (s *TagService) Create(ctx context.Context, name string) (*domain.Tag, error) {
	now := s.clock.Now()
	tag := &domain.Tag{Name: strings.TrimSpace(name), CreatedAt: now, UpdatedAt: now}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	s.log.Infow("Tag created", "tagID", tag.ID, "name", tag.Name)
	return tag, nil
}

// Update переименовывает метку, если на нее не ссылается ни один материал
func (s *TagService) Update(ctx context.Context, actor domain.Actor, id int64, name string) error {
	tag, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return err
	}
	tag.Name = strings.TrimSpace(name)
	tag.UpdatedAt = s.clock.Now()
	if err := s.tags.Update(ctx, tag); err != nil {
		return fmt.Errorf("update tag %d: %w", id, err)
	}
	return nil
}

// Delete удаляет метку, если на нее не ссылается ни один материал
func (s *TagService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if _, err := s.modifiable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.tags.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	s.log.Infow("Tag deleted", "tagID", id)
	return nil
}

func (s *TagService) modifiable(ctx context.Context, actor domain.Actor, id int64) (*domain.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tag %d: %w", id, err)
	}
	usage, err := s.tags.UsageCount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tag %d usage: %w", id, err)
	}
	if !domain.CanModifyTag(actor, tag, usage) {
		return nil, fmt.Errorf("tag %d: %w", id, domain.ErrTagInUse)
	}
	return tag, nil
}
