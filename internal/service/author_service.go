package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// LoginResult токен доступа и автор
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Author    *domain.Author `json:"author"`
}

// AuthorService регистрация и вход авторов
type AuthorService struct {
	store  repository.Store
	hasher PasswordHasher
	tokens TokenIssuer
	clock  clock.Clock
	log    *logger.Logger
}

// NewAuthorService создает сервис авторов
func NewAuthorService(store repository.Store, hasher PasswordHasher, tokens TokenIssuer, clk clock.Clock, log *logger.Logger) *AuthorService {
	return &AuthorService{store: store, hasher: hasher, tokens: tokens, clock: clk, log: log}
}

// Register создает активного автора вместе с бессрочной подпиской basic
func (s *AuthorService) Register(ctx context.Context, name, email, password string) (*domain.Author, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	author := &domain.Author{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Status:       domain.AuthorStatusActive,
		Role:         domain.RoleAuthor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.Authors().Create(ctx, author); err != nil {
			return err
		}
		from := now
		return s.store.Subscriptions().Create(ctx, &domain.Subscription{
			AuthorID:  author.ID,
			Tier:      domain.TierBasic,
			Status:    domain.SubscriptionStatusActive,
			ValidFrom: &from,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("register author: %w", err)
	}

	s.log.Infow("Author registered", "authorID", author.ID)
	return author, nil
}

// Login проверяет учетные данные и выпускает токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthorService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	author, err := s.store.Authors().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(author.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !author.CanAct() {
		return nil, domain.ErrAuthorInactive
	}

	token, expiresAt, err := s.tokens.Issue(author)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Author: author}, nil
}

// Get возвращает автора по ID
func (s *AuthorService) Get(ctx context.Context, id int64) (*domain.Author, error) {
	author, err := s.store.Authors().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get author %d: %w", id, err)
	}
	return author, nil
}
