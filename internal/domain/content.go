package domain

import (
	"fmt"
	"time"
)

// ContentStatus статус материала
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// ParseContentStatus разбирает статус материала
func ParseContentStatus(s string) (ContentStatus, error) {
	switch ContentStatus(s) {
	case ContentStatusDraft, ContentStatusPublished, ContentStatusArchived:
		return ContentStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown content status %q", ErrInvalidInput, s)
}

// Article материал автора
type Article struct {
	ID                   int64         `json:"id" db:"id"`
	AuthorID             int64         `json:"author_id" db:"author_id"`
	Title                string        `json:"title" db:"title"`
	Body                 string        `json:"content" db:"content"`
	Status               ContentStatus `json:"status" db:"status"`
	PublishedAt          *time.Time    `json:"published_at,omitempty" db:"published_at"`
	BoostedAt            *time.Time    `json:"boosted_at,omitempty" db:"boosted_at"`
	BoostPaymentIntentID *string       `json:"-" db:"boost_transaction_id"`
	TagIDs               []int64       `json:"tag_ids" db:"-"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// IsBoosted продвинут ли материал
func (a *Article) IsBoosted() bool {
	return a.BoostedAt != nil
}

// IsPublished опубликован ли материал
func (a *Article) IsPublished() bool {
	return a.Status == ContentStatusPublished
}

// MarkBoosted фиксирует оплаченное продвижение
func (a *Article) MarkBoosted(paymentIntentID string, now time.Time) {
	ts := now
	ref := paymentIntentID
	a.BoostedAt = &ts
	a.BoostPaymentIntentID = &ref
	a.UpdatedAt = now
}

// ListedArticle материал в публичной выдаче вместе с вычисленным приоритетом
type ListedArticle struct {
	Article
	AuthorName string `json:"author_name"`
	Priority   int    `json:"priority"`
}

// ListingFilter параметры публичной выдачи
type ListingFilter struct {
	Status   *ContentStatus
	AuthorID *int64
	Title    string // частичное совпадение без учета регистра
	Boosted  *bool
	Limit    int
	Offset   int
}

const (
	DefaultListingLimit = 20
	MaxListingLimit     = 100
)

// Normalize приводит лимит и смещение к допустимым значениям
func (f ListingFilter) Normalize() ListingFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListingLimit
	}
	if f.Limit > MaxListingLimit {
		f.Limit = MaxListingLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ArticleInput данные для создания или обновления материала
type ArticleInput struct {
	Title  string
	Body   string
	Status ContentStatus
	TagIDs []int64
}

// ArticlePatch частичное обновление материала; nil - поле не меняется
type ArticlePatch struct {
	Title  *string
	Body   *string
	Status *ContentStatus
	TagIDs *[]int64
}

// Patch превращает полный ввод в обновление всех полей
func (in ArticleInput) Patch() ArticlePatch {
	title, body, status, tags := in.Title, in.Body, in.Status, in.TagIDs
	return ArticlePatch{Title: &title, Body: &body, Status: &status, TagIDs: &tags}
}
