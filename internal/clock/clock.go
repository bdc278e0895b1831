// Package clock источник текущего времени для расчета месяцев, сроков действия и истечения подписок
package clock

import (
	"sync"
	"time"
)

// Clock текущий момент времени
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// New системные часы в UTC
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed часы с ручной установкой времени для тестов
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed часы, остановленные на t
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set переводит часы на t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.UTC()
	f.mu.Unlock()
}

// Advance сдвигает часы вперед на d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// MonthBounds полуинтервал [начало календарного месяца t, начало следующего месяца) в UTC
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// AddMonth t плюс один календарный месяц; переполнение дня переносится по правилам time.AddDate
func AddMonth(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}
