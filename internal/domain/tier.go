package domain

import (
	"fmt"
	"strings"
)

// Tier уровень подписки автора
type Tier string

const (
	TierBasic   Tier = "basic"
	TierMedium  Tier = "medium"
	TierPremium Tier = "premium"
)

// DefaultCurrency валюта всех платежей
const DefaultCurrency = "eur"

// ParseTier разбирает строковое значение тарифа
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierBasic:
		return TierBasic, nil
	case TierMedium:
		return TierMedium, nil
	case TierPremium:
		return TierPremium, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

// IsPaid сообщает, требует ли тариф оплаты
func (t Tier) IsPaid() bool {
	return t == TierMedium || t == TierPremium
}

// MonthlyLimit возвращает лимит публикаций в месяц; ok=false означает безлимит
func (t Tier) MonthlyLimit() (limit int, ok bool) {
	switch t {
	case TierBasic:
		return 2, true
	case TierMedium:
		return 10, true
	default:
		return 0, false
	}
}

// Priority вес тарифа в публичной выдаче
func (t Tier) Priority() int {
	switch t {
	case TierPremium:
		return 3
	case TierMedium:
		return 2
	case TierBasic:
		return 1
	default:
		return 0
	}
}

// BoostedPriority вес продвинутого материала, выше любого тарифа
const BoostedPriority = 4

// ListingPriority вычисляет приоритет материала в выдаче.
// tier == nil означает отсутствие действующей подписки.
func ListingPriority(boosted bool, tier *Tier) int {
	if boosted {
		return BoostedPriority
	}
	if tier == nil {
		return 0
	}
	return tier.Priority()
}

// Plan цена и ссылка на цену у платежного провайдера для тарифа
type Plan struct {
	Tier     Tier
	Price    int64 // в минимальных единицах валюты
	Currency string
	PriceRef string // пусто для бесплатного тарифа
}

// PlanCatalog каталог тарифов и цены продвижения
type PlanCatalog struct {
	plans      map[Tier]Plan
	BoostPrice int64
}

// NewPlanCatalog собирает каталог; пустые цены заменяются значениями по умолчанию
func NewPlanCatalog(mediumPrice, premiumPrice, boostPrice int64, mediumRef, premiumRef string) PlanCatalog {
	if mediumPrice <= 0 {
		mediumPrice = 200
	}
	if premiumPrice <= 0 {
		premiumPrice = 1000
	}
	if boostPrice <= 0 {
		boostPrice = 500
	}
	return PlanCatalog{
		plans: map[Tier]Plan{
			TierBasic:   {Tier: TierBasic, Price: 0, Currency: DefaultCurrency},
			TierMedium:  {Tier: TierMedium, Price: mediumPrice, Currency: DefaultCurrency, PriceRef: mediumRef},
			TierPremium: {Tier: TierPremium, Price: premiumPrice, Currency: DefaultCurrency, PriceRef: premiumRef},
		},
		BoostPrice: boostPrice,
	}
}

// DefaultPlanCatalog каталог со стандартными ценами
func DefaultPlanCatalog() PlanCatalog {
	return NewPlanCatalog(0, 0, 0, "", "")
}

// Plan возвращает описание тарифа
func (c PlanCatalog) Plan(t Tier) (Plan, error) {
	p, ok := c.plans[t]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrInvalidTier, t)
	}
	return p, nil
}
