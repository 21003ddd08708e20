package channelsync

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

func price(amount string, active *bool, start, end *time.Time, createdAt time.Time) models.ProductPrice {
	d, _ := decimal.NewFromString(amount)
	return models.ProductPrice{Amount: d, Active: active, StartDate: start, EndDate: end, CreatedAt: createdAt}
}

func tp(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestFindActivePrice(t *testing.T) {
	now := time.Now()

	t.Run("no active rows", func(t *testing.T) {
		prices := []models.ProductPrice{
			price("10.00", utils.NewFalse(), nil, nil, now),
		}
		if got := findActivePrice(prices); got != nil {
			t.Fatalf("expected nil, got %v", got.Amount)
		}
	})

	t.Run("latest start date wins", func(t *testing.T) {
		prices := []models.ProductPrice{
			price("10.00", nil, tp(-48*time.Hour), nil, now),
			price("12.50", nil, tp(-1*time.Hour), nil, now),
			price("15.00", nil, tp(24*time.Hour), nil, now),
		}
		got := findActivePrice(prices)
		if got == nil || got.Amount.String() != "12.5" {
			t.Fatalf("expected 12.5, got %v", got)
		}
	})

	t.Run("expired window excluded", func(t *testing.T) {
		prices := []models.ProductPrice{
			price("9.00", nil, tp(-48*time.Hour), tp(-24*time.Hour), now),
			price("11.00", nil, nil, nil, now),
		}
		got := findActivePrice(prices)
		if got == nil || got.Amount.String() != "11" {
			t.Fatalf("expected 11, got %v", got)
		}
	})

	t.Run("nil dates treated as open window", func(t *testing.T) {
		prices := []models.ProductPrice{
			price("20.00", utils.NewTrue(), nil, nil, now),
		}
		got := findActivePrice(prices)
		if got == nil || got.Amount.String() != "20" {
			t.Fatalf("expected 20, got %v", got)
		}
	})

	t.Run("no window covers now falls back to newest active", func(t *testing.T) {
		prices := []models.ProductPrice{
			price("8.00", nil, tp(24*time.Hour), nil, now.Add(-2*time.Hour)),
			price("9.50", nil, tp(48*time.Hour), nil, now),
		}
		got := findActivePrice(prices)
		if got == nil || got.Amount.String() != "9.5" {
			t.Fatalf("expected 9.5, got %v", got)
		}
	})

	t.Run("inactive row never chosen", func(t *testing.T) {
		prices := []models.ProductPrice{
			price("5.00", utils.NewFalse(), tp(-1*time.Hour), nil, now),
			price("6.00", utils.NewTrue(), tp(-2*time.Hour), nil, now),
		}
		got := findActivePrice(prices)
		if got == nil || got.Amount.String() != "6" {
			t.Fatalf("expected 6, got %v", got)
		}
	})
}
