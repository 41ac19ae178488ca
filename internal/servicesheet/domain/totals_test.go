package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeTotalsUrgentServiceWithoutDiscount(t *testing.T) {
	items := []Snapshot{{Type: KindService, Qty: 1, Price: decimal.NewFromInt(100), Urgent: true}}

	totals := ComputeTotals(items, decimal.NewFromInt(10), nil, "")

	if totals.ServiceLines != 1 || totals.UrgentLines != 1 {
		t.Fatalf("unexpected counts: %+v", totals)
	}
	if !totals.TotalAmount.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected total 110, got %s", totals.TotalAmount)
	}
	if !totals.DiscountTotal.IsZero() {
		t.Fatalf("expected no discount, got %s", totals.DiscountTotal)
	}
}

func TestComputeTotalsGlobalDiscountOnlyAffectsGrandTotal(t *testing.T) {
	items := []Snapshot{
		{Type: KindService, Qty: 2, Price: decimal.NewFromInt(40), Discount: decimal.NewFromInt(25)},
		{Type: KindPart, Qty: 1, Price: decimal.NewFromInt(20)},
		{Type: KindInstrument, Qty: 1},
	}
	global := decimal.NewFromInt(10)

	totals := ComputeTotals(items, decimal.NewFromInt(10), &global, "both")

	if totals.ServiceLines != 1 || totals.PartLines != 1 || totals.InstrumentLines != 1 {
		t.Fatalf("unexpected counts: %+v", totals)
	}
	if !totals.TotalAmount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected total 80, got %s", totals.TotalAmount)
	}
	if !totals.DiscountTotal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected discount 20, got %s", totals.DiscountTotal)
	}
	if !totals.GrandTotal.Equal(decimal.NewFromInt(72)) {
		t.Fatalf("expected grand total 72, got %s", totals.GrandTotal)
	}
	if totals.SubscriptionType != "both" {
		t.Fatalf("expected subscription type to be carried")
	}
}
