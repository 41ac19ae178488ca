package domain

import (
	"github.com/shopspring/decimal"
)

// LineTotal is the priced breakdown of one line.
type LineTotal struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Markup   decimal.Decimal
	Total    decimal.Decimal
}

// PriceLine prices a line: (price x qty - discount) plus the urgent markup
// when the line is urgent.
func PriceLine(s Snapshot, urgentMarkupPct decimal.Decimal) LineTotal {
	subtotal := s.Price.Mul(decimal.NewFromInt(int64(defaultQty(s.Qty))))
	discount := subtotal.Mul(s.Discount).Div(hundred)
	net := subtotal.Sub(discount)
	markup := decimal.Zero
	if s.Urgent {
		markup = net.Mul(urgentMarkupPct).Div(hundred)
	}
	return LineTotal{
		Subtotal: subtotal,
		Discount: discount,
		Markup:   markup,
		Total:    net.Add(markup),
	}
}

// Totals summarises a tray's lines.
type Totals struct {
	ServiceLines      int              `json:"serviceLines"`
	PartLines         int              `json:"partLines"`
	InstrumentLines   int              `json:"instrumentLines"`
	UrgentLines       int              `json:"urgentLines"`
	TotalAmount       decimal.Decimal  `json:"totalAmount"`
	DiscountTotal     decimal.Decimal  `json:"discountTotal"`
	UrgentMarkupTotal decimal.Decimal  `json:"urgentMarkupTotal"`
	GlobalDiscountPct *decimal.Decimal `json:"globalDiscountPct,omitempty"`
	GrandTotal        decimal.Decimal  `json:"grandTotal"`
	SubscriptionType  string           `json:"subscriptionType,omitempty"`
}

// ComputeTotals sums the lines. The global discount is never applied to
// individual lines; it only yields GrandTotal.
func ComputeTotals(items []Snapshot, urgentMarkupPct decimal.Decimal, globalDiscountPct *decimal.Decimal, subscriptionType string) Totals {
	totals := Totals{
		TotalAmount:       decimal.Zero,
		DiscountTotal:     decimal.Zero,
		UrgentMarkupTotal: decimal.Zero,
		SubscriptionType:  subscriptionType,
	}
	for _, item := range items {
		switch item.Type {
		case KindService:
			totals.ServiceLines++
		case KindPart:
			totals.PartLines++
		default:
			totals.InstrumentLines++
		}
		if item.Urgent {
			totals.UrgentLines++
		}
		line := PriceLine(item, urgentMarkupPct)
		totals.TotalAmount = totals.TotalAmount.Add(line.Total)
		totals.DiscountTotal = totals.DiscountTotal.Add(line.Discount)
		totals.UrgentMarkupTotal = totals.UrgentMarkupTotal.Add(line.Markup)
	}

	totals.TotalAmount = totals.TotalAmount.Round(2)
	totals.DiscountTotal = totals.DiscountTotal.Round(2)
	totals.UrgentMarkupTotal = totals.UrgentMarkupTotal.Round(2)
	totals.GrandTotal = totals.TotalAmount

	if globalDiscountPct != nil {
		pct := *globalDiscountPct
		totals.GlobalDiscountPct = &pct
		totals.GrandTotal = totals.TotalAmount.Sub(totals.TotalAmount.Mul(pct).Div(hundred)).Round(2)
	}
	return totals
}
