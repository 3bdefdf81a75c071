package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func price(s string) *Product {
	return &Product{Price: decimal.RequireFromString(s)}
}

func TestOrder_RecalculateTotal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []OrderItem
		want  string
	}{
		{name: "empty cart", items: nil, want: "0"},
		{name: "single item", items: []OrderItem{{Quantity: 2, Product: price("10.00")}}, want: "20.00"},
		{
			name: "half up on the order, not on the line",
			items: []OrderItem{
				{Quantity: 3, Product: price("3.335")},
			},
			want: "10.01",
		},
		{
			name: "several lines",
			items: []OrderItem{
				{Quantity: 1, Product: price("22.99")},
				{Quantity: 2, Product: price("41.99")},
			},
			want: "106.97",
		},
		{name: "missing product counts as zero", items: []OrderItem{{Quantity: 4}}, want: "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := &Order{Items: tt.items, Total: decimal.NewFromInt(999)}
			o.RecalculateTotal()
			assert.True(t, decimal.RequireFromString(tt.want).Equal(o.Total), "got %s", o.Total)
		})
	}
}

func TestOrderItem_LineTotalIsExact(t *testing.T) {
	t.Parallel()

	it := OrderItem{Quantity: 3, Product: price("0.333")}
	assert.Equal(t, "0.999", it.LineTotal().String())
}
