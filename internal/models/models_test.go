package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestSellingPrice(t *testing.T) {
	assert.Equal(t, 100.0, SellingPrice(100, 0))
	assert.Equal(t, 80.0, SellingPrice(100, 20))
	assert.Equal(t, 6.66, SellingPrice(9.99, 33.3))
}

func TestEffectiveUnitPrice(t *testing.T) {
	product := &Product{RegularPrice: 50, Discount: 10, SellingPrice: 45}

	tests := []struct {
		name    string
		variant *ProductVariant
		want    float64
	}{
		{name: "no variant", variant: nil, want: 45},
		{name: "variant inherits everything", variant: &ProductVariant{}, want: 45},
		{name: "variant selling price wins", variant: &ProductVariant{SellingPrice: f(30), RegularPrice: f(99)}, want: 30},
		{name: "variant regular price with product discount", variant: &ProductVariant{RegularPrice: f(60)}, want: 54},
		{name: "variant regular price with own discount", variant: &ProductVariant{RegularPrice: f(60), Discount: f(50)}, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveUnitPrice(product, tt.variant))
		})
	}
}

func TestEffectiveBuyingPrice(t *testing.T) {
	product := &Product{BuyingPrice: f(20)}
	assert.Equal(t, 20.0, EffectiveBuyingPrice(product, nil))
	assert.Equal(t, 20.0, EffectiveBuyingPrice(product, &ProductVariant{}))
	assert.Equal(t, 12.0, EffectiveBuyingPrice(product, &ProductVariant{BuyingPrice: f(12)}))
	assert.Equal(t, 0.0, EffectiveBuyingPrice(&Product{}, nil))
}

func TestHideCost(t *testing.T) {
	p := &Product{BuyingPrice: f(5), Variants: []ProductVariant{{BuyingPrice: f(4)}}}
	p.HideCost()
	assert.Nil(t, p.BuyingPrice)
	assert.Nil(t, p.Variants[0].BuyingPrice)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "buying_price")
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderProcessing))
	assert.True(t, OrderProcessing.CanTransitionTo(OrderDelivered))
	assert.True(t, OrderPending.CanTransitionTo(OrderDelivered))

	assert.False(t, OrderProcessing.CanTransitionTo(OrderPending))
	assert.False(t, OrderDelivered.CanTransitionTo(OrderProcessing))
	assert.False(t, OrderPending.CanTransitionTo(OrderPending))
	assert.False(t, OrderPending.CanTransitionTo("cancelled"))
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("processing")
	require.NoError(t, err)
	assert.Equal(t, OrderProcessing, st)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestParsePaymentMethod(t *testing.T) {
	pm, err := ParsePaymentMethod("cash")
	require.NoError(t, err)
	assert.Equal(t, PaymentCash, pm)
	assert.Equal(t, "cash", pm.String())

	out, err := json.Marshal(pm)
	require.NoError(t, err)
	assert.Equal(t, `"cash"`, string(out))

	_, err = ParsePaymentMethod("card")
	assert.True(t, errors.Is(err, ErrUnsupportedPayment))
	assert.True(t, PaymentMethod{}.IsZero())
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "bad", "a": "missing"}}
	assert.Equal(t, "validation failed: a: missing; b: bad", err.Error())
}

func TestPasswordMatches(t *testing.T) {
	var p Password
	require.NoError(t, p.Set("s3cret-pass"))

	ok, err := p.Matches("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches("wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderCloneIsIndependent(t *testing.T) {
	zone := &Zone{ID: 1, Name: "Beirut"}
	o := &Order{
		ID:      7,
		User:    &User{ID: 1, Email: "a@example.com"},
		Address: &Address{ID: 2, Zone: zone},
		Lines: []OrderLine{{
			ProductName: "Shirt",
			Product:     &Product{BuyingPrice: f(5), Variants: []ProductVariant{{BuyingPrice: f(4)}}},
			Variant:     &ProductVariant{BuyingPrice: f(4)},
		}},
	}

	c := o.Clone()
	c.Lines[0].Product.HideCost()
	c.Lines[0].Variant.BuyingPrice = nil
	c.Address.Zone.Name = "Tripoli"
	c.User.Email = "b@example.com"

	assert.Equal(t, int64(7), c.ID)
	require.NotNil(t, o.Lines[0].Product.BuyingPrice)
	require.NotNil(t, o.Lines[0].Product.Variants[0].BuyingPrice)
	require.NotNil(t, o.Lines[0].Variant.BuyingPrice)
	assert.Equal(t, "Beirut", o.Address.Zone.Name)
	assert.Equal(t, "a@example.com", o.User.Email)
}

func TestValidationErrorCheck(t *testing.T) {
	var verr ValidationError
	verr.Check("phone_number", "12345678", "len=8,number", "bad phone")
	assert.Empty(t, verr.Fields)

	verr.Check("phone_number", "+1234567", "len=8,number", "bad phone")
	verr.Check("hex_color", "#FFF", "len=7,hexcolor", "bad color")
	assert.Equal(t, map[string]string{"phone_number": "bad phone", "hex_color": "bad color"}, verr.Fields)
}
