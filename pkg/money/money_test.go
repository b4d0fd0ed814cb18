package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEqualApprox(t *testing.T) {
	a := decimal.NewFromFloat(100.0)
	b := decimal.NewFromFloat(100.00005)
	assert.True(t, EqualApprox(a, b))
	assert.False(t, EqualApprox(a, decimal.NewFromFloat(100.001)))
}

func TestSettled(t *testing.T) {
	assert.True(t, Settled(decimal.Zero))
	assert.True(t, Settled(decimal.NewFromFloat(-5)))
	assert.True(t, Settled(decimal.NewFromFloat(0.00005)))
	assert.False(t, Settled(decimal.NewFromFloat(0.01)))
}

func TestSignHelpers(t *testing.T) {
	assert.True(t, IsNegative(FromFloat(-10)))
	assert.False(t, IsNegative(Zero))
	assert.True(t, IsPositive(FromFloat(0.01)))
	assert.False(t, IsPositive(Zero))
}
