package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	g := NewGenerator()

	a := g.GenerateKey(ScopePayment, map[string]interface{}{"invoice_id": 1, "request_id": "r1"})
	b := g.GenerateKey(ScopePayment, map[string]interface{}{"request_id": "r1", "invoice_id": 1})
	c := g.GenerateKey(ScopeRefund, map[string]interface{}{"invoice_id": 1, "request_id": "r1"})
	d := g.GenerateKey(ScopePayment, map[string]interface{}{"invoice_id": 1, "request_id": "r2"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.True(t, strings.HasPrefix(a, "payment-"))
	assert.Len(t, a, len("payment-")+2*keyHashBytes)
}
