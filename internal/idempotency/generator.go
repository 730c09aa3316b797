package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Scope namespaces keys so that a payment and a refund with equal
// parameters never share a gateway key
type Scope string

const (
	// ScopePayment keys a gateway charge for one payment attempt
	ScopePayment Scope = "payment"
	// ScopeRefund keys a gateway refund for one refund attempt
	ScopeRefund Scope = "refund"
)

// keyHashBytes is how much of the sha256 digest ends up in a key. Stripe
// accepts keys of up to 255 characters.
const keyHashBytes = 16

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey derives a key of the form "<scope>-<hex>" from params. The
// same scope and params always give the same key, whatever the map order.
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	names := lo.Keys(params)
	slices.Sort(names)

	h := sha256.New()
	h.Write([]byte(scope))
	for _, name := range names {
		fmt.Fprintf(h, "\x00%s=%v", name, params[name])
	}
	sum := h.Sum(nil)

	return strings.Join([]string{string(scope), hex.EncodeToString(sum[:keyHashBytes])}, "-")
}
