package types

import (
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex whreg_01J9ZK3W8T4C6Q0V5N2H7M1XRB
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

// initializeSID initializes the shortid generator once
func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateReference returns a human readable business reference such as
// PAY-x7Kq2mB9a. Case is preserved since the shortid alphabet is case sensitive.
// Falls back to a ulid when the generator fails.
func GenerateReference(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		id = GenerateUUID()
	}
	return fmt.Sprintf("%s-%s", prefix, id)
}

const (
	// Prefixes for ulid based identifiers

	UUID_PREFIX_EVENT                = "evt"
	UUID_PREFIX_WEBHOOK_REGISTRATION = "whreg"
	UUID_PREFIX_WEBHOOK_MESSAGE      = "msg"
	UUID_PREFIX_ACTIVITY             = "act"
	UUID_PREFIX_REQUEST              = "req"

	// Prefixes for business references

	REFERENCE_PREFIX_INVOICE = "INV"
	REFERENCE_PREFIX_PAYMENT = "PAY"
	REFERENCE_PREFIX_REFUND  = "REF"
)
