package types

import (
	"github.com/shopspring/decimal"
)

// MoneyPrecision is the number of decimal places every ledger amount is kept at
const MoneyPrecision int32 = 2

// RoundMoney rounds half away from zero to MoneyPrecision places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPrecision)
}

// HasMoneyPrecision reports whether d carries no more than MoneyPrecision decimals
func HasMoneyPrecision(d decimal.Decimal) bool {
	return d.Equal(RoundMoney(d))
}

// ToMinorUnits converts a money amount to integer cents for gateways that
// only accept the smallest currency unit
func ToMinorUnits(d decimal.Decimal) int64 {
	return RoundMoney(d).Shift(MoneyPrecision).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyPrecision)
}

// DefaultCurrency is used when neither the request nor the config names one
const DefaultCurrency = "usd"
