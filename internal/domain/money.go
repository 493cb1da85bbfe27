package domain

import (
	"fmt"
	"math"
)

// Money is an amount in minor currency units (hundredths)
type Money int64

// MoneyFromFloat converts a wire amount such as 150000.5 into minor units
func MoneyFromFloat(v float64) Money {
	return Money(math.Round(v * 100))
}

// Float64 returns the amount in major units for the wire format
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// Times multiplies by a whole number of units
func (m Money) Times(n int) Money {
	return m * Money(n)
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
