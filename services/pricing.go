package services

import "math"

// PricingPolicy derives the student-facing final price from a teacher's base
// price. It is injected into the course service so the platform markup can be
// changed and tested independently of the workflow code.
type PricingPolicy func(basePrice float64) float64

// DefaultMarkupRate is the platform commission applied on top of the base price.
const DefaultMarkupRate = 0.03

// MarkupPricing returns a policy adding a proportional markup, rounded to cents.
func MarkupPricing(rate float64) PricingPolicy {
	return func(basePrice float64) float64 {
		return Round2(basePrice * (1 + rate))
	}
}

// DefaultPricing is the standard 3% markup policy.
func DefaultPricing() PricingPolicy {
	return MarkupPricing(DefaultMarkupRate)
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
