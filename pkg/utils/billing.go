package utils

import "github.com/shopspring/decimal"

// GarageEarnings is the garage-side view of a request: what the platform
// keeps as commission and what the garage is paid.
type GarageEarnings struct {
	GarageCost        decimal.Decimal `json:"garage_cost"`
	CommissionRate    decimal.Decimal `json:"commission_rate"`
	CommissionPercent int64           `json:"commission_percent"`
	Commission        decimal.Decimal `json:"commission"`
	GarageEarnings    decimal.Decimal `json:"garage_earnings"`
}

// OwnerTotal is what the car owner pays. It shares only GarageCost with
// GarageEarnings.
type OwnerTotal struct {
	GarageCost decimal.Decimal `json:"garage_cost"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	TripFee    decimal.Decimal `json:"trip_fee"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

type commissionTier struct {
	below decimal.Decimal
	rate  decimal.Decimal
}

var (
	// Each tier applies to costs strictly below its bound.
	commissionTiers = []commissionTier{
		{below: decimal.NewFromInt(10000), rate: decimal.RequireFromString("0.10")},
		{below: decimal.NewFromInt(50000), rate: decimal.RequireFromString("0.08")},
		{below: decimal.NewFromInt(100000), rate: decimal.RequireFromString("0.06")},
	}
	topCommissionRate = decimal.RequireFromString("0.05")

	// Owner side
	serviceFeeRate = decimal.RequireFromString("0.05")
	tripFee        = decimal.NewFromInt(700)
)

// CommissionRate returns the platform's share of a garage cost.
func CommissionRate(garageCost decimal.Decimal) decimal.Decimal {
	for _, tier := range commissionTiers {
		if garageCost.LessThan(tier.below) {
			return tier.rate
		}
	}
	return topCommissionRate
}

func CalculateGarageEarnings(garageCost decimal.Decimal) GarageEarnings {
	rate := CommissionRate(garageCost)
	commission := RoundMoney(garageCost.Mul(rate))
	return GarageEarnings{
		GarageCost:        garageCost,
		CommissionRate:    rate,
		CommissionPercent: rate.Shift(2).IntPart(),
		Commission:        commission,
		GarageEarnings:    garageCost.Sub(commission),
	}
}

func CalculateOwnerTotal(garageCost decimal.Decimal) OwnerTotal {
	fee := RoundMoney(garageCost.Mul(serviceFeeRate))
	return OwnerTotal{
		GarageCost: garageCost,
		ServiceFee: fee,
		TripFee:    tripFee,
		TotalCost:  garageCost.Add(fee).Add(tripFee),
	}
}

// RoundMoney rounds to cents, halves away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
