package snapshot

import "github.com/shopspring/decimal"

// CustomerSegment is a lifecycle label derived from lifetime orders and value
type CustomerSegment string

const (
	SegmentProspect CustomerSegment = "prospect"
	SegmentNew      CustomerSegment = "new"
	SegmentRegular  CustomerSegment = "regular"
	SegmentVIP      CustomerSegment = "vip"
	SegmentChampion CustomerSegment = "champion"
)

// AllSegments lists segments from least to most valuable
func AllSegments() []CustomerSegment {
	return []CustomerSegment{SegmentProspect, SegmentNew, SegmentRegular, SegmentVIP, SegmentChampion}
}

// IsValid reports whether s is a known segment
func (s CustomerSegment) IsValid() bool {
	for _, seg := range AllSegments() {
		if s == seg {
			return true
		}
	}
	return false
}

// CustomerStatus reports whether a customer bought in the analysis window
type CustomerStatus string

const (
	CustomerStatusConverted     CustomerStatus = "converted"
	CustomerStatusAbandonedCart CustomerStatus = "abandoned_cart"
)

var (
	championValue = decimal.NewFromInt(1000)
	vipValue      = decimal.NewFromInt(500)
)

// SegmentCustomer applies the segment rules in priority order
func SegmentCustomer(lifetimeOrders int64, lifetimeValue decimal.Decimal) CustomerSegment {
	switch {
	case lifetimeOrders <= 0:
		return SegmentProspect
	case lifetimeOrders == 1:
		return SegmentNew
	case lifetimeValue.GreaterThanOrEqual(championValue):
		return SegmentChampion
	case lifetimeValue.GreaterThanOrEqual(vipValue):
		return SegmentVIP
	default:
		return SegmentRegular
	}
}

// CustomerStatusFor returns converted when the customer has a non-cancelled
// order in the window
func CustomerStatusFor(periodOrders int64) CustomerStatus {
	if periodOrders > 0 {
		return CustomerStatusConverted
	}
	return CustomerStatusAbandonedCart
}

// IsReturning reports whether the customer ordered more than once
func IsReturning(lifetimeOrders int64) bool {
	return lifetimeOrders > 1
}
