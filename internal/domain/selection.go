package domain

import "slices"

// Selection is the user's current filter criteria.
// A nil set places no restriction on that column; a nil bound leaves that
// side of the delivery-time range open. Bounds are inclusive.
type Selection struct {
	Areas    []string
	Vehicles []string
	MinTime  *float64
	MaxTime  *float64
}

// Matches reports whether d satisfies every active predicate.
func (s Selection) Matches(d Delivery) bool {
	if s.Areas != nil && !slices.Contains(s.Areas, d.Area) {
		return false
	}
	if s.Vehicles != nil && !slices.Contains(s.Vehicles, d.Vehicle) {
		return false
	}
	if s.MinTime != nil && d.DeliveryTime < *s.MinTime {
		return false
	}
	if s.MaxTime != nil && d.DeliveryTime > *s.MaxTime {
		return false
	}
	return true
}

// IsEmpty reports whether the selection restricts nothing.
func (s Selection) IsEmpty() bool {
	return s.Areas == nil && s.Vehicles == nil && s.MinTime == nil && s.MaxTime == nil
}
