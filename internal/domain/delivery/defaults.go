package delivery

import "time"

// DefaultLocations is the production delivery policy table. Tests substitute
// their own configs through NewRules.
func DefaultLocations() []LocationConfig {
	return []LocationConfig{
		{
			Name:        "Lancashire",
			Weekdays:    []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			MinLeadDays: 2,
			MaxDates:    6,
			AllowedPrefixes: []string{
				"PR", "BD", "LA", "HX",
				"BB1", "BB2", "BB3", "BB4", "BB5", "BB6", "BB7", "BB9", "BB10", "BB11", "BB12",
			},
			ExcludedPrefixes: []string{"BB8"},
		},
		{
			Name:           "Manchester",
			Weekdays:       []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			MinLeadDays:    2,
			MaxDates:       6,
			UseCustomDates: true,
			CustomDates: []string{
				"2026-02-26",
			},
			AllowedPrefixes:  []string{"M"},
			ExcludedPrefixes: []string{"M35"},
		},
	}
}
