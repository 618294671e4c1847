// Package delivery decides when and where bowls can be delivered: it derives
// the valid delivery dates for a location and validates postcodes against the
// location's prefix policy.
package delivery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ErrUnknownLocation is returned when no configuration exists for a location.
var ErrUnknownLocation = errors.New("unknown delivery location")

// LocationConfig is the immutable per-location delivery policy. Inject it
// into Rules at construction; never mutate it at runtime.
type LocationConfig struct {
	// Name is the display name of the location, e.g. "Manchester".
	Name string

	// Weekdays are the days deliveries run when dates are auto-derived.
	Weekdays []time.Weekday

	// MinLeadDays is the minimum lead time: only dates strictly after
	// today+MinLeadDays are offered.
	MinLeadDays int

	// MaxDates caps how many auto-derived dates are offered.
	MaxDates int

	// UseCustomDates switches from auto-derived weekdays to the explicit
	// CustomDates list. Lead-time and exclusion filtering still apply.
	UseCustomDates bool

	// CustomDates is the explicit date list (DateLayout strings).
	CustomDates []string

	// ExcludeDates removes specific dates even when otherwise valid.
	ExcludeDates []string

	// AllowedPrefixes are the postcode prefixes served.
	AllowedPrefixes []string

	// ExcludedPrefixes reject a postcode even when an allowed prefix also
	// matches. An excluded prefix only matches when followed by a digit or
	// the end of the postcode, so "M1" does not match inside "M11".
	ExcludedPrefixes []string
}

// PostcodeReason classifies why a postcode was rejected.
type PostcodeReason string

const (
	PostcodeEmpty     PostcodeReason = "empty"
	PostcodeMalformed PostcodeReason = "malformed"
	PostcodeExcluded  PostcodeReason = "excluded"
	PostcodeNotServed PostcodeReason = "not-served"
)

// PostcodeError reports a rejected postcode with a machine-readable reason.
type PostcodeError struct {
	Reason   PostcodeReason
	Location string
}

func (e *PostcodeError) Error() string {
	return fmt.Sprintf("postcode rejected for %s: %s", e.Location, e.Reason)
}

// DateReason classifies why a candidate delivery date was rejected.
type DateReason string

const (
	DateWrongWeekday DateReason = "wrong-weekday"
	DateTooSoon      DateReason = "too-soon"
	DateExcluded     DateReason = "excluded"
	DateMalformed    DateReason = "malformed"
	DateNotListed    DateReason = "not-listed"
)

// DateError reports a rejected delivery date with a machine-readable reason.
type DateError struct {
	Reason DateReason
	Date   string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("delivery date %s rejected: %s", e.Date, e.Reason)
}

// Rules evaluates delivery policy for a set of configured locations.
type Rules struct {
	locations map[string]LocationConfig
	order     []string
}

// NewRules builds a Rules engine over the given location configurations.
func NewRules(configs []LocationConfig) *Rules {
	r := &Rules{
		locations: make(map[string]LocationConfig, len(configs)),
		order:     make([]string, 0, len(configs)),
	}
	for _, cfg := range configs {
		r.locations[cfg.Name] = cfg
		r.order = append(r.order, cfg.Name)
	}
	return r
}

// Locations lists configured location names in configuration order.
func (r *Rules) Locations() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Location returns the configuration for a named location.
func (r *Rules) Location(name string) (LocationConfig, error) {
	cfg, ok := r.locations[name]
	if !ok {
		return LocationConfig{}, ErrUnknownLocation
	}
	return cfg, nil
}

// ValidDates returns the offered delivery dates for a location as ascending,
// de-duplicated DateLayout strings. Every date falls on a configured weekday
// (or in the explicit list), lies strictly after today+MinLeadDays, and is
// not excluded. Auto-derived lists are capped at MaxDates.
func (r *Rules) ValidDates(name string, today time.Time) ([]string, error) {
	cfg, err := r.Location(name)
	if err != nil {
		return nil, err
	}
	return ValidDates(cfg, today), nil
}

// ValidDates is the config-level form of Rules.ValidDates.
func ValidDates(cfg LocationConfig, today time.Time) []string {
	cutoff := dateOnly(today).AddDate(0, 0, cfg.MinLeadDays)
	excluded := toSet(cfg.ExcludeDates)

	if cfg.UseCustomDates {
		seen := make(map[string]bool, len(cfg.CustomDates))
		out := make([]string, 0, len(cfg.CustomDates))
		for _, s := range cfg.CustomDates {
			d, err := time.Parse(DateLayout, s)
			if err != nil || seen[s] || excluded[s] || !d.After(cutoff) {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
		sort.Strings(out)
		return out
	}

	max := cfg.MaxDates
	if max <= 0 {
		max = 6
	}
	weekdays := make(map[time.Weekday]bool, len(cfg.Weekdays))
	for _, wd := range cfg.Weekdays {
		weekdays[wd] = true
	}

	out := make([]string, 0, max)
	// Look ahead one day at a time; the cap bounds the loop long before the
	// horizon does.
	horizon := cfg.MinLeadDays + 7*(max+1)
	for ahead := 1; ahead <= horizon && len(out) < max; ahead++ {
		d := dateOnly(today).AddDate(0, 0, ahead)
		if !weekdays[d.Weekday()] || !d.After(cutoff) {
			continue
		}
		s := d.Format(DateLayout)
		if excluded[s] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ValidatePostcode normalizes raw (strip whitespace, uppercase) and checks it
// against the location's prefix policy. Exclusions are checked before the
// allow list and take precedence.
func (r *Rules) ValidatePostcode(name, raw string) (string, error) {
	cfg, err := r.Location(name)
	if err != nil {
		return "", err
	}
	return ValidatePostcode(cfg, raw)
}

// ValidatePostcode is the config-level form of Rules.ValidatePostcode. On
// success it returns the normalized postcode.
func ValidatePostcode(cfg LocationConfig, raw string) (string, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if normalized == "" {
		return "", &PostcodeError{Reason: PostcodeEmpty, Location: cfg.Name}
	}
	if len(normalized) < 5 || len(normalized) > 7 {
		return "", &PostcodeError{Reason: PostcodeMalformed, Location: cfg.Name}
	}

	for _, prefix := range cfg.ExcludedPrefixes {
		if matchesBoundedPrefix(normalized, strings.ToUpper(prefix)) {
			return "", &PostcodeError{Reason: PostcodeExcluded, Location: cfg.Name}
		}
	}

	for _, prefix := range cfg.AllowedPrefixes {
		if strings.HasPrefix(normalized, strings.ToUpper(prefix)) {
			return normalized, nil
		}
	}
	return "", &PostcodeError{Reason: PostcodeNotServed, Location: cfg.Name}
}

// matchesBoundedPrefix reports whether s starts with prefix followed by
// either the end of the string or a digit. The boundary check stops "M1"
// from matching inside "M11 4AB" while still matching "M1 4BT".
func matchesBoundedPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	next := s[len(prefix)]
	return next >= '0' && next <= '9'
}

// ValidateCustomDate checks a customer-picked date against the location's
// weekday set, lead time, and exclusions. An accepted date behaves exactly
// like a pre-listed one.
func (r *Rules) ValidateCustomDate(name, candidate string, today time.Time) error {
	cfg, err := r.Location(name)
	if err != nil {
		return err
	}
	return ValidateCustomDate(cfg, candidate, today)
}

// ValidateCustomDate is the config-level form of Rules.ValidateCustomDate.
func ValidateCustomDate(cfg LocationConfig, candidate string, today time.Time) error {
	d, err := time.Parse(DateLayout, candidate)
	if err != nil {
		return &DateError{Reason: DateMalformed, Date: candidate}
	}

	weekdayOK := false
	for _, wd := range cfg.Weekdays {
		if d.Weekday() == wd {
			weekdayOK = true
			break
		}
	}
	if !weekdayOK {
		return &DateError{Reason: DateWrongWeekday, Date: candidate}
	}

	cutoff := dateOnly(today).AddDate(0, 0, cfg.MinLeadDays)
	if !d.After(cutoff) {
		return &DateError{Reason: DateTooSoon, Date: candidate}
	}

	for _, s := range cfg.ExcludeDates {
		if s == candidate {
			return &DateError{Reason: DateExcluded, Date: candidate}
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
