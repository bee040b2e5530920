package lightcurve

import (
	"encoding/json"
	"math"
	"time"
)

// Value is a float that may be missing. Missing values encode as JSON null.
type Value struct {
	Float float64
	Valid bool
}

// Missing is the zero Value.
var Missing = Value{}

// Some wraps a present value.
func Some(v float64) Value { return Value{Float: v, Valid: true} }

// ValueOf converts a raw archive value, mapping the sentinel and non-finite
// numbers to Missing.
func ValueOf(v float64) Value {
	if IsSentinel(v) || math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Some(v)
}

// OrNaN returns the value, or NaN when missing.
func (v Value) OrNaN() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Missing
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Time is a timestamp that may be missing.
type Time struct {
	Time  time.Time
	Valid bool
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Time{Time: parsed, Valid: true}
	return nil
}
