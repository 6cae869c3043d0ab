package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/omkarpat/dcr-service/internal/model"
)

// Payload is a raw create/edit submission: a "date" entry plus arbitrary
// field-keyed values, exactly as decoded from JSON.
type Payload map[string]any

const dateLayout = "2006-01-02"

// Date parses the payload's mandatory date entry (YYYY-MM-DD, UTC midnight).
func (p Payload) Date() (time.Time, error) {
	raw, ok := p["date"]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	s, _ := raw.(string)
	parsed, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return parsed, nil
}

// Raw returns the string form of a payload value and whether it is
// non-empty. JSON numbers keep their shortest decimal representation so
// the type checks see what the client typed.
func (p Payload) Raw(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return s, true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		s := fmt.Sprint(t)
		return s, s != ""
	}
}

var (
	decimalPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	integerPattern = regexp.MustCompile(`^\d+$`)
)

// ValidateValues checks a payload against the resolved field list and
// collects every violation; it never stops at the first one.
func ValidateValues(fields []model.FieldSpec, payload Payload) []string {
	var errs []string
	for _, f := range fields {
		raw, present := payload.Raw(f.KeyCode)

		if f.Required && !present {
			errs = append(errs, f.Label+" required")
		}
		if !present {
			continue
		}
		switch f.Type {
		case model.FieldTypeDecimal:
			if !decimalPattern.MatchString(raw) {
				errs = append(errs, f.Label+" max 2 decimals")
			}
		case model.FieldTypeInteger:
			if !integerPattern.MatchString(raw) {
				errs = append(errs, f.Label+" must be whole number")
			}
		}
	}
	return errs
}

// NumericValue normalizes a raw value to its numeric form; anything that
// does not parse becomes zero.
func NumericValue(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// buildValues maps the payload onto value rows: one row per non-empty,
// schema-recognized key. Unknown keys are dropped; the date entry lives in
// the header, never in the value table.
func buildValues(dcrID uuid.UUID, fields []model.FieldSpec, payload Payload) []model.DCRValue {
	var values []model.DCRValue
	for _, f := range fields {
		if f.KeyCode == "date" {
			continue
		}
		raw, present := payload.Raw(f.KeyCode)
		if !present {
			continue
		}
		values = append(values, model.DCRValue{
			DCRID:   dcrID,
			FieldID: f.ID,
			Value:   NumericValue(raw),
		})
	}
	return values
}
