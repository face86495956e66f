package odoo

import "time"

// Odoo's external API returns false for empty scalar fields and
// [id, "display name"] for set many2one fields. These helpers coerce the
// decoded map values into Go types, treating false as the zero value.

const dateLayout = "2006-01-02"

func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func asFloat(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}

func asInt64(v any) int64 {
	// encoding/json decodes numbers in untyped maps as float64.
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int64(f)
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func asDate(v any) time.Time {
	s := asString(v)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// many2oneID returns the id part of a many2one value, 0 when unset.
func many2oneID(v any) int64 {
	pair, ok := v.([]any)
	if !ok || len(pair) == 0 {
		return 0
	}
	return asInt64(pair[0])
}

// many2oneName returns the display name part of a many2one value.
func many2oneName(v any) string {
	pair, ok := v.([]any)
	if !ok || len(pair) < 2 {
		return ""
	}
	return asString(pair[1])
}
