package model

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNotObject is returned when an item is decoded from anything but a JSON
// object.
var ErrNotObject = errors.New("item is not a JSON object")

// UnmarshalJSON decodes an item leniently. Collections written by older
// clients store numbers as strings and createdAt as an ISO timestamp, so
// numeric fields accept numbers and numeric strings, flags accept booleans,
// "true"/"false" and 0/1, and createdAt also accepts RFC 3339 dates. Values
// that cannot be read are left unset instead of failing the whole item.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrNotObject
	}
	if raw == nil {
		return ErrNotObject
	}

	var it Item
	if n, ok := flexNumber(raw["id"]); ok {
		it.ID = int64(math.Round(n))
	}
	it.Name = flexString(raw["name"])
	it.Category = flexString(raw["category"])
	it.Platform = flexString(raw["platform"])
	if n, ok := flexNumber(raw["rarity"]); ok {
		it.Rarity = int(math.Round(n))
	}
	if n, ok := flexNumber(raw["year"]); ok {
		it.Year = Ptr(int(math.Round(n)))
	}
	it.Notes = flexString(raw["notes"])
	it.Image = flexString(raw["image"])
	if b, ok := flexBool(raw["owned"]); ok {
		it.Owned = Ptr(b)
	}
	if b, ok := flexBool(raw["sealed"]); ok {
		it.Sealed = Ptr(b)
	}
	if n, ok := flexNumber(raw["lotteryOrder"]); ok {
		it.LotteryOrder = Ptr(int(math.Round(n)))
	}
	if ms, ok := flexMillis(raw["createdAt"]); ok {
		it.CreatedAt = Ptr(ms)
	}
	if n, ok := flexNumber(raw["createdBy"]); ok {
		it.CreatedBy = int64(math.Round(n))
	}

	*i = it
	return nil
}

func decodeAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func flexNumber(raw json.RawMessage) (float64, bool) {
	switch v := decodeAny(raw).(type) {
	case float64:
		return v, true
	case string:
		return parseNumber(v)
	}
	return 0, false
}

func flexString(raw json.RawMessage) string {
	switch v := decodeAny(raw).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func flexBool(raw json.RawMessage) (bool, bool) {
	switch v := decodeAny(raw).(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	return false, false
}

// flexMillis reads a Unix time in milliseconds or an RFC 3339 timestamp.
func flexMillis(raw json.RawMessage) (int64, bool) {
	switch v := decodeAny(raw).(type) {
	case float64:
		return int64(v), true
	case string:
		v = strings.TrimSpace(v)
		if f, ok := parseNumber(v); ok {
			return int64(f), true
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UnixMilli(), true
			}
		}
	}
	return 0, false
}
