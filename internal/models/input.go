package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON decodes a booking request. Duration may be a number or a
// numeric string; anything else, or a value under one minute, is dropped so
// the default applies. Fractions are truncated to whole minutes.
func (in *BookingInput) UnmarshalJSON(data []byte) error {
	type plain BookingInput
	aux := struct {
		*plain
		Duration json.RawMessage `json:"duration"`
	}{plain: (*plain)(in)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.Duration = parseMinutes(aux.Duration)
	return nil
}

func parseMinutes(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		if v, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return nil
		}
	}

	if math.IsNaN(v) || v < 1 || v > math.MaxInt32 {
		return nil
	}
	minutes := int(v)
	return &minutes
}
