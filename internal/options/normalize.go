package options

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Raw chain records arrive as string-keyed maps with ad-hoc key aliases and
// string numerics (European decimal commas, trailing percent signs).
// NormalizeRecord coerces one record into the canonical OptionQuote exactly
// once at the boundary; nothing inside the core touches raw maps.

var (
	expiryKeys   = []string{"expiry", "expiration", "expiry_date", "maturity", "maturity_date"}
	rightKeys    = []string{"right", "type", "put_call"}
	quoteAgeKeys = []string{"quote_age", "quote_age_sec", "age", "age_seconds"}

	expiryLayouts = []string{"2006-01-02", "20060102", "2006-01-02T15:04:05Z07:00", "02-01-2006"}
)

// NormalizeRecord converts a raw chain record into an OptionQuote.
// Expiry, strike and right are mandatory; everything else is optional.
func NormalizeRecord(raw map[string]any) (OptionQuote, error) {
	var q OptionQuote

	expiry, err := lookupExpiry(raw)
	if err != nil {
		return q, err
	}
	q.Expiry = expiry

	strike, ok, err := lookupFloat(raw, "strike")
	if err != nil {
		return q, fmt.Errorf("strike: %w", err)
	}
	if !ok || strike <= 0 {
		return q, fmt.Errorf("record has no usable strike")
	}
	q.Strike = strike

	rightRaw, ok := lookupString(raw, rightKeys...)
	if !ok {
		return q, fmt.Errorf("record has no right/type field")
	}
	right, err := ParseRight(rightRaw)
	if err != nil {
		return q, err
	}
	q.Right = right

	if v, ok, err := lookupFloat(raw, "bid"); err != nil {
		return q, fmt.Errorf("bid: %w", err)
	} else if ok {
		q.Bid = v
	}
	if v, ok, err := lookupFloat(raw, "ask"); err != nil {
		return q, fmt.Errorf("ask: %w", err)
	} else if ok {
		q.Ask = v
	}
	if v, ok, err := lookupFloat(raw, "close"); err != nil {
		return q, fmt.Errorf("close: %w", err)
	} else if ok {
		q.Close = v
	}
	if v, ok, err := lookupFloat(raw, "iv"); err != nil {
		return q, fmt.Errorf("iv: %w", err)
	} else if ok {
		q.IV = Float(v)
	}
	if v, ok, err := lookupFloat(raw, "delta"); err != nil {
		return q, fmt.Errorf("delta: %w", err)
	} else if ok {
		q.Delta = Float(v)
	}
	if v, ok, err := lookupInt(raw, "volume"); err != nil {
		return q, fmt.Errorf("volume: %w", err)
	} else if ok {
		q.Volume = Int(v)
	}
	if v, ok, err := lookupInt(raw, "open_interest"); err != nil {
		return q, fmt.Errorf("open_interest: %w", err)
	} else if ok {
		q.OpenInterest = Int(v)
	}
	for _, key := range quoteAgeKeys {
		if v, ok, err := lookupFloat(raw, key); err != nil {
			return q, fmt.Errorf("%s: %w", key, err)
		} else if ok {
			q.QuoteAge = Float(v)
			break
		}
	}

	return q, nil
}

func lookupString(raw map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	return "", false
}

func lookupExpiry(raw map[string]any) (time.Time, error) {
	s, ok := lookupString(raw, expiryKeys...)
	if !ok {
		return time.Time{}, fmt.Errorf("record has no expiry field")
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable expiry %q", s)
}

func lookupFloat(raw map[string]any, key string) (float64, bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	f, ok, err := CoerceFloat(v)
	if err != nil {
		return 0, false, err
	}
	return f, ok, nil
}

func lookupInt(raw map[string]any, key string) (int64, bool, error) {
	f, ok, err := lookupFloat(raw, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	return int64(f), true, nil
}

// CoerceFloat accepts the numeric shapes raw feeds deliver: Go numerics,
// json.Number, and strings with European decimal separators or a trailing
// percent sign ("12,5%" -> 0.125).
func CoerceFloat(v any) (float64, bool, error) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return 0, false, nil
		}
		return t, true, nil
	case float32:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("bad number %q", t.String())
		}
		return f, true, nil
	case string:
		return coerceDecimalString(t)
	default:
		return 0, false, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func coerceDecimalString(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "N/A" || s == "n/a" {
		return 0, false, nil
	}

	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	// European format: comma decimal separator, optional dot thousands
	// separators ("1.234,56"). A lone comma is always the decimal mark.
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("unparseable number %q", s)
	}
	if percent {
		f /= 100.0
	}
	return f, true, nil
}
