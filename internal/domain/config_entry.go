package domain

import (
	"fmt"
	"strconv"
	"time"
)

// ConfigValueKind discriminates runtime config entry variants.
type ConfigValueKind string

const (
	ConfigKindBool   ConfigValueKind = "BOOL"
	ConfigKindNumber ConfigValueKind = "NUMBER"
	ConfigKindString ConfigValueKind = "STRING"
)

// ConfigEntry is a typed runtime setting stored in the config table. Exactly
// one of the value fields is meaningful, selected by Kind.
type ConfigEntry struct {
	Key         string
	Kind        ConfigValueKind
	BoolValue   bool
	NumberValue float64
	StringValue string
	UpdatedAt   time.Time
}

// Bool returns the boolean value, failing when the entry holds another kind.
func (e *ConfigEntry) Bool() (bool, error) {
	if e.Kind != ConfigKindBool {
		return false, fmt.Errorf("config %s: expected BOOL, got %s", e.Key, e.Kind)
	}
	return e.BoolValue, nil
}

// Number returns the numeric value, failing when the entry holds another kind.
func (e *ConfigEntry) Number() (float64, error) {
	if e.Kind != ConfigKindNumber {
		return 0, fmt.Errorf("config %s: expected NUMBER, got %s", e.Key, e.Kind)
	}
	return e.NumberValue, nil
}

// Text returns the string value, failing when the entry holds another kind.
func (e *ConfigEntry) Text() (string, error) {
	if e.Kind != ConfigKindString {
		return "", fmt.Errorf("config %s: expected STRING, got %s", e.Key, e.Kind)
	}
	return e.StringValue, nil
}

// RawValue renders the active variant for storage and display.
func (e *ConfigEntry) RawValue() string {
	switch e.Kind {
	case ConfigKindBool:
		return strconv.FormatBool(e.BoolValue)
	case ConfigKindNumber:
		return strconv.FormatFloat(e.NumberValue, 'f', -1, 64)
	default:
		return e.StringValue
	}
}

// ParseConfigEntry builds a typed entry from a stored kind/value pair.
func ParseConfigEntry(key string, kind ConfigValueKind, raw string) (*ConfigEntry, error) {
	entry := &ConfigEntry{Key: key, Kind: kind}
	switch kind {
	case ConfigKindBool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config %s: invalid bool %q", key, raw)
		}
		entry.BoolValue = parsed
	case ConfigKindNumber:
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("config %s: invalid number %q", key, raw)
		}
		entry.NumberValue = parsed
	case ConfigKindString:
		entry.StringValue = raw
	default:
		return nil, fmt.Errorf("config %s: unknown kind %q", key, kind)
	}
	return entry, nil
}
