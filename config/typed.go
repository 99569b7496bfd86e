// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strconv"
	"time"
)

// String returns the value at key formatted as a string.
func (c *Configuration) String(key string) (string, error) {
	v, err := c.Get(key)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]any, []any:
		return "", fmt.Errorf("config: %q is %T, not a scalar", key, v)
	default:
		return fmt.Sprint(t), nil
	}
}

// Int returns the value at key as an int. Strings are parsed, since
// environment fallbacks are always strings.
func (c *Configuration) Int(key string) (int, error) {
	v, err := c.Get(key)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("config: %q: %v is not an integer", key, t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("config: %q: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("config: %q is %T, not an int", key, v)
	}
}

// Bool returns the value at key as a bool.
func (c *Configuration) Bool(key string) (bool, error) {
	v, err := c.Get(key)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("config: %q: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("config: %q is %T, not a bool", key, v)
	}
}

// Duration returns the value at key as a duration. Strings use
// time.ParseDuration syntax; plain numbers are seconds.
func (c *Configuration) Duration(key string) (time.Duration, error) {
	v, err := c.Get(key)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("config: %q: %w", key, err)
		}
		return d, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("config: %q is %T, not a duration", key, v)
	}
}
