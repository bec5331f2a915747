package tools

import "fmt"

// Args holds the JSON-decoded arguments of one tool call.
type Args map[string]any

// String returns a required string argument.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: expected string, got %T", key, v)
	}
	return s, nil
}

// OptString returns an optional string argument, or fallback when absent.
func (a Args) OptString(key, fallback string) (string, error) {
	if _, ok := a[key]; !ok {
		return fallback, nil
	}
	return a.String(key)
}

// Int returns a required integer argument. JSON numbers decode as
// float64; non-integral values are rejected.
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("missing required argument %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q: expected integer, got %T", key, v)
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("argument %q: expected integer, got %v", key, f)
	}
	return n, nil
}

// OptInt returns an optional integer argument, or fallback when absent.
func (a Args) OptInt(key string, fallback int) (int, error) {
	if _, ok := a[key]; !ok {
		return fallback, nil
	}
	return a.Int(key)
}

// Bool returns a required boolean argument.
func (a Args) Bool(key string) (bool, error) {
	v, ok := a[key]
	if !ok {
		return false, fmt.Errorf("missing required argument %q", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("argument %q: expected boolean, got %T", key, v)
	}
	return b, nil
}

// OptBool returns an optional boolean argument, or fallback when absent.
func (a Args) OptBool(key string, fallback bool) (bool, error) {
	if _, ok := a[key]; !ok {
		return fallback, nil
	}
	return a.Bool(key)
}
