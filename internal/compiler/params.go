package compiler

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// params reads typed values out of a component's params map and tracks
// which keys were consumed, so leftovers can be reported.
type params struct {
	raw  map[string]any
	used map[string]bool
}

func newParams(raw map[string]any) *params {
	return &params{raw: raw, used: make(map[string]bool)}
}

func (p *params) number(key string, def float64) (float64, error) {
	p.used[key] = true
	v, ok := p.raw[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%s: want number, got %T", key, v)
}

func (p *params) integer(key string, def int) (int, error) {
	p.used[key] = true
	v, ok := p.raw[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%s: want integer, got %v", key, v)
}

func (p *params) boolean(key string, def bool) (bool, error) {
	p.used[key] = true
	v, ok := p.raw[key]
	if !ok {
		return def, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, fmt.Errorf("%s: want bool, got %T", key, v)
	}
	return b, nil
}

func (p *params) text(key string, required bool) (string, error) {
	p.used[key] = true
	v, ok := p.raw[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s: required", key)
		}
		return "", nil
	}
	s, isString := v.(string)
	if !isString {
		return "", fmt.Errorf("%s: want string, got %T", key, v)
	}
	return s, nil
}

// unknown reports keys nothing asked for.
func (p *params) unknown() error {
	var extra []string
	for k := range p.raw {
		if !p.used[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	slices.Sort(extra)
	return fmt.Errorf("unknown params: %s", strings.Join(extra, ", "))
}
