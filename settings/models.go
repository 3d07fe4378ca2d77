// Package settings defines the closed set of per-guild configuration keys
// and the cascade that resolves a guild's effective value for each of them:
// guild override first, then the static configuration the engine was built
// with, then the built-in default. Resolution never fails for an unset key.
package settings

import (
	"time"

	"golang.org/x/text/language"
)

// Key is a configuration key drawn from a closed enumeration.
type Key string

// The full settings enumeration. Values for amount keys are integers,
// cooldown keys hold durations in milliseconds, dateLocale holds a BCP 47
// tag, and the remaining keys are booleans or percentages.
const (
	KeyDailyAmount          Key = "dailyAmount"
	KeyDailyCooldown        Key = "dailyCooldown"
	KeyWorkAmount           Key = "workAmount"
	KeyWorkCooldown         Key = "workCooldown"
	KeyWeeklyAmount         Key = "weeklyAmount"
	KeyWeeklyCooldown       Key = "weeklyCooldown"
	KeyDateLocale           Key = "dateLocale"
	KeySubtractOnBuy        Key = "subtractOnBuy"
	KeySellingItemPercent   Key = "sellingItemPercent"
	KeySavePurchasesHistory Key = "savePurchasesHistory"
)

// Keys returns the enumeration in declaration order.
func Keys() []Key {
	return []Key{
		KeyDailyAmount,
		KeyDailyCooldown,
		KeyWorkAmount,
		KeyWorkCooldown,
		KeyWeeklyAmount,
		KeyWeeklyCooldown,
		KeyDateLocale,
		KeySubtractOnBuy,
		KeySellingItemPercent,
		KeySavePurchasesHistory,
	}
}

// Valid reports whether k is part of the enumeration.
func Valid(k Key) bool {
	switch k {
	case KeyDailyAmount, KeyDailyCooldown,
		KeyWorkAmount, KeyWorkCooldown,
		KeyWeeklyAmount, KeyWeeklyCooldown,
		KeyDateLocale, KeySubtractOnBuy,
		KeySellingItemPercent, KeySavePurchasesHistory:
		return true
	default:
		return false
	}
}

// Config is a static settings map consulted when a guild has no override
// for a key. A nil Config falls straight through to the built-in defaults.
type Config map[Key]any

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		KeyDailyAmount:          int64(100),
		KeyDailyCooldown:        (24 * time.Hour).Milliseconds(),
		KeyWorkAmount:           int64(50),
		KeyWorkCooldown:         time.Hour.Milliseconds(),
		KeyWeeklyAmount:         int64(1000),
		KeyWeeklyCooldown:       (7 * 24 * time.Hour).Milliseconds(),
		KeyDateLocale:           "en",
		KeySubtractOnBuy:        true,
		KeySellingItemPercent:   int64(75),
		KeySavePurchasesHistory: false,
	}
}

// Effective holds a guild's fully resolved settings, one entry per key.
type Effective map[Key]any

// Resolve applies the cascade for every key in the enumeration:
// override if present and non-nil, else static, else built-in default.
// A nil overrides map is treated as empty.
func Resolve(overrides map[Key]any, static Config) Effective {
	defaults := Default()
	out := make(Effective, len(defaults))
	for _, k := range Keys() {
		out[k] = resolveKey(k, overrides, static, defaults)
	}
	return out
}

// ResolveKey resolves a single key through the cascade.
func ResolveKey(k Key, overrides map[Key]any, static Config) any {
	return resolveKey(k, overrides, static, Default())
}

func resolveKey(k Key, overrides map[Key]any, static Config, defaults Config) any {
	if v, ok := overrides[k]; ok && v != nil {
		return v
	}
	if v, ok := static[k]; ok && v != nil {
		return v
	}
	return defaults[k]
}

// Int returns the value for k as an int64. Store round trips decode JSON
// numbers as float64, so both integer and float representations convert.
// Unconvertible values yield 0.
func (e Effective) Int(k Key) int64 {
	return asInt(e[k])
}

// Duration returns the value for k, held in milliseconds, as a Duration.
func (e Effective) Duration(k Key) time.Duration {
	return time.Duration(asInt(e[k])) * time.Millisecond
}

// Bool returns the value for k as a bool. Non-bool values yield false.
func (e Effective) Bool(k Key) bool {
	b, _ := e[k].(bool)
	return b
}

// String returns the value for k as a string. Non-string values yield "".
func (e Effective) String(k Key) string {
	s, _ := e[k].(string)
	return s
}

// Locale parses the effective dateLocale into a language tag, falling back
// to English when the stored value is absent or unparseable.
func (e Effective) Locale() language.Tag {
	raw := e.String(KeyDateLocale)
	if raw == "" {
		return language.English
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.English
	}
	return tag
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	default:
		return 0
	}
}
