package economy

import (
	"github.com/xraph/economy/currency"
	"github.com/xraph/economy/settings"
)

// Re-export common types for convenience so users don't have to import
// the domain packages.

// Currency is re-exported from the currency package.
type Currency = currency.Currency

// TransactionResult is re-exported from the currency package.
type TransactionResult = currency.TransactionResult

// LeaderboardEntry is re-exported from the currency package.
type LeaderboardEntry = currency.LeaderboardEntry

// SettingKey is re-exported from the settings package.
type SettingKey = settings.Key

// Re-export the settings enumeration.
const (
	SettingDailyAmount          = settings.KeyDailyAmount
	SettingDailyCooldown        = settings.KeyDailyCooldown
	SettingWorkAmount           = settings.KeyWorkAmount
	SettingWorkCooldown         = settings.KeyWorkCooldown
	SettingWeeklyAmount         = settings.KeyWeeklyAmount
	SettingWeeklyCooldown       = settings.KeyWeeklyCooldown
	SettingDateLocale           = settings.KeyDateLocale
	SettingSubtractOnBuy        = settings.KeySubtractOnBuy
	SettingSellingItemPercent   = settings.KeySellingItemPercent
	SettingSavePurchasesHistory = settings.KeySavePurchasesHistory
)
