package audithook

// Action constants for audit events.
const (
	// Balance actions
	ActionBalanceSet        = "balance.set"
	ActionBalanceAdded      = "balance.added"
	ActionBalanceSubtracted = "balance.subtracted"

	// Currency actions
	ActionCurrencyCreated   = "currency.created"
	ActionCurrencyDeleted   = "currency.deleted"
	ActionCurrenciesCleared = "currency.cleared"

	// Settings actions
	ActionSettingChanged = "setting.changed"
	ActionSettingsReset  = "settings.reset"

	// Cooldown actions
	ActionCooldownCleared = "cooldown.cleared"
)

// Resource constants for audit events.
const (
	ResourceBalance  = "balance"
	ResourceCurrency = "currency"
	ResourceSettings = "settings"
	ResourceCooldown = "cooldown"
)

// Category constants for audit events.
const (
	CategoryEconomy       = "economy"
	CategoryConfiguration = "configuration"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
