package economy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	economy "github.com/xraph/economy"
	"github.com/xraph/economy/cache"
	"github.com/xraph/economy/cooldown"
	"github.com/xraph/economy/currency"
	"github.com/xraph/economy/event"
	"github.com/xraph/economy/settings"
	"github.com/xraph/economy/store"
	"github.com/xraph/economy/store/memory"
)

func newEngine(t *testing.T, opts ...economy.Option) *economy.Economy {
	t.Helper()
	e := economy.New(memory.New(), opts...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := e.Stop(); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	})
	return e
}

// ──────────────────────────────────────────────────
// Settings
// ──────────────────────────────────────────────────

func TestSettingsCascade(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, economy.WithStaticSettings(settings.Config{
		settings.KeyDailyAmount: int64(250),
	}))

	// No override: static wins over built-in default.
	v, err := e.Setting(ctx, settings.KeyDailyAmount, "g1")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if got := asInt(v); got != 250 {
		t.Fatalf("Setting() = %d, want static 250", got)
	}

	// Key absent from static: built-in default.
	v, err = e.Setting(ctx, settings.KeyWorkAmount, "g1")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if got := asInt(v); got != 50 {
		t.Fatalf("Setting() = %d, want default 50", got)
	}

	// Override wins over static, and the mutation returns the new
	// resolved view.
	eff, err := e.SetSetting(ctx, settings.KeyDailyAmount, int64(999), "g1")
	if err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if got := eff.Int(settings.KeyDailyAmount); got != 999 {
		t.Fatalf("SetSetting() resolved dailyAmount = %d, want override 999", got)
	}
	v, err = e.Setting(ctx, settings.KeyDailyAmount, "g1")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if got := asInt(v); got != 999 {
		t.Fatalf("Setting() = %d, want override 999", got)
	}

	// Other guilds are unaffected.
	v, err = e.Setting(ctx, settings.KeyDailyAmount, "g2")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if got := asInt(v); got != 250 {
		t.Fatalf("Setting() for other guild = %d, want 250", got)
	}

	// Deleting the override reverts to static.
	eff, existed, err := e.DeleteSetting(ctx, settings.KeyDailyAmount, "g1")
	if err != nil {
		t.Fatalf("DeleteSetting() error = %v", err)
	}
	if !existed {
		t.Fatal("DeleteSetting() = false, want true")
	}
	if got := eff.Int(settings.KeyDailyAmount); got != 250 {
		t.Fatalf("DeleteSetting() resolved dailyAmount = %d, want static 250", got)
	}
	v, err = e.Setting(ctx, settings.KeyDailyAmount, "g1")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if got := asInt(v); got != 250 {
		t.Fatalf("Setting() after delete = %d, want 250", got)
	}
}

func TestSettingsReset(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, existed, err := e.ResetSettings(ctx, "g1"); err != nil || existed {
		t.Fatalf("ResetSettings() on pristine guild = %v, %v, want false, nil", existed, err)
	}

	if _, err := e.SetSetting(ctx, settings.KeyWorkAmount, int64(77), "g1"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if _, err := e.SetSetting(ctx, settings.KeySubtractOnBuy, false, "g1"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	eff, existed, err := e.ResetSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("ResetSettings() error = %v", err)
	}
	if !existed {
		t.Fatal("ResetSettings() = false, want true")
	}
	if eff.Int(settings.KeyWorkAmount) != 50 {
		t.Fatalf("ResetSettings() resolved workAmount = %d, want default 50", eff.Int(settings.KeyWorkAmount))
	}

	eff, err = e.Settings(ctx, "g1")
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if eff.Int(settings.KeyWorkAmount) != 50 {
		t.Fatalf("workAmount after reset = %d, want default 50", eff.Int(settings.KeyWorkAmount))
	}
	if !eff.Bool(settings.KeySubtractOnBuy) {
		t.Fatal("subtractOnBuy after reset = false, want default true")
	}
}

func TestSettingValidation(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, err := e.Setting(ctx, settings.Key("bogus"), "g1"); !errors.Is(err, economy.ErrInvalidKey) {
		t.Fatalf("Setting() with unknown key error = %v, want ErrInvalidKey", err)
	}
	if _, err := e.SetSetting(ctx, settings.Key("bogus"), 1, "g1"); !errors.Is(err, economy.ErrInvalidKey) {
		t.Fatalf("SetSetting() with unknown key error = %v, want ErrInvalidKey", err)
	}
	if _, _, err := e.DeleteSetting(ctx, settings.Key("bogus"), "g1"); !errors.Is(err, economy.ErrInvalidKey) {
		t.Fatalf("DeleteSetting() with unknown key error = %v, want ErrInvalidKey", err)
	}

	// A rejected key leaves no partial write behind.
	eff, err := e.Settings(ctx, "g1")
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if eff.Int(settings.KeyDailyAmount) != 100 {
		t.Fatalf("dailyAmount = %d, want untouched default 100", eff.Int(settings.KeyDailyAmount))
	}

	// Values are stored as given: only the key is checked, the caller
	// owns the value's shape.
	if _, err := e.SetSetting(ctx, settings.KeyDailyAmount, "not a number", "g1"); err != nil {
		t.Fatalf("SetSetting() with odd value error = %v, want nil", err)
	}
	v, err := e.Setting(ctx, settings.KeyDailyAmount, "g1")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if v != "not a number" {
		t.Fatalf("Setting() = %v, want the stored string back", v)
	}
}

// ──────────────────────────────────────────────────
// Currencies
// ──────────────────────────────────────────────────

func TestCreateCurrency(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, err := e.CreateCurrency(ctx, "Gold", "G", ""); !errors.Is(err, economy.ErrInvalidType) {
		t.Fatalf("CreateCurrency() with empty guild ID error = %v, want ErrInvalidType", err)
	}

	gold, err := e.CreateCurrency(ctx, "Gold", "G", "g1")
	if err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}
	if gold.ID != 1 {
		t.Fatalf("first currency ID = %d, want 1", gold.ID)
	}

	silver, err := e.CreateCurrency(ctx, "Silver", "S", "g1")
	if err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}
	if silver.ID != 2 {
		t.Fatalf("second currency ID = %d, want 2", silver.ID)
	}

	// Colliding create returns the existing record and adds nothing.
	again, err := e.CreateCurrency(ctx, "gold", "X", "g1")
	if err != nil {
		t.Fatalf("CreateCurrency() on collision error = %v", err)
	}
	if again.ID != gold.ID {
		t.Fatalf("colliding create returned ID %d, want existing %d", again.ID, gold.ID)
	}

	list, err := e.Currencies(ctx, "g1")
	if err != nil {
		t.Fatalf("Currencies() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Currencies() len = %d, want 2", len(list))
	}
}

func TestCreateCurrencyIDsAfterDelete(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	for _, c := range [][2]string{{"Gold", "G"}, {"Silver", "S"}, {"Copper", "C"}} {
		if _, err := e.CreateCurrency(ctx, c[0], c[1], "g1"); err != nil {
			t.Fatalf("CreateCurrency(%s) error = %v", c[0], err)
		}
	}
	if _, err := e.DeleteCurrency(ctx, "Copper", "g1"); err != nil {
		t.Fatalf("DeleteCurrency() error = %v", err)
	}

	// Next ID is max+1 over what remains, so IDs can be reused.
	c, err := e.CreateCurrency(ctx, "Iron", "I", "g1")
	if err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}
	if c.ID != 3 {
		t.Fatalf("ID after delete = %d, want 3", c.ID)
	}
}

func TestFindCurrency(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	created, err := e.CreateCurrency(ctx, "Gold", "G", "g1")
	if err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}

	for _, identifier := range []string{"1", "Gold", "gold", "GOLD", "g"} {
		c, err := e.FindCurrency(ctx, identifier, "g1")
		if err != nil {
			t.Fatalf("FindCurrency(%q) error = %v", identifier, err)
		}
		if c == nil || c.ID != created.ID {
			t.Fatalf("FindCurrency(%q) = %v, want currency %d", identifier, c, created.ID)
		}
	}

	c, err := e.FindCurrency(ctx, "Platinum", "g1")
	if err != nil {
		t.Fatalf("FindCurrency() error = %v", err)
	}
	if c != nil {
		t.Fatalf("FindCurrency() on miss = %v, want nil", c)
	}
}

func TestEditCurrency(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, err := e.CreateCurrency(ctx, "Gold", "G", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}

	edited, err := e.EditCurrency(ctx, "Gold", currency.PropertyName, "Doubloons", "g1")
	if err != nil {
		t.Fatalf("EditCurrency() error = %v", err)
	}
	if edited.Name != "Doubloons" {
		t.Fatalf("edited name = %q, want Doubloons", edited.Name)
	}

	// The old name no longer resolves; the new one does.
	if c, _ := e.FindCurrency(ctx, "Gold", "g1"); c != nil {
		t.Fatal("old name still resolves after rename")
	}
	if c, _ := e.FindCurrency(ctx, "doubloons", "g1"); c == nil {
		t.Fatal("new name does not resolve after rename")
	}

	if _, err := e.EditCurrency(ctx, "Doubloons", currency.Property("balances"), 1, "g1"); !errors.Is(err, economy.ErrInvalidProperty) {
		t.Fatalf("EditCurrency() with bad property error = %v, want ErrInvalidProperty", err)
	}
	if _, err := e.EditCurrency(ctx, "Nothing", currency.PropertyName, "X", "g1"); !errors.Is(err, economy.ErrCurrencyNotFound) {
		t.Fatalf("EditCurrency() on missing currency error = %v, want ErrCurrencyNotFound", err)
	}

	custom := map[string]any{"emoji": ":coin:"}
	withCustom, err := e.SetCurrencyCustom(ctx, "Doubloons", custom, "g1")
	if err != nil {
		t.Fatalf("SetCurrencyCustom() error = %v", err)
	}
	if withCustom.Custom["emoji"] != ":coin:" {
		t.Fatalf("custom data = %v, want emoji set", withCustom.Custom)
	}
}

func TestDeleteCurrency(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, err := e.CreateCurrency(ctx, "Gold", "G", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}

	removed, err := e.DeleteCurrency(ctx, "Gold", "g1")
	if err != nil {
		t.Fatalf("DeleteCurrency() error = %v", err)
	}
	if removed == nil || removed.Name != "Gold" {
		t.Fatalf("DeleteCurrency() = %v, want removed Gold", removed)
	}

	// Deleting a non-existent currency is nil, nil and changes nothing.
	removed, err = e.DeleteCurrency(ctx, "Gold", "g1")
	if err != nil {
		t.Fatalf("DeleteCurrency() on miss error = %v", err)
	}
	if removed != nil {
		t.Fatalf("DeleteCurrency() on miss = %v, want nil", removed)
	}

	list, err := e.Currencies(ctx, "g1")
	if err != nil {
		t.Fatalf("Currencies() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("Currencies() len = %d, want 0", len(list))
	}
}

func TestClearCurrencies(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if existed, err := e.ClearCurrencies(ctx, "g1"); err != nil || existed {
		t.Fatalf("ClearCurrencies() on empty guild = %v, %v, want false, nil", existed, err)
	}

	if _, err := e.CreateCurrency(ctx, "Gold", "G", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}
	if _, err := e.CreateCurrency(ctx, "Silver", "S", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}

	existed, err := e.ClearCurrencies(ctx, "g1")
	if err != nil {
		t.Fatalf("ClearCurrencies() error = %v", err)
	}
	if !existed {
		t.Fatal("ClearCurrencies() = false, want true")
	}

	list, err := e.Currencies(ctx, "g1")
	if err != nil {
		t.Fatalf("Currencies() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("Currencies() after clear len = %d, want 0", len(list))
	}
}

// ──────────────────────────────────────────────────
// Balances
// ──────────────────────────────────────────────────

func TestBalances(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, err := e.CreateCurrency(ctx, "Gold", "G", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}

	// Absent member reads zero.
	bal, err := e.GetBalance(ctx, "Gold", "m1", "g1")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if bal != 0 {
		t.Fatalf("GetBalance() for absent member = %d, want 0", bal)
	}

	res, err := e.SetBalance(ctx, "Gold", 100, "m1", "g1", "starting grant")
	if err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}
	if res.OldBalance != 0 || res.NewBalance != 100 {
		t.Fatalf("SetBalance() result = %d -> %d, want 0 -> 100", res.OldBalance, res.NewBalance)
	}
	if res.Status != currency.StatusSuccess {
		t.Fatalf("SetBalance() status = %q, want success", res.Status)
	}
	if res.ID.Prefix() != "txn" {
		t.Fatalf("transaction ID prefix = %q, want txn", res.ID.Prefix())
	}

	res, err = e.AddBalance(ctx, "Gold", 50, "m1", "g1", "")
	if err != nil {
		t.Fatalf("AddBalance() error = %v", err)
	}
	if res.NewBalance != 150 {
		t.Fatalf("AddBalance() new = %d, want 150", res.NewBalance)
	}

	res, err = e.SubtractBalance(ctx, "Gold", 20, "m1", "g1", "")
	if err != nil {
		t.Fatalf("SubtractBalance() error = %v", err)
	}
	if res.NewBalance != 130 {
		t.Fatalf("SubtractBalance() new = %d, want 130", res.NewBalance)
	}

	bal, err = e.GetBalance(ctx, "Gold", "m1", "g1")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if bal != 130 {
		t.Fatalf("GetBalance() = %d, want 130", bal)
	}

	// Negative balances are allowed.
	res, err = e.SubtractBalance(ctx, "Gold", 500, "m1", "g1", "fine")
	if err != nil {
		t.Fatalf("SubtractBalance() error = %v", err)
	}
	if res.NewBalance != -370 {
		t.Fatalf("SubtractBalance() below zero = %d, want -370", res.NewBalance)
	}

	if _, err := e.SetBalance(ctx, "Nothing", 1, "m1", "g1", ""); !errors.Is(err, economy.ErrCurrencyNotFound) {
		t.Fatalf("SetBalance() on missing currency error = %v, want ErrCurrencyNotFound", err)
	}
}

type balanceEventRecorder struct {
	sets, adds, subtracts []*event.Payload
}

func (balanceEventRecorder) Name() string { return "balance-recorder" }

func (r *balanceEventRecorder) OnBalanceSet(_ context.Context, p *event.Payload) error {
	r.sets = append(r.sets, p)
	return nil
}

func (r *balanceEventRecorder) OnBalanceAdd(_ context.Context, p *event.Payload) error {
	r.adds = append(r.adds, p)
	return nil
}

func (r *balanceEventRecorder) OnBalanceSubtract(_ context.Context, p *event.Payload) error {
	r.subtracts = append(r.subtracts, p)
	return nil
}

func TestBalanceEventsAreMutuallyExclusive(t *testing.T) {
	ctx := context.Background()
	rec := &balanceEventRecorder{}
	e := newEngine(t, economy.WithSubscriber(rec))

	if _, err := e.CreateCurrency(ctx, "Gold", "G", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}
	if _, err := e.SetBalance(ctx, "Gold", 10, "m1", "g1", ""); err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}
	if _, err := e.AddBalance(ctx, "Gold", 50, "m1", "g1", ""); err != nil {
		t.Fatalf("AddBalance() error = %v", err)
	}
	if _, err := e.SubtractBalance(ctx, "Gold", 20, "m1", "g1", ""); err != nil {
		t.Fatalf("SubtractBalance() error = %v", err)
	}

	if len(rec.sets) != 1 || len(rec.adds) != 1 || len(rec.subtracts) != 1 {
		t.Fatalf("events = %d set, %d add, %d subtract, want exactly 1 of each",
			len(rec.sets), len(rec.adds), len(rec.subtracts))
	}

	add := rec.adds[0]
	if add.Type != event.TypeBalanceAdd {
		t.Fatalf("add event type = %q, want %q", add.Type, event.TypeBalanceAdd)
	}
	if add.OldBalance != 10 || add.Balance != 60 || add.Amount != 50 {
		t.Fatalf("add payload = %d -> %d (amount %d), want 10 -> 60 (amount 50)",
			add.OldBalance, add.Balance, add.Amount)
	}
	if add.ID.Prefix() != "evt" {
		t.Fatalf("event ID prefix = %q, want evt", add.ID.Prefix())
	}
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, err := e.CreateCurrency(ctx, "Gold", "G", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}

	for member, amount := range map[string]int64{"a": 30, "b": 50, "c": 10} {
		if _, err := e.SetBalance(ctx, "Gold", amount, member, "g1", ""); err != nil {
			t.Fatalf("SetBalance(%s) error = %v", member, err)
		}
	}

	board, err := e.Leaderboard(ctx, "Gold", "g1")
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}

	want := []currency.LeaderboardEntry{
		{Index: 1, UserID: "b", Money: 50},
		{Index: 2, UserID: "a", Money: 30},
		{Index: 3, UserID: "c", Money: 10},
	}
	if len(board) != len(want) {
		t.Fatalf("Leaderboard() len = %d, want %d", len(board), len(want))
	}
	for i := range want {
		if board[i] != want[i] {
			t.Fatalf("Leaderboard()[%d] = %+v, want %+v", i, board[i], want[i])
		}
	}
}

// ──────────────────────────────────────────────────
// Cooldowns
// ──────────────────────────────────────────────────

func TestCooldowns(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e := newEngine(t, economy.WithClock(func() time.Time { return now }))

	tracker, err := e.Cooldowns(ctx, "g1", "m1")
	if err != nil {
		t.Fatalf("Cooldowns() error = %v", err)
	}

	// Never claimed: nil view, no error.
	view, err := tracker.Daily(ctx)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if view != nil {
		t.Fatalf("Daily() before any claim = %v, want nil", view)
	}

	// Record a claim two hours ago; the default daily cooldown is 24h.
	claimed := now.Add(-2 * time.Hour)
	if err := e.Store().Set(ctx, store.At("g1", "cooldowns", "m1", string(cooldown.Daily)), claimed.UnixMilli()); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	view, err = tracker.Daily(ctx)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if view == nil {
		t.Fatal("Daily() after claim = nil, want view")
	}
	if view.Ready() {
		t.Fatal("Ready() two hours into a 24h cooldown = true, want false")
	}
	if view.Remaining != 22*time.Hour {
		t.Fatalf("Remaining = %v, want 22h", view.Remaining)
	}

	// Clearing reports existence and makes the reward claimable again.
	existed, err := tracker.ClearDaily(ctx)
	if err != nil {
		t.Fatalf("ClearDaily() error = %v", err)
	}
	if !existed {
		t.Fatal("ClearDaily() = false, want true")
	}
	if existed, _ := tracker.ClearDaily(ctx); existed {
		t.Fatal("second ClearDaily() = true, want false")
	}
	view, err = tracker.Daily(ctx)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if view != nil {
		t.Fatalf("Daily() after clear = %v, want nil", view)
	}
}

func TestCooldownsUseGuildSettings(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e := newEngine(t, economy.WithClock(func() time.Time { return now }))

	// Shorten the guild's work cooldown to 10 minutes.
	if _, err := e.SetSetting(ctx, settings.KeyWorkCooldown, (10 * time.Minute).Milliseconds(), "g1"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	tracker, err := e.Cooldowns(ctx, "g1", "m1")
	if err != nil {
		t.Fatalf("Cooldowns() error = %v", err)
	}
	if tracker.Durations().Work != 10*time.Minute {
		t.Fatalf("work duration = %v, want 10m", tracker.Durations().Work)
	}

	claimed := now.Add(-15 * time.Minute)
	if err := e.Store().Set(ctx, store.At("g1", "cooldowns", "m1", string(cooldown.Work)), claimed.UnixMilli()); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	view, err := tracker.Work(ctx)
	if err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if view == nil || !view.Ready() {
		t.Fatalf("Work() = %v, want ready view", view)
	}
}

// ──────────────────────────────────────────────────
// Concurrency and cache behavior
// ──────────────────────────────────────────────────

// Settings writes, balance mutations and cooldown clears on one guild
// all rewrite parts of the same document, so they must not lose each
// other's updates under contention.
func TestConcurrentGuildMutations(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	if _, err := e.CreateCurrency(ctx, "Gold", "G", "g1"); err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := e.AddBalance(ctx, "Gold", 1, "m1", "g1", ""); err != nil {
					t.Errorf("AddBalance() error = %v", err)
					return
				}
				if _, err := e.SetSetting(ctx, settings.KeyDailyAmount, n, "g1"); err != nil {
					t.Errorf("SetSetting() error = %v", err)
					return
				}
			}
		}(int64(i + 1))
	}
	wg.Wait()

	bal, err := e.GetBalance(ctx, "Gold", "m1", "g1")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if bal != workers*perWorker {
		t.Fatalf("GetBalance() after %d increments = %d, want %d", workers*perWorker, bal, workers*perWorker)
	}

	// Whatever write won last, the override must have survived the
	// interleaved balance writes.
	v, err := e.Setting(ctx, settings.KeyDailyAmount, "g1")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if got := asInt(v); got < 1 || got > workers {
		t.Fatalf("Setting() = %d, want a worker-written value in [1, %d]", got, workers)
	}
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []cache.Partition
}

func (r *recordingInvalidator) UpdateMany(_ context.Context, partitions []cache.Partition, _ cache.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, partitions...)
	return nil
}

func (r *recordingInvalidator) count(p cache.Partition) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.calls {
		if got == p {
			n++
		}
	}
	return n
}

// Settings removals invalidate the guilds partition even when no
// override existed, so cached resolutions never outlive the call.
func TestSettingsRemovalAlwaysInvalidates(t *testing.T) {
	ctx := context.Background()
	inv := &recordingInvalidator{}
	e := newEngine(t, economy.WithCache(inv))

	before := inv.count(cache.PartitionGuilds)
	if _, existed, err := e.DeleteSetting(ctx, settings.KeyDailyAmount, "g1"); err != nil || existed {
		t.Fatalf("DeleteSetting() on pristine guild = %v, %v, want false, nil", existed, err)
	}
	if got := inv.count(cache.PartitionGuilds); got != before+1 {
		t.Fatalf("guilds invalidations after no-op delete = %d, want %d", got, before+1)
	}

	if _, existed, err := e.ResetSettings(ctx, "g1"); err != nil || existed {
		t.Fatalf("ResetSettings() on pristine guild = %v, %v, want false, nil", existed, err)
	}
	if got := inv.count(cache.PartitionGuilds); got != before+2 {
		t.Fatalf("guilds invalidations after no-op reset = %d, want %d", got, before+2)
	}
}

type reentrantSubscriber struct {
	e *economy.Economy
}

func (reentrantSubscriber) Name() string { return "reentrant" }

func (s *reentrantSubscriber) OnCurrencyCreated(ctx context.Context, guildID string, _ *currency.Currency) error {
	_, err := s.e.SetSetting(ctx, settings.KeyDailyAmount, int64(123), guildID)
	return err
}

// Events fire after the per-guild mutex is released, so a subscriber
// may call back into the engine for the same guild.
func TestSubscriberMayReenterEngine(t *testing.T) {
	ctx := context.Background()
	sub := &reentrantSubscriber{}
	e := newEngine(t, economy.WithSubscriber(sub))
	sub.e = e

	done := make(chan error, 1)
	go func() {
		_, err := e.CreateCurrency(ctx, "Gold", "G", "g1")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("CreateCurrency() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("CreateCurrency() blocked on a reentrant subscriber")
	}

	v, err := e.Setting(ctx, settings.KeyDailyAmount, "g1")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if got := asInt(v); got != 123 {
		t.Fatalf("Setting() = %d, want subscriber-written 123", got)
	}
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return -1
	}
}
