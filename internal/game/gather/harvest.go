package gather

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/pkg/money"
)

// Ripeness grades a harvest.
type Ripeness struct {
	Key        string
	Name       string
	Multiplier decimal.Decimal
}

// CounterKey is the per-user counter a ripeness tier is tallied under.
func (r Ripeness) CounterKey() string { return "harvest_" + r.Key }

// HarvestBase is the reward of a ripe harvest.
var HarvestBase = decimal.NewFromInt(60)

// Tiers of a harvest with their draw weights.
var Tiers = []game.Choice[Ripeness]{
	{Value: Ripeness{Key: "rotten", Name: "🥀 rotten", Multiplier: decimal.Zero}, Weight: 10},
	{Value: Ripeness{Key: "unripe", Name: "🍏 unripe", Multiplier: decimal.RequireFromString("0.5")}, Weight: 30},
	{Value: Ripeness{Key: "ripe", Name: "🍎 ripe", Multiplier: decimal.NewFromInt(1)}, Weight: 45},
	{Value: Ripeness{Key: "golden", Name: "🌟 golden", Multiplier: decimal.NewFromInt(3)}, Weight: 15},
}

// Harvest collects a crop whose value depends on its ripeness.
type Harvest struct {
	table    *game.Table[Ripeness]
	rng      *game.Rand
	cooldown time.Duration
}

// NewHarvest creates the harvest action.
func NewHarvest(cooldown time.Duration, rng *game.Rand) *Harvest {
	return &Harvest{
		table:    game.NewTable(Tiers...),
		rng:      rng,
		cooldown: cooldown,
	}
}

func (h *Harvest) Name() string            { return "Harvest" }
func (h *Harvest) Command() string         { return "harvest" }
func (h *Harvest) Cooldown() time.Duration { return h.cooldown }
func (h *Harvest) Description() string {
	return fmt.Sprintf("Collect your crop, worth up to %s when golden", money.Format(HarvestBase.Mul(decimal.NewFromInt(3))))
}

// Perform implements game.Action.
func (h *Harvest) Perform(_ context.Context, _ int64) (*game.Result, error) {
	tier := h.table.Pick(h.rng)
	reward := HarvestBase.Mul(tier.Multiplier)

	desc := fmt.Sprintf("Your crop came in %s and sold for %s", tier.Name, money.Format(reward))
	if reward.IsZero() {
		desc = fmt.Sprintf("Your crop came in %s. Nothing to sell this time", tier.Name)
	}

	return &game.Result{
		Reward:      reward,
		TxType:      model.TxTypeHarvest,
		Items:       map[string]int64{tier.CounterKey(): 1},
		Description: desc,
	}, nil
}

// Register adds both actions to the registry.
func Register(r *game.Registry, gatherCooldown, harvestCooldown time.Duration, rng *game.Rand) error {
	if err := r.Register(NewGather(gatherCooldown, rng)); err != nil {
		return err
	}
	return r.Register(NewHarvest(harvestCooldown, rng))
}

// Label returns the display name of an item or harvest counter.
func Label(counterKey string) (string, bool) {
	for _, c := range Items {
		if c.Value.CounterKey() == counterKey {
			return c.Value.Name, true
		}
	}
	for _, c := range Tiers {
		if c.Value.CounterKey() == counterKey {
			return "Harvest " + c.Value.Name, true
		}
	}
	return "", false
}
