// Package gather implements the gather and harvest actions.
package gather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/pkg/money"
)

// Item is something a user can find while gathering.
type Item struct {
	Key   string
	Name  string
	Value decimal.Decimal
}

// CounterKey is the per-user counter an item is tallied under.
func (i Item) CounterKey() string { return "item_" + i.Key }

// Items found while gathering, with their draw weights.
var Items = []game.Choice[Item]{
	{Value: Item{Key: "pebble", Name: "🪨 Pebble", Value: decimal.NewFromInt(1)}, Weight: 40},
	{Value: Item{Key: "herb", Name: "🌿 Herb", Value: decimal.NewFromInt(5)}, Weight: 30},
	{Value: Item{Key: "mushroom", Name: "🍄 Mushroom", Value: decimal.NewFromInt(12)}, Weight: 18},
	{Value: Item{Key: "amber", Name: "🟠 Amber", Value: decimal.NewFromInt(40)}, Weight: 9},
	{Value: Item{Key: "gem", Name: "💎 Gem", Value: decimal.NewFromInt(150)}, Weight: 3},
}

// Items found per gather.
const (
	MinFinds = 1
	MaxFinds = 3
)

// Gather finds a few random items and pays their value.
type Gather struct {
	table    *game.Table[Item]
	rng      *game.Rand
	cooldown time.Duration
}

// NewGather creates the gather action.
func NewGather(cooldown time.Duration, rng *game.Rand) *Gather {
	return &Gather{
		table:    game.NewTable(Items...),
		rng:      rng,
		cooldown: cooldown,
	}
}

func (g *Gather) Name() string            { return "Gather" }
func (g *Gather) Command() string         { return "gather" }
func (g *Gather) Cooldown() time.Duration { return g.cooldown }
func (g *Gather) Description() string {
	return fmt.Sprintf("Search the wilds for %d-%d items and sell them", MinFinds, MaxFinds)
}

// Perform implements game.Action.
func (g *Gather) Perform(_ context.Context, _ int64) (*game.Result, error) {
	n := g.rng.IntRange(MinFinds, MaxFinds)

	found := make(map[string]int64, n)
	var order []Item
	reward := decimal.Zero
	for i := 0; i < n; i++ {
		item := g.table.Pick(g.rng)
		if found[item.CounterKey()] == 0 {
			order = append(order, item)
		}
		found[item.CounterKey()]++
		reward = reward.Add(item.Value)
	}

	parts := make([]string, 0, len(order))
	for _, item := range order {
		parts = append(parts, fmt.Sprintf("%s x%d", item.Name, found[item.CounterKey()]))
	}

	return &game.Result{
		Reward:      reward,
		TxType:      model.TxTypeGather,
		Items:       found,
		Description: fmt.Sprintf("You found %s, worth %s", strings.Join(parts, ", "), money.Format(reward)),
	}, nil
}
