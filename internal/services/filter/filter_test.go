package filter

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/config"
	"github.com/thecrazygm/automarket/internal/entity"
)

func balance(symbol string, amount float64) entity.TokenBalance {
	return entity.TokenBalance{Symbol: symbol, Amount: decimal.NewFromFloat(amount)}
}

func TestSelectTargetsSingleSymbol(t *testing.T) {
	f := NewFilter(zap.NewNop())
	cfg := config.RunConfig{MinAmount: decimal.NewFromInt(1), TargetSymbol: "SWAP.HIVE"}
	balances := []entity.TokenBalance{
		balance("LEO", 5),
		balance("PIZZA", 100),
	}

	intents := f.SelectTargets("alice", balances, cfg, "leo", entity.DirectionSell)
	require.Len(t, intents, 1)
	assert.Equal(t, "LEO", intents[0].Symbol)
	assert.Equal(t, "alice", intents[0].Account)
	assert.True(t, intents[0].Amount.Equal(decimal.NewFromInt(5)))
	assert.True(t, intents[0].Price.IsZero(), "price stays unresolved")
}

func TestSelectTargetsSingleSymbolBelowMinimum(t *testing.T) {
	f := NewFilter(zap.NewNop())
	cfg := config.RunConfig{MinAmount: decimal.NewFromInt(1)}

	intents := f.SelectTargets("bob", []entity.TokenBalance{balance("SYM", 0.5)}, cfg, "SYM", entity.DirectionSell)
	assert.Empty(t, intents)

	// amount equal to the minimum does not qualify either
	intents = f.SelectTargets("bob", []entity.TokenBalance{balance("SYM", 1)}, cfg, "SYM", entity.DirectionSell)
	assert.Empty(t, intents)
}

func TestSelectTargetsSingleSymbolAbsent(t *testing.T) {
	f := NewFilter(zap.NewNop())
	cfg := config.RunConfig{MinAmount: decimal.Zero}

	intents := f.SelectTargets("bob", []entity.TokenBalance{balance("LEO", 5)}, cfg, "GHOST", entity.DirectionSell)
	assert.Empty(t, intents)
}

func TestSelectTargetsAllSymbolsExclusions(t *testing.T) {
	f := NewFilter(zap.NewNop())
	cfg := config.RunConfig{
		MinAmount:    decimal.NewFromFloat(0.001),
		TargetSymbol: "SWAP.HIVE",
		Whitelist:    []string{"bee", "ARCHON"},
	}
	balances := []entity.TokenBalance{
		balance("LEO", 5),
		balance("swap.hive", 100), // settlement symbol, case-insensitive
		balance("BEE", 3),         // whitelisted, case-insensitive
		balance("Archon", 2),      // whitelisted
		balance("DUST", 0.0001),   // below minimum
		balance("PIZZA", 7),
	}

	intents := f.SelectTargets("alice", balances, cfg, "", entity.DirectionSell)
	require.Len(t, intents, 2)
	// upstream order preserved
	assert.Equal(t, "LEO", intents[0].Symbol)
	assert.Equal(t, "PIZZA", intents[1].Symbol)
}

func TestSelectTargetsCapClamping(t *testing.T) {
	f := NewFilter(zap.NewNop())
	cfg := config.RunConfig{
		MinAmount: decimal.Zero,
		MaxAmount: decimal.NewFromInt(10),
	}

	intents := f.SelectTargets("alice", []entity.TokenBalance{balance("LEO", 25)}, cfg, "LEO", entity.DirectionSell)
	require.Len(t, intents, 1)
	assert.True(t, intents[0].Amount.Equal(decimal.NewFromInt(10)), "got %s", intents[0].Amount)

	// below the cap the full balance is used
	intents = f.SelectTargets("alice", []entity.TokenBalance{balance("LEO", 8)}, cfg, "LEO", entity.DirectionSell)
	require.Len(t, intents, 1)
	assert.True(t, intents[0].Amount.Equal(decimal.NewFromInt(8)))
}

func TestSelectTargetsNoCapWhenUnset(t *testing.T) {
	f := NewFilter(zap.NewNop())
	cfg := config.RunConfig{MinAmount: decimal.Zero}

	intents := f.SelectTargets("alice", []entity.TokenBalance{balance("LEO", 12345)}, cfg, "LEO", entity.DirectionSell)
	require.Len(t, intents, 1)
	assert.True(t, intents[0].Amount.Equal(decimal.NewFromInt(12345)))
}

func TestSelectTargetsDirectionCarriedThrough(t *testing.T) {
	f := NewFilter(zap.NewNop())
	cfg := config.RunConfig{MinAmount: decimal.Zero}

	intents := f.SelectTargets("alice", []entity.TokenBalance{balance("SWAP.HIVE", 10)}, cfg, "SWAP.HIVE", entity.DirectionBuy)
	require.Len(t, intents, 1)
	assert.Equal(t, entity.DirectionBuy, intents[0].Direction)
}
