package quote

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/swaperr"
)

// PriceSource supplies the reference spot price of tokenIn expressed in
// tokenOut human units.
type PriceSource interface {
	SpotPrice(ctx context.Context, key dex.PoolKey, tokenIn common.Address, decimalsIn, decimalsOut uint8) (*big.Rat, error)
}

// StaticPrice is a fixed PriceSource.
type StaticPrice struct {
	Price *big.Rat
}

func (s StaticPrice) SpotPrice(context.Context, dex.PoolKey, common.Address, uint8, uint8) (*big.Rat, error) {
	if s.Price == nil {
		return nil, nil
	}
	return new(big.Rat).Set(s.Price), nil
}

// Request is a trade intent as entered by a user.
type Request struct {
	TokenIn         common.Address
	TokenOut        common.Address
	Amount          string
	DecimalsIn      uint8
	DecimalsOut     uint8
	Fee             uint32
	SlippagePercent float64
	Hooks           common.Address
}

// Quoter turns requests into quotes using an injected price source.
type Quoter struct {
	prices PriceSource
	logger *zap.Logger
}

func NewQuoter(prices PriceSource, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{prices: prices, logger: logger}
}

// Quote validates the pool, parses the amount and estimates the trade.
// Malformed amounts yield a nil quote and no error. Identical tokens fail
// with InvalidPoolError.
func (q *Quoter) Quote(ctx context.Context, req Request) (*Quote, error) {
	key, err := dex.BuildPoolKey(req.TokenIn, req.TokenOut, req.Fee, req.Hooks)
	if err != nil {
		return nil, err
	}

	amount, err := ParseTokenAmount(req.Amount, req.DecimalsIn)
	if err != nil {
		if errors.Is(err, swaperr.ParseError) {
			q.logger.Debug("amount not parseable", zap.String("amount", req.Amount), zap.Error(err))
			return nil, nil
		}
		return nil, err
	}

	params, err := dex.BuildSwapParams(req.TokenIn, req.TokenOut, amount, true)
	if err != nil {
		return nil, err
	}

	var reference *big.Rat
	if amount.Sign() > 0 && q.prices != nil {
		reference, err = q.prices.SpotPrice(ctx, key, req.TokenIn, req.DecimalsIn, req.DecimalsOut)
		if err != nil {
			q.logger.Warn("reference price unavailable", zap.String("pool", key.ID().Hex()), zap.Error(err))
			reference = nil
		}
	}

	result := Estimate(EstimateInput{
		AmountIn:        amount,
		Fee:             req.Fee,
		DecimalsIn:      req.DecimalsIn,
		DecimalsOut:     req.DecimalsOut,
		SlippagePercent: req.SlippagePercent,
		ReferencePrice:  reference,
	})
	result.PoolKey = key
	result.PoolID = key.ID()
	result.Params = params
	return &result, nil
}
