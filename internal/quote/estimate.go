package quote

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapDesk/internal/dex"
)

const (
	feeDenominator = 1_000_000
	bpsDenominator = 10_000
	rateDecimals   = 6
)

// EstimateInput is everything Estimate needs. ReferencePrice is the spot
// price of tokenIn in tokenOut human units; nil disables price impact.
type EstimateInput struct {
	AmountIn        *big.Int
	Fee             uint32
	DecimalsIn      uint8
	DecimalsOut     uint8
	SlippagePercent float64
	ReferencePrice  *big.Rat
}

// Quote is a projection of the current trade inputs.
type Quote struct {
	AmountIn        *big.Int       `json:"amount_in"`
	AmountOut       *big.Int       `json:"amount_out"`
	MinimumReceived *big.Int       `json:"minimum_received"`
	FeeAmount       *big.Int       `json:"fee_amount"`
	PriceImpact     float64        `json:"price_impact"`
	Severity        Severity       `json:"severity"`
	ExchangeRate    string         `json:"exchange_rate"`
	InverseRate     string         `json:"inverse_rate"`
	SlippageBps     uint32         `json:"slippage_bps"`
	PoolKey         dex.PoolKey    `json:"pool_key"`
	PoolID          common.Hash    `json:"pool_id"`
	Params          dex.SwapParams `json:"params"`
}

// Estimate computes fee, output, minimum received, price impact and rates.
// A nil or non-positive amount yields a zero quote.
func Estimate(in EstimateInput) Quote {
	bps := SlippageBps(in.SlippagePercent)
	if in.AmountIn == nil || in.AmountIn.Sign() <= 0 {
		return zeroQuote(bps)
	}
	amountIn := new(big.Int).Set(in.AmountIn)

	feeAmount := new(big.Int).Mul(amountIn, new(big.Int).SetUint64(uint64(in.Fee)))
	feeAmount.Quo(feeAmount, big.NewInt(feeDenominator))
	afterFee := new(big.Int).Sub(amountIn, feeAmount)
	if afterFee.Sign() < 0 {
		afterFee.SetInt64(0)
	}

	amountOut := rescale(afterFee, in.DecimalsIn, in.DecimalsOut)

	minReceived := new(big.Int).Mul(amountOut, big.NewInt(int64(bpsDenominator-bps)))
	minReceived.Quo(minReceived, big.NewInt(bpsDenominator))

	humanIn := toHuman(amountIn, in.DecimalsIn)
	humanOut := toHuman(amountOut, in.DecimalsOut)

	impact := priceImpact(humanIn, humanOut, in.ReferencePrice)

	return Quote{
		AmountIn:        amountIn,
		AmountOut:       amountOut,
		MinimumReceived: minReceived,
		FeeAmount:       feeAmount,
		PriceImpact:     impact,
		Severity:        Classify(impact),
		ExchangeRate:    ratio(humanOut, humanIn),
		InverseRate:     ratio(humanIn, humanOut),
		SlippageBps:     bps,
	}
}

// SlippageBps converts a tolerance in percent to basis points, clamped to
// [0, 10000].
func SlippageBps(percent float64) uint32 {
	if math.IsNaN(percent) || percent <= 0 {
		return 0
	}
	bps := math.Floor(percent * 100)
	if bps >= bpsDenominator {
		return bpsDenominator
	}
	return uint32(bps)
}

func rescale(amount *big.Int, from, to uint8) *big.Int {
	switch {
	case to > from:
		return new(big.Int).Mul(amount, pow10(to-from))
	case from > to:
		return new(big.Int).Quo(amount, pow10(from-to))
	default:
		return new(big.Int).Set(amount)
	}
}

func priceImpact(humanIn, humanOut, reference *big.Rat) float64 {
	if reference == nil || reference.Sign() <= 0 {
		return 0
	}
	expected := new(big.Rat).Mul(humanIn, reference)
	if expected.Sign() == 0 {
		return 0
	}
	diff := new(big.Rat).Sub(expected, humanOut)
	if diff.Sign() <= 0 {
		return 0
	}
	diff.Quo(diff, expected)
	diff.Mul(diff, big.NewRat(100, 1))
	impact, _ := diff.Float64()
	return impact
}

func ratio(num, denom *big.Rat) string {
	if denom == nil || denom.Sign() == 0 {
		return "0"
	}
	return new(big.Rat).Quo(num, denom).FloatString(rateDecimals)
}

func zeroQuote(bps uint32) Quote {
	return Quote{
		AmountIn:        big.NewInt(0),
		AmountOut:       big.NewInt(0),
		MinimumReceived: big.NewInt(0),
		FeeAmount:       big.NewInt(0),
		Severity:        SeverityLow,
		ExchangeRate:    "0",
		InverseRate:     "0",
		SlippageBps:     bps,
	}
}
