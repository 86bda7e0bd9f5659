package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/model"
	"swapDesk/internal/quote"
	"swapDesk/internal/swaperr"
)

// TokenLookup resolves token metadata when a request omits decimals.
type TokenLookup interface {
	Lookup(ctx context.Context, token common.Address) (model.TokenMeta, error)
}

// Defaults fill in optional query parameters.
type Defaults struct {
	Fee             uint32
	SlippagePercent float64
	Hooks           common.Address
}

// Handlers serves the quote API.
type Handlers struct {
	Quoter   *quote.Quoter
	Tokens   TokenLookup
	Defaults Defaults
	DevMode  bool
	Timeout  time.Duration
	Logger   *zap.Logger
}

func (h *Handlers) err(c echo.Context, code int, msg string, cause error) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if kind := swaperr.KindOf(cause); kind != "" {
		resp.Kind = string(kind)
	}
	if h.DevMode && cause != nil {
		resp.Details = cause.Error()
	}
	return c.JSON(code, resp)
}

func (h *Handlers) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handlers) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := h.Timeout
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Quote handles GET /v1/quote.
func (h *Handlers) Quote(c echo.Context) error {
	if h.Quoter == nil {
		return h.err(c, http.StatusServiceUnavailable, "quoter is not configured", nil)
	}

	tokenIn, err := dex.ParseToken(c.QueryParam("tokenIn"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid tokenIn", err)
	}
	tokenOut, err := dex.ParseToken(c.QueryParam("tokenOut"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid tokenOut", err)
	}
	amount := strings.TrimSpace(c.QueryParam("amount"))
	if amount == "" {
		return h.err(c, http.StatusBadRequest, "amount is required", nil)
	}
	fee, err := h.feeParam(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fee", err)
	}
	hooks, err := h.hooksParam(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid hooks", err)
	}
	slippage := h.Defaults.SlippagePercent
	if v := strings.TrimSpace(c.QueryParam("slippage")); v != "" {
		slippage, err = strconv.ParseFloat(v, 64)
		if err != nil || slippage < 0 || slippage > 100 {
			return h.err(c, http.StatusBadRequest, "invalid slippage", err)
		}
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	decimalsIn, err := h.decimals(ctx, c.QueryParam("decimalsIn"), tokenIn)
	if err != nil {
		return h.decimalsErr(c, "decimalsIn", tokenIn, err)
	}
	decimalsOut, err := h.decimals(ctx, c.QueryParam("decimalsOut"), tokenOut)
	if err != nil {
		return h.decimalsErr(c, "decimalsOut", tokenOut, err)
	}

	q, err := h.Quoter.Quote(ctx, quote.Request{
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		Amount:          amount,
		DecimalsIn:      decimalsIn,
		DecimalsOut:     decimalsOut,
		Fee:             fee,
		SlippagePercent: slippage,
		Hooks:           hooks,
	})
	if err != nil {
		if errors.Is(err, swaperr.InvalidPoolError) {
			return h.err(c, http.StatusBadRequest, "invalid pool", err)
		}
		h.logger().Error("quote failed", zap.Error(err))
		return h.err(c, http.StatusBadGateway, "quote failed", err)
	}
	if q == nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", swaperr.New(swaperr.KindParse, fmt.Sprintf("cannot parse %q", amount)))
	}

	return c.JSON(http.StatusOK, quoteResponse(q, decimalsIn, decimalsOut))
}

// PoolID handles GET /v1/pool-id.
func (h *Handlers) PoolID(c echo.Context) error {
	tokenA, err := dex.ParseToken(c.QueryParam("tokenA"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid tokenA", err)
	}
	tokenB, err := dex.ParseToken(c.QueryParam("tokenB"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid tokenB", err)
	}
	fee, err := h.feeParam(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fee", err)
	}
	hooks, err := h.hooksParam(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid hooks", err)
	}
	key, err := dex.BuildPoolKey(tokenA, tokenB, fee, hooks)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", err)
	}
	return c.JSON(http.StatusOK, PoolIDResponse{
		PoolID:      key.ID().Hex(),
		Currency0:   key.Currency0.Hex(),
		Currency1:   key.Currency1.Hex(),
		Fee:         key.Fee,
		TickSpacing: key.TickSpacing,
		Hooks:       key.Hooks.Hex(),
	})
}

func (h *Handlers) feeParam(c echo.Context) (uint32, error) {
	v := strings.TrimSpace(c.QueryParam("fee"))
	if v == "" {
		return h.Defaults.Fee, nil
	}
	fee, err := strconv.ParseUint(v, 10, 24)
	if err != nil {
		return 0, swaperr.Wrap(swaperr.KindInvalidPool, "fee must be a 24-bit unsigned integer", err)
	}
	return uint32(fee), nil
}

func (h *Handlers) hooksParam(c echo.Context) (common.Address, error) {
	v := strings.TrimSpace(c.QueryParam("hooks"))
	if v == "" {
		return h.Defaults.Hooks, nil
	}
	return dex.ParseToken(v)
}

func (h *Handlers) decimals(ctx context.Context, raw string, token common.Address) (uint8, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		d, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return 0, swaperr.Wrap(swaperr.KindParse, "decimals must be 0..255", err)
		}
		return uint8(d), nil
	}
	if dex.IsNative(token) {
		return dex.NativeDecimals, nil
	}
	if h.Tokens == nil {
		return 0, swaperr.New(swaperr.KindParse, "decimals are required for "+token.Hex())
	}
	meta, err := h.Tokens.Lookup(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("lookup %s: %w", token.Hex(), err)
	}
	return meta.Decimals, nil
}

// decimalsErr answers 400 for bad decimals input and 502 when the token
// metadata lookup failed.
func (h *Handlers) decimalsErr(c echo.Context, param string, token common.Address, err error) error {
	if swaperr.KindOf(err) == swaperr.KindParse {
		return h.err(c, http.StatusBadRequest, "invalid "+param, err)
	}
	h.logger().Warn("token lookup failed", zap.String("token", token.Hex()), zap.Error(err))
	return h.err(c, http.StatusBadGateway, "token metadata unavailable", err)
}

func quoteResponse(q *quote.Quote, decimalsIn, decimalsOut uint8) QuoteResponse {
	return QuoteResponse{
		PoolID:               q.PoolID.Hex(),
		Currency0:            q.PoolKey.Currency0.Hex(),
		Currency1:            q.PoolKey.Currency1.Hex(),
		Fee:                  q.PoolKey.Fee,
		TickSpacing:          q.PoolKey.TickSpacing,
		Hooks:                q.PoolKey.Hooks.Hex(),
		ZeroForOne:           q.Params.ZeroForOne,
		AmountIn:             q.AmountIn.String(),
		AmountOut:            q.AmountOut.String(),
		MinimumReceived:      q.MinimumReceived.String(),
		FeeAmount:            q.FeeAmount.String(),
		AmountOutDisplay:     quote.FormatTokenAmount(q.AmountOut, decimalsOut),
		MinimumDisplay:       quote.FormatTokenAmount(q.MinimumReceived, decimalsOut),
		FeeDisplay:           quote.FormatTokenAmount(q.FeeAmount, decimalsIn),
		PriceImpact:          q.PriceImpact,
		Severity:             q.Severity.String(),
		RequiresConfirmation: q.Severity.RequiresConfirmation(),
		ExchangeRate:         q.ExchangeRate,
		InverseRate:          q.InverseRate,
		SlippageBps:          q.SlippageBps,
	}
}
