package server

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Details any    `json:"details,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

// QuoteResponse carries base-unit amounts as decimal strings next to their
// human-readable renderings.
type QuoteResponse struct {
	PoolID               string  `json:"pool_id"`
	Currency0            string  `json:"currency0"`
	Currency1            string  `json:"currency1"`
	Fee                  uint32  `json:"fee"`
	TickSpacing          int32   `json:"tick_spacing"`
	Hooks                string  `json:"hooks"`
	ZeroForOne           bool    `json:"zero_for_one"`
	AmountIn             string  `json:"amount_in"`
	AmountOut            string  `json:"amount_out"`
	MinimumReceived      string  `json:"minimum_received"`
	FeeAmount            string  `json:"fee_amount"`
	AmountOutDisplay     string  `json:"amount_out_display"`
	MinimumDisplay       string  `json:"minimum_received_display"`
	FeeDisplay           string  `json:"fee_amount_display"`
	PriceImpact          float64 `json:"price_impact"`
	Severity             string  `json:"severity"`
	RequiresConfirmation bool    `json:"requires_confirmation"`
	ExchangeRate         string  `json:"exchange_rate"`
	InverseRate          string  `json:"inverse_rate"`
	SlippageBps          uint32  `json:"slippage_bps"`
}

type PoolIDResponse struct {
	PoolID      string `json:"pool_id"`
	Currency0   string `json:"currency0"`
	Currency1   string `json:"currency1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Hooks       string `json:"hooks"`
}
