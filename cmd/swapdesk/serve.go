package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/quote"
	"swapDesk/internal/server"
)

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	hooks, err := e.hooks()
	if err != nil {
		return err
	}
	handlers := &server.Handlers{
		Defaults: server.Defaults{Fee: e.cfg.Fee, SlippagePercent: e.cfg.SlippagePercent, Hooks: hooks},
		Logger:   e.logger,
	}
	handlers.DevMode, _ = cmd.Flags().GetBool("dev")

	var prices quote.PriceSource
	if e.cfg.RPCURL != "" {
		session, err := e.openSession(false)
		if err != nil {
			return err
		}
		defer session.Teardown()
		caller := session.Backend()
		handlers.Tokens = dex.TokenResolver{Caller: caller, Cache: dex.NewTokenMetaCache(), Logger: e.logger}
		prices = e.priceSource(caller)
	} else {
		e.logger.Info("no rpc configured, decimals must be passed explicitly")
	}
	handlers.Quoter = quote.NewQuoter(prices, e.logger)

	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")
	srv := server.New(handlers, server.Config{
		Addr:      e.cfg.Listen,
		DevMode:   handlers.DevMode,
		RateLimit: rateLimit,
		RateBurst: 10,
	}, e.logger)

	e.logger.Info("quote api start",
		zap.String("listen", e.cfg.Listen),
		zap.Bool("price_impact", prices != nil),
	)
	return srv.Run(e.ctx)
}
