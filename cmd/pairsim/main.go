// Command pairsim runs a backtest from the command line: a thin wrapper
// over engine.Runner, flags in, a summary line out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pairsim/commission"
	"pairsim/engine"
	"pairsim/internal/cache"
	"pairsim/internal/provider/alpaca"
	"pairsim/pricebar"
	"pairsim/strategy/ggr"
)

func main() {
	symbols := flag.String("symbols", "", "comma-separated symbol list")
	start := flag.String("start", "", "backtest start date, YYYY-MM-DD")
	end := flag.String("end", "", "backtest end date, YYYY-MM-DD")
	capital := flag.Float64("capital", 100000, "initial capital")
	capitalPerPair := flag.Float64("capital-per-pair", 10000, "capital allocated per opened pair")
	cacheDir := flag.String("cache-dir", "./pairsim-cache", "on-disk price cache directory")
	flag.Parse()

	if *symbols == "" || *start == "" || *end == "" {
		fmt.Fprintln(os.Stderr, "usage: pairsim -symbols=AAA,BBB,CCC -start=YYYY-MM-DD -end=YYYY-MM-DD")
		os.Exit(2)
	}

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}
	symbolList := strings.Split(*symbols, ",")

	lookbackStart := startDate.AddDate(0, 0, -ggr.DefaultFormationPeriod*2)

	apiKey := os.Getenv("APCA_API_KEY_ID")
	apiSecret := os.Getenv("APCA_API_SECRET_KEY")
	provider := alpaca.New(apiKey, apiSecret)

	c, err := cache.New(*cacheDir, provider)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}

	ctx := context.Background()
	if err := c.RefillStale(ctx, symbolList, lookbackStart, endDate); err != nil {
		log.Fatalf("refilling cache: %v", err)
	}

	var bars []pricebar.Bar
	for _, sym := range symbolList {
		priceBars, err := c.Get(ctx, sym, lookbackStart, endDate)
		if err != nil {
			log.Fatalf("fetching %s: %v", sym, err)
		}
		for _, pb := range priceBars {
			bars = append(bars, pb.Float())
		}
	}

	config := engine.BacktestConfig{
		StartDate:      startDate,
		EndDate:        endDate,
		InitialCapital: *capital,
		CapitalPerPair: *capitalPerPair,
		PriceColumn:    pricebar.ColumnAdjClose,
		Commission:     commission.PerShare{Rate: 0.005, Min: 1.0},
	}

	runner, err := engine.NewRunner(config)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	strat := ggr.New(symbolList)
	result, err := runner.Run(strat, bars)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Println(result.Summary())
}
