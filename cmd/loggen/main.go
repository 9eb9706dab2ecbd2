package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/utopialabs/utopia/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users        = flag.Int("users", cfg.NumUsers, "number of users to draw transactions against")
		merchants    = flag.Int("merchants", cfg.NumMerchants, "number of merchants to draw transactions against")
		transactions = flag.Int("transactions", cfg.NumTransactions, "number of transactions to generate")
		fraudChance  = flag.Float64("fraud-chance", cfg.FraudChance, "probability of a transaction being fraudulent")
		errorChance  = flag.Float64("error-chance", cfg.ErrorChance, "probability of a transaction carrying errors")
		startYear    = flag.Int("start-year", cfg.StartYear, "first year of the generated time range")
		endYear      = flag.Int("end-year", cfg.EndYear, "last year of the generated time range")
		seed         = flag.Uint64("seed", cfg.Seed, "random seed for deterministic generation")
		output       = flag.String("output", "data/transactions.csv", "path of the transaction log to write")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:        *users,
		NumMerchants:    *merchants,
		NumTransactions: *transactions,
		FraudChance:     *fraudChance,
		ErrorChance:     *errorChance,
		StartYear:       *startYear,
		EndYear:         *endYear,
		Seed:            *seed,
	}

	// Same seed and sizes as datagen reproduce the same reference
	// dataset, so the log's user and merchant ids resolve in the store.
	gen := generator.New(genCfg)
	dataset := gen.Generate()

	file, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	if err := gen.WriteLog(file, dataset); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Wrote %d transactions to %s\n", *transactions, *output)
}
