package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/utopialabs/utopia/internal/generator"
	"github.com/utopialabs/utopia/internal/store"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users     = flag.Int("users", cfg.NumUsers, "number of users to generate")
		merchants = flag.Int("merchants", cfg.NumMerchants, "number of merchants to generate")
		seed      = flag.Uint64("seed", cfg.Seed, "random seed for deterministic generation")
		storeDir  = flag.String("store-dir", "data/store", "directory to write the reference store")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:     *users,
		NumMerchants: *merchants,
		Seed:         *seed,
	}

	gen := generator.New(genCfg)
	dataset := gen.Generate()

	st, err := store.Open(*storeDir, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := generator.WriteStore(st, dataset); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write store: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d users, %d merchants, %d states into %s\n",
		len(dataset.Users), len(dataset.Merchants), len(dataset.States), *storeDir)
}
