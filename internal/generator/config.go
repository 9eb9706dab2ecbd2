package generator

// Config drives the synthetic data generators.
type Config struct {
	NumUsers        int
	NumMerchants    int
	NumTransactions int
	FraudChance     float64
	ErrorChance     float64
	StartYear       int
	EndYear         int
	Seed            uint64
}

// DefaultConfig returns baseline settings producing a workable dataset.
func DefaultConfig() Config {
	return Config{
		NumUsers:        1000,
		NumMerchants:    200,
		NumTransactions: 100000,
		FraudChance:     0.015,
		ErrorChance:     0.02,
		StartYear:       2010,
		EndYear:         2022,
		Seed:            42,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.NumUsers <= 0 {
		c.NumUsers = def.NumUsers
	}
	if c.NumUsers > 65535 {
		c.NumUsers = 65535
	}
	if c.NumMerchants <= 0 {
		c.NumMerchants = def.NumMerchants
	}
	if c.NumTransactions <= 0 {
		c.NumTransactions = def.NumTransactions
	}
	if c.FraudChance <= 0 {
		c.FraudChance = def.FraudChance
	}
	if c.ErrorChance <= 0 {
		c.ErrorChance = def.ErrorChance
	}
	if c.StartYear <= 0 {
		c.StartYear = def.StartYear
	}
	if c.EndYear < c.StartYear {
		c.EndYear = c.StartYear
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	return c
}
