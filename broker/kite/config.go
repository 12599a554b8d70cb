package kite

// Config carries Kite Connect credentials and order defaults.
type Config struct {
	BaseURL     string `yaml:"base_url" env:"KITE_BASE_URL"`
	APIKey      string `yaml:"api_key" env:"KITE_API_KEY"`
	AccessToken string `yaml:"access_token" env:"KITE_ACCESS_TOKEN"`
	Exchange    string `yaml:"exchange"` // e.g. "NSE"
	Product     string `yaml:"product"`  // CNC, MIS or NRML
	Variety     string `yaml:"variety"`  // regular, amo, co
}

// DefaultConfig returns the production endpoint with CNC regular orders.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.kite.trade",
		Exchange: "NSE",
		Product:  "CNC",
		Variety:  "regular",
	}
}
