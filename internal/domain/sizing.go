package domain

type MarginMode string

const (
	MarginFixed            MarginMode = "fixed"
	MarginPercentOfBalance MarginMode = "percent"
)

// SizingParams configures how an order quantity is derived from the account.
//
//	notional = Leverage * (FixedMargin | balance*PercentOfBalance)
//	quantity = max(MinOrderSize, round(notional/price, RoundingDigits))
type SizingParams struct {
	MarginMode       MarginMode `yaml:"margin_mode" json:"margin_mode"`
	FixedMargin      float64    `yaml:"fixed_margin" json:"fixed_margin"`
	PercentOfBalance float64    `yaml:"percent_of_balance" json:"percent_of_balance"`
	Leverage         int        `yaml:"leverage" json:"leverage"`
	MinOrderSize     float64    `yaml:"min_order_size" json:"min_order_size"`
	RoundingDigits   int        `yaml:"rounding_digits" json:"rounding_digits"`
}
