// README: Pay-rate definition for each service category.
package payquote

type Rate struct {
	Category   string
	BaseAmount int64 // covers the first hour
	PerHour    int64 // each additional hour
	Currency   string
}

type QuoteRequest struct {
	Category       string
	Hours          float64
	RequiredSkills []string
	Urgent         bool
}

type QuoteResult struct {
	Amount    int64
	Currency  string
	Breakdown map[string]int64
}
