package risk

// keywordWeights maps analyzer-flagged keywords to score contributions.
// Keywords the analyzer flags but we have no weight for still count,
// at baselineKeywordWeight.
var keywordWeights = map[string]int{
	"money":             30,
	"transfer":          40,
	"urgent":            35,
	"otp":               60,
	"password":          70,
	"code":              50,
	"verification":      55,
	"bank account":      65,
	"credit card":       60,
	"phone_number":      45,
	"currency_amount":   50,
	"verification_code": 85,
}

const baselineKeywordWeight = 25

// ScoreKeywords sums the weights of the given keywords, capped at 100.
// An empty set scores 0.
func ScoreKeywords(keywords []string) int {
	total := 0
	for _, kw := range keywords {
		w, ok := keywordWeights[kw]
		if !ok {
			w = baselineKeywordWeight
		}
		total += w
	}
	if total > 100 {
		return 100
	}
	return total
}
