package scenario

import (
	"math/rand"

	"scamshield/internal/types"
)

// BuiltIn returns the demo scenario catalog shipped with the monitor.
// Timings and risk values are fixed input data, not engine logic.
func BuiltIn() []types.Scenario {
	return []types.Scenario{
		{
			ID:          "legitimate_insurance",
			Title:       "Legitimate Insurance Call",
			Language:    "en",
			MaxRisk:     18,
			DurationMs:  12000,
			Description: "Normal business call from insurance provider",
			Messages: []types.Segment{
				{Speaker: types.SpeakerCaller, Text: "Hello, this is Jennifer from ABC Insurance calling about your policy renewal.", Risk: 8, TimestampMs: 0, Analysis: "Normal business greeting with company identification"},
				{Speaker: types.SpeakerCaller, Text: "Your current policy expires next month and I wanted to discuss your coverage options.", Risk: 12, TimestampMs: 3000, Analysis: "Legitimate business purpose clearly stated"},
				{Speaker: types.SpeakerUser, Text: "Yes, I was expecting your call. What do I need to know?", Risk: 5, TimestampMs: 6000, Analysis: "User response indicates familiarity"},
				{Speaker: types.SpeakerCaller, Text: "I can email you the renewal documents to review at your convenience.", Risk: 10, TimestampMs: 9000, Analysis: "Professional approach, no pressure tactics"},
			},
		},
		{
			ID:          "suspicious_bank",
			Title:       "Suspicious Bank Call",
			Language:    "en",
			MaxRisk:     52,
			DurationMs:  10000,
			Description: "Caller claiming to be from bank security",
			Messages: []types.Segment{
				{Speaker: types.SpeakerCaller, Text: "This is the security department from your bank calling about unusual activity.", Risk: 28, TimestampMs: 0, Analysis: "Generic security claim without specific bank name"},
				{Speaker: types.SpeakerCaller, Text: "We need to verify your account information to protect your funds.", Risk: 45, TimestampMs: 3500, Analysis: "Request for sensitive information under security pretext"},
				{Speaker: types.SpeakerUser, Text: "Which bank are you calling from? What account number?", Risk: 8, TimestampMs: 7000, Analysis: "User appropriately requesting verification"},
				{Speaker: types.SpeakerCaller, Text: "I cannot provide that for security reasons. Please confirm your details now.", Risk: 52, TimestampMs: 8500, Analysis: "Evasive response combined with urgency - suspicious pattern"},
			},
		},
		{
			ID:          "irs_scam",
			Title:       "IRS Impersonation Scam",
			Language:    "en",
			MaxRisk:     96,
			DurationMs:  11000,
			Description: "High-risk scam impersonating government agency",
			Messages: []types.Segment{
				{Speaker: types.SpeakerCaller, Text: "This is Officer Johnson from the Internal Revenue Service.", Risk: 65, TimestampMs: 0, Analysis: "Government impersonation with fake authority title"},
				{Speaker: types.SpeakerCaller, Text: "Your social security number has been suspended due to fraudulent activity.", Risk: 78, TimestampMs: 3000, Analysis: "False claim about SSN suspension - common scam tactic"},
				{Speaker: types.SpeakerCaller, Text: "You must pay $2,500 immediately with Bitcoin or face arrest within 24 hours.", Risk: 96, TimestampMs: 6500, Analysis: "Critical red flags: payment demand, cryptocurrency, arrest threat"},
				{Speaker: types.SpeakerUser, Text: "This sounds like a scam. I'm ending this call.", Risk: 5, TimestampMs: 9500, Analysis: "User correctly identifying scam and taking protective action"},
			},
		},
		{
			ID:          "spanish_bank_scam",
			Title:       "Estafa Bancaria",
			Language:    "es",
			MaxRisk:     89,
			DurationMs:  9500,
			Description: "Spanish language banking scam",
			Messages: []types.Segment{
				{Speaker: types.SpeakerCaller, Text: "Buenos días, soy del departamento de seguridad de su banco.", Risk: 42, TimestampMs: 0, Analysis: "Generic bank security claim without bank identification"},
				{Speaker: types.SpeakerCaller, Text: "Su cuenta ha sido comprometida y necesitamos verificar su información ahora mismo.", Risk: 68, TimestampMs: 3000, Analysis: "Account compromise claim with urgent verification request"},
				{Speaker: types.SpeakerCaller, Text: "Por favor proporcione su número de cuenta y código de seguridad inmediatamente.", Risk: 89, TimestampMs: 6500, Analysis: "Direct request for sensitive banking information"},
			},
		},
		{
			ID:          "french_tax_scam",
			Title:       "Arnaque Fiscale",
			Language:    "fr",
			MaxRisk:     94,
			DurationMs:  8500,
			Description: "French language tax office scam",
			Messages: []types.Segment{
				{Speaker: types.SpeakerCaller, Text: "Bonjour, ici l'administration fiscale française concernant vos impôts.", Risk: 45, TimestampMs: 0, Analysis: "Tax authority impersonation - common in France"},
				{Speaker: types.SpeakerCaller, Text: "Vous devez régler immédiatement 1800 euros d'arriérés d'impôts.", Risk: 76, TimestampMs: 3000, Analysis: "Immediate payment demand for tax arrears"},
				{Speaker: types.SpeakerCaller, Text: "Payez avec des cartes cadeaux Bitcoin sinon nous lancerons une procédure judiciaire.", Risk: 94, TimestampMs: 6000, Analysis: "Cryptocurrency payment demand with legal threats - clear scam"},
			},
		},
		{
			ID:          "legitimate_customer_service",
			Title:       "Service Client Légitime",
			Language:    "fr",
			MaxRisk:     15,
			DurationMs:  7000,
			Description: "Legitimate French customer service call",
			Messages: []types.Segment{
				{Speaker: types.SpeakerCaller, Text: "Bonjour, je suis Marie du service client de votre opérateur téléphonique Orange.", Risk: 10, TimestampMs: 0, Analysis: "Specific company identification and personal name"},
				{Speaker: types.SpeakerCaller, Text: "Je vous appelle pour vous informer d'une nouvelle offre disponible sur votre compte.", Risk: 15, TimestampMs: 3500, Analysis: "Informational purpose, no pressure or urgency"},
				{Speaker: types.SpeakerUser, Text: "Merci, pouvez-vous m'envoyer les détails par courrier?", Risk: 5, TimestampMs: 6000, Analysis: "User requesting written information - good practice"},
			},
		},
	}
}

// PickRandom selects a scenario, preferring ones in the given language and
// falling back to the full catalog when none match.
func PickRandom(rng *rand.Rand, catalog []types.Scenario, language string) (types.Scenario, bool) {
	if len(catalog) == 0 {
		return types.Scenario{}, false
	}
	var matching []types.Scenario
	for _, s := range catalog {
		if s.Language == language {
			matching = append(matching, s)
		}
	}
	pool := matching
	if len(pool) == 0 {
		pool = catalog
	}
	return pool[rng.Intn(len(pool))], true
}
