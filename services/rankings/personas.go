package rankings

// The eight political stance personas rankings are generated for. The
// numbers mirror the persona scoring configuration the web app applies, so
// both sides rank companies identically.

type FECConfig struct {
	// Positive prefers Democratic donations, negative Republican, zero
	// rewards balance.
	PartyPreference float64
	// How much large donation totals count against a company.
	AmountSensitivity float64
}

type ESGConfig struct {
	EnvironmentalWeight float64
	SocialWeight        float64
	GovernanceWeight    float64
	PreferHighESG       bool
	ESGImportance       float64
}

type ExecutiveConfig struct {
	PreferredLeanings   []string
	ConfidenceThreshold float64
}

type NewsConfig struct {
	// Positive prefers positive coverage, negative prefers critical
	// coverage, zero rewards balance.
	SentimentPreference float64
	NewsImportance      float64
}

type PersonaConfig struct {
	FEC       FECConfig
	ESG       ESGConfig
	Executive ExecutiveConfig
	News      NewsConfig
}

// Personas lists the stance types in their canonical order.
var Personas = []string{
	"progressive-globalist",
	"progressive-nationalist",
	"socialist-libertarian",
	"socialist-nationalist",
	"capitalist-globalist",
	"capitalist-nationalist",
	"conservative-globalist",
	"conservative-nationalist",
}

var personaConfigs = map[string]PersonaConfig{
	"progressive-globalist": {
		FEC: FECConfig{PartyPreference: 0.9, AmountSensitivity: 0.5},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.4,
			SocialWeight:        0.4,
			GovernanceWeight:    0.2,
			PreferHighESG:       true,
			ESGImportance:       0.9,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"progressive", "liberal", "moderate"},
			ConfidenceThreshold: 60,
		},
		News: NewsConfig{SentimentPreference: 0.3, NewsImportance: 0.6},
	},
	"progressive-nationalist": {
		FEC: FECConfig{PartyPreference: 0.8, AmountSensitivity: 0.7},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.35,
			SocialWeight:        0.35,
			GovernanceWeight:    0.3,
			PreferHighESG:       true,
			ESGImportance:       0.8,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"progressive", "liberal", "moderate"},
			ConfidenceThreshold: 65,
		},
		News: NewsConfig{SentimentPreference: 0.2, NewsImportance: 0.5},
	},
	"socialist-libertarian": {
		FEC: FECConfig{PartyPreference: 0.7, AmountSensitivity: 0.8},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.3,
			SocialWeight:        0.4,
			GovernanceWeight:    0.3,
			PreferHighESG:       true,
			ESGImportance:       0.7,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"progressive", "liberal", "moderate", "libertarian"},
			ConfidenceThreshold: 60,
		},
		News: NewsConfig{SentimentPreference: 0.0, NewsImportance: 0.4},
	},
	"socialist-nationalist": {
		FEC: FECConfig{PartyPreference: 0.6, AmountSensitivity: 0.9},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.3,
			SocialWeight:        0.4,
			GovernanceWeight:    0.3,
			PreferHighESG:       true,
			ESGImportance:       0.6,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"progressive", "moderate", "conservative"},
			ConfidenceThreshold: 65,
		},
		News: NewsConfig{SentimentPreference: -0.2, NewsImportance: 0.5},
	},
	"capitalist-globalist": {
		FEC: FECConfig{PartyPreference: 0.3, AmountSensitivity: 0.2},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.3,
			SocialWeight:        0.4,
			GovernanceWeight:    0.3,
			PreferHighESG:       true,
			ESGImportance:       0.7,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"liberal", "moderate", "conservative"},
			ConfidenceThreshold: 55,
		},
		News: NewsConfig{SentimentPreference: 0.4, NewsImportance: 0.6},
	},
	"capitalist-nationalist": {
		FEC: FECConfig{PartyPreference: 0.2, AmountSensitivity: 0.3},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.25,
			SocialWeight:        0.35,
			GovernanceWeight:    0.4,
			PreferHighESG:       true,
			ESGImportance:       0.5,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"moderate", "conservative", "libertarian"},
			ConfidenceThreshold: 60,
		},
		News: NewsConfig{SentimentPreference: 0.3, NewsImportance: 0.5},
	},
	"conservative-globalist": {
		FEC: FECConfig{PartyPreference: -0.8, AmountSensitivity: 0.2},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.2,
			SocialWeight:        0.2,
			GovernanceWeight:    0.6,
			PreferHighESG:       false,
			ESGImportance:       0.4,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"conservative", "moderate", "libertarian"},
			ConfidenceThreshold: 60,
		},
		News: NewsConfig{SentimentPreference: 0.2, NewsImportance: 0.5},
	},
	"conservative-nationalist": {
		FEC: FECConfig{PartyPreference: -0.9, AmountSensitivity: 0.4},
		ESG: ESGConfig{
			EnvironmentalWeight: 0.15,
			SocialWeight:        0.25,
			GovernanceWeight:    0.6,
			PreferHighESG:       false,
			ESGImportance:       0.3,
		},
		Executive: ExecutiveConfig{
			PreferredLeanings:   []string{"conservative", "moderate"},
			ConfidenceThreshold: 65,
		},
		News: NewsConfig{SentimentPreference: 0.0, NewsImportance: 0.4},
	},
}

// ValidPersona reports whether the stance type is one of the eight.
func ValidPersona(persona string) bool {
	_, ok := personaConfigs[persona]
	return ok
}

// personaDescriptions feed the comprehensive model prompt.
var personaDescriptions = map[string]string{
	"progressive-globalist":    "Left-leaning economics, Progressive social values, Pro-international cooperation",
	"progressive-nationalist":  "Left-leaning economics, Progressive social values, Domestic focus",
	"socialist-libertarian":    "Left economics, Traditional social values, International cooperation",
	"socialist-nationalist":    "Left economics, Traditional social values, Strong nationalism",
	"capitalist-globalist":     "Free market, Progressive social values, Global trade",
	"capitalist-nationalist":   "Free market, Progressive social values, America First",
	"conservative-globalist":   "Free market, Traditional social values, International trade",
	"conservative-nationalist": "Free market, Traditional social values, Domestic priority",
}
