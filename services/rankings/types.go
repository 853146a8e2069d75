package rankings

import "errors"

var (
	ErrUnknownPersona  = errors.New("unknown stance type")
	ErrRankingNotFound = errors.New("ranking not generated yet")
)

// CompanyEntry is one row of a published ranking. The web app reads these
// fields verbatim, so the keys stay camelCase.
type CompanyEntry struct {
	Symbol    string `firestore:"symbol" json:"symbol"`
	Name      string `firestore:"name" json:"name"`
	Sector    string `firestore:"sector" json:"sector"`
	Score     int    `firestore:"score" json:"score"`
	Reasoning string `firestore:"reasoning" json:"reasoning"`
}

// Ranking is the enhanced_company_rankings/{stanceType} document. Timestamps
// are ISO-8601 strings because that is what the consumers already parse.
type Ranking struct {
	StanceType       string         `firestore:"stanceType" json:"stanceType"`
	SupportCompanies []CompanyEntry `firestore:"supportCompanies" json:"supportCompanies"`
	OpposeCompanies  []CompanyEntry `firestore:"opposeCompanies" json:"opposeCompanies"`
	UpdatedAt        string         `firestore:"updatedAt" json:"updatedAt"`
	ExpiresAt        string         `firestore:"expiresAt" json:"expiresAt"`
	Version          string         `firestore:"version" json:"version"`
}

// companyData bundles everything known about one ticker. Any of the four
// sources may be missing; scoring degrades gracefully.
type companyData struct {
	Ticker    string
	Name      string
	Sector    string
	FEC       *fecData
	ESG       *esgData
	Executive *executiveData
	News      []newsArticle
}

// fecData is the fec_data field of company_rankings_by_ticker/{ticker},
// written by the donations ingest pipeline.
type fecData struct {
	PartyTotals   map[string]partyTotal `firestore:"party_totals"`
	TotalUSD      float64               `firestore:"total_usd"`
	PoliticalLean *float64              `firestore:"political_lean_score"`
}

type partyTotal struct {
	TotalAmountUSD float64 `firestore:"total_amount_usd"`
}

// esgData is the summary field of company_esg_by_ticker/{ticker}.
type esgData struct {
	EnvironmentalScore *float64     `firestore:"environmentalScore"`
	SocialScore        *float64     `firestore:"socialScore"`
	GovernanceScore    *float64     `firestore:"governanceScore"`
	ESGScore           *float64     `firestore:"ESGScore"`
	ProgressiveLean    *float64     `firestore:"progressive_lean_score"`
	IndustrySectorAvg  *industryAvg `firestore:"industrySectorAvg"`
}

type industryAvg struct {
	ESGScore *float64 `firestore:"ESGScore"`
}

// executiveData is the analysis field of
// company_executive_statements_by_ticker/{ticker}.
type executiveData struct {
	HasStatements        bool                  `firestore:"has_executive_statements"`
	PoliticalStance      *politicalStance      `firestore:"political_stance"`
	RecommendationScore  *float64              `firestore:"recommendation_score"`
	SentimentAnalysis    *sentimentAnalysis    `firestore:"sentiment_analysis"`
	SocialResponsibility *socialResponsibility `firestore:"social_responsibility"`
}

type politicalStance struct {
	OverallLeaning string  `firestore:"overall_leaning"`
	Confidence     float64 `firestore:"confidence"`
}

type sentimentAnalysis struct {
	ControversyLevel     float64 `firestore:"controversy_level"`
	PublicPerceptionRisk string  `firestore:"public_perception_risk"`
	OverallSentiment     string  `firestore:"overall_sentiment"`
}

type socialResponsibility struct {
	LaborPractices      *float64 `firestore:"labor_practices_score"`
	CommunityEngagement *float64 `firestore:"community_engagement_score"`
	DiversityInclusion  *float64 `firestore:"diversity_inclusion_score"`
}

// newsArticle is the slice of a stored provider article the news scorer
// needs. The ticker snapshots are written without field tags, so the stored
// keys are the Go field names.
type newsArticle struct {
	Title        *string `firestore:"Title"`
	Description  *string `firestore:"Description"`
	PublishedUTC *string `firestore:"PublishedUTC"`
}

// tickerNewsDoc is the reduced read shape of company_news_by_ticker/{ticker}.
type tickerNewsDoc struct {
	Articles []newsArticle `firestore:"Articles"`
}

// trackedTicker is the reduced read shape of tracked_tickers/{ticker}.
type trackedTicker struct {
	Name   string `firestore:"Name"`
	Sector string `firestore:"Sector"`
}
