package rankings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xorcare/pointer"
)

func TestSourceWeights(t *testing.T) {
	fec, esg, exec, news := sourceWeights(true, true, true, true)
	assert.InDelta(t, 0.4, fec, 1e-9)
	assert.InDelta(t, 0.3, esg, 1e-9)
	assert.InDelta(t, 0.2, exec, 1e-9)
	assert.InDelta(t, 0.1, news, 1e-9)

	// Missing sources redistribute proportionally.
	fec, esg, exec, news = sourceWeights(false, true, true, true)
	assert.Zero(t, fec)
	assert.InDelta(t, 0.5, esg, 1e-9)
	assert.InDelta(t, 1.0/3.0, exec, 1e-9)
	assert.InDelta(t, 1.0/6.0, news, 1e-9)

	fec, esg, exec, news = sourceWeights(false, false, false, true)
	assert.Zero(t, fec)
	assert.Zero(t, esg)
	assert.Zero(t, exec)
	assert.InDelta(t, 1.0, news, 1e-9)

	fec, esg, exec, news = sourceWeights(false, false, false, false)
	assert.Zero(t, fec+esg+exec+news)
}

func TestScoreFECMissingData(t *testing.T) {
	assert.Nil(t, scoreFEC(nil, "progressive-globalist"))
	assert.Nil(t, scoreFEC(&fecData{TotalUSD: 100}, "progressive-globalist"), "No party breakdown")
	assert.Nil(t, scoreFEC(&fecData{
		PartyTotals: map[string]partyTotal{"DEM": {TotalAmountUSD: 0}},
	}, "progressive-globalist"), "Zero total")
}

func TestScoreFECPartisanAlignment(t *testing.T) {
	pureDem := &fecData{
		PartyTotals: map[string]partyTotal{"DEM": {TotalAmountUSD: 500_000}},
		TotalUSD:    500_000,
	}

	// Alignment 90, amount penalty 2.5, baseline +20, clamped from 107.5.
	score := scoreFEC(pureDem, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 100, *score, 1e-9)

	// Same donor through Republican eyes: alignment 0, penalty 2, baseline 20.
	score = scoreFEC(pureDem, "conservative-nationalist")
	require.NotNil(t, score)
	assert.InDelta(t, 18, *score, 1e-9)
}

func TestScoreFECLeanBlend(t *testing.T) {
	data := &fecData{
		PartyTotals: map[string]partyTotal{
			"DEM": {TotalAmountUSD: 300_000},
			"REP": {TotalAmountUSD: 700_000},
		},
		TotalUSD:      1_000_000,
		PoliticalLean: pointer.Float64(40),
	}

	// Alignment 9, penalty 2, baseline 20 gives 27; lean blend
	// 27*0.8 + 70*0.2 = 35.6; two parties, no diversity adjustment.
	score := scoreFEC(data, "capitalist-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 35.6, *score, 1e-9)
}

func TestScoreFECDiversityBonus(t *testing.T) {
	data := &fecData{
		PartyTotals: map[string]partyTotal{
			"DEM": {TotalAmountUSD: 100_000},
			"REP": {TotalAmountUSD: 100_000},
			"OTH": {TotalAmountUSD: 50_000},
		},
		TotalUSD: 250_000,
	}

	// capitalist-nationalist is near-neutral (0.2): alignment 8, penalty
	// 0.75, baseline 20, diversity bonus 5.
	score := scoreFEC(data, "capitalist-nationalist")
	require.NotNil(t, score)
	assert.InDelta(t, 32.25, *score, 1e-9)
}

func TestScoreESG(t *testing.T) {
	assert.Nil(t, scoreESG(nil, "progressive-globalist"))
	assert.Nil(t, scoreESG(&esgData{}, "progressive-globalist"), "All sub-scores missing")

	data := &esgData{
		EnvironmentalScore: pointer.Float64(80),
		SocialScore:        pointer.Float64(70),
		GovernanceScore:    pointer.Float64(60),
	}

	// Weighted 72, importance 0.9: 72*0.9 + 50*0.1.
	score := scoreESG(data, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 69.8, *score, 1e-9)

	// Anti-regulation personas invert: weighted 66 becomes 34, importance
	// 0.4: 34*0.4 + 50*0.6.
	score = scoreESG(data, "conservative-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 43.6, *score, 1e-9)
}

func TestScoreESGDefaultsMissingSubScores(t *testing.T) {
	data := &esgData{EnvironmentalScore: pointer.Float64(80)}

	// Social and governance default to 50: weighted 62, then 62*0.9 + 5.
	score := scoreESG(data, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 60.8, *score, 1e-9)
}

func TestScoreESGProgressiveLean(t *testing.T) {
	data := &esgData{
		EnvironmentalScore: pointer.Float64(80),
		SocialScore:        pointer.Float64(70),
		GovernanceScore:    pointer.Float64(60),
		ProgressiveLean:    pointer.Float64(90),
	}

	// 69.8*0.7 + 90*0.3.
	score := scoreESG(data, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 75.86, *score, 1e-9)

	// The lean only applies to progressive/socialist personas.
	score = scoreESG(data, "capitalist-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 72*0.7+50*0.3, *score, 1e-9)
}

func TestScoreESGIndustryRelative(t *testing.T) {
	data := &esgData{
		EnvironmentalScore: pointer.Float64(80),
		SocialScore:        pointer.Float64(70),
		GovernanceScore:    pointer.Float64(60),
		ESGScore:           pointer.Float64(60),
		IndustrySectorAvg:  &industryAvg{ESGScore: pointer.Float64(50)},
	}

	// 20% above the sector average caps the bonus at +5.
	score := scoreESG(data, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 74.8, *score, 1e-9)

	// Inverted personas subtract the bonus.
	score = scoreESG(data, "conservative-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 38.6, *score, 1e-9)
}

func TestScoreExecutive(t *testing.T) {
	assert.Nil(t, scoreExecutive(nil, "progressive-globalist"))
	assert.Nil(t, scoreExecutive(&executiveData{}, "progressive-globalist"), "No statements")

	lowConfidence := &executiveData{
		HasStatements:   true,
		PoliticalStance: &politicalStance{OverallLeaning: "progressive", Confidence: 50},
	}
	score := scoreExecutive(lowConfidence, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 50, *score, 1e-9, "Below the confidence threshold everything is neutral")

	aligned := &executiveData{
		HasStatements:       true,
		PoliticalStance:     &politicalStance{OverallLeaning: "progressive", Confidence: 80},
		RecommendationScore: pointer.Float64(70),
	}
	score = scoreExecutive(aligned, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 85, *score, 1e-9, "Matching leaning boosts by 15")

	opposed := &executiveData{
		HasStatements:       true,
		PoliticalStance:     &politicalStance{OverallLeaning: "conservative", Confidence: 80},
		RecommendationScore: pointer.Float64(70),
	}
	score = scoreExecutive(opposed, "progressive-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 55, *score, 1e-9, "Opposing leaning docks 15")
}

func TestScoreExecutiveSentiment(t *testing.T) {
	data := &executiveData{
		HasStatements:       true,
		PoliticalStance:     &politicalStance{OverallLeaning: "progressive", Confidence: 70},
		RecommendationScore: pointer.Float64(60),
		SentimentAnalysis: &sentimentAnalysis{
			ControversyLevel:     8,
			PublicPerceptionRisk: "high",
			OverallSentiment:     "positive",
		},
	}

	// 60+15 for the match, +4 controversy (anti-establishment), -5 risk,
	// +3 sentiment.
	score := scoreExecutive(data, "socialist-nationalist")
	require.NotNil(t, score)
	assert.InDelta(t, 77, *score, 1e-9)

	capitalist := &executiveData{
		HasStatements:       true,
		PoliticalStance:     &politicalStance{OverallLeaning: "moderate", Confidence: 60},
		RecommendationScore: pointer.Float64(50),
		SentimentAnalysis:   &sentimentAnalysis{ControversyLevel: 5},
	}

	// 50+15 for the match, -4 controversy.
	score = scoreExecutive(capitalist, "capitalist-globalist")
	require.NotNil(t, score)
	assert.InDelta(t, 61, *score, 1e-9)
}

func TestScoreExecutiveSocialResponsibility(t *testing.T) {
	data := &executiveData{
		HasStatements:       true,
		PoliticalStance:     &politicalStance{OverallLeaning: "liberal", Confidence: 70},
		RecommendationScore: pointer.Float64(50),
		SocialResponsibility: &socialResponsibility{
			LaborPractices:      pointer.Float64(90),
			CommunityEngagement: pointer.Float64(80),
			DiversityInclusion:  pointer.Float64(100),
		},
	}

	// 50+15, labor +6.4, community +3.6, diversity +10.
	score := scoreExecutive(data, "progressive-nationalist")
	require.NotNil(t, score)
	assert.InDelta(t, 85, *score, 1e-9)

	conservative := &executiveData{
		HasStatements:        true,
		PoliticalStance:      &politicalStance{OverallLeaning: "conservative", Confidence: 70},
		RecommendationScore:  pointer.Float64(50),
		SocialResponsibility: &socialResponsibility{DiversityInclusion: pointer.Float64(100)},
	}

	// 50+15, diversity focus docks 2.
	score = scoreExecutive(conservative, "conservative-nationalist")
	require.NotNil(t, score)
	assert.InDelta(t, 63, *score, 1e-9)
}

func newsAt(title string, published time.Time) newsArticle {
	utc := published.UTC().Format(time.RFC3339)
	return newsArticle{Title: &title, PublishedUTC: &utc}
}

func TestScoreNews(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, scoreNews(nil, "capitalist-globalist", now))

	// Ten fresh neutral articles: recency 100, sentiment 50, volume 70*1.1.
	var fresh []newsArticle
	for range 10 {
		fresh = append(fresh, newsAt("quarterly report", now.Add(-48*time.Hour)))
	}
	score := scoreNews(fresh, "capitalist-globalist", now)
	require.NotNil(t, score)
	assert.InDelta(t, 65.24, *score, 0.001)
}

func TestScoreNewsSentiment(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	var upbeat []newsArticle
	for range 5 {
		upbeat = append(upbeat, newsAt("Record growth and innovation success", now.Add(-24*time.Hour)))
	}

	// Pure positive keywords: sentiment 100+20=120, recency 100, volume 55.
	score := scoreNews(upbeat, "capitalist-globalist", now)
	require.NotNil(t, score)
	assert.InDelta(t, 79.4, *score, 0.001)

	var critical []newsArticle
	for range 5 {
		critical = append(critical, newsAt("lawsuit investigation scandal", now.Add(-24*time.Hour)))
	}

	// Controversy-leaning persona rewards critical coverage.
	score = scoreNews(critical, "socialist-nationalist", now)
	require.NotNil(t, score)
	assert.InDelta(t, 62.75, *score, 0.001)
}

func TestScoreNewsRecencyBuckets(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	// One this week (100), one this month (60), one old (30) and one with a
	// broken date, which counts as old (30).
	articles := []newsArticle{
		newsAt("quarterly report", now.Add(-24*time.Hour)),
		newsAt("quarterly report", now.Add(-14*24*time.Hour)),
		newsAt("quarterly report", now.Add(-90*24*time.Hour)),
		{Title: pointer.String("quarterly report"), PublishedUTC: pointer.String("not a date")},
	}

	// Recency (100+60+30+30)/4 = 55, sentiment 50, volume 30*1.1=33,
	// combined 48.6, importance 0.6.
	score := scoreNews(articles, "capitalist-globalist", now)
	require.NotNil(t, score)
	assert.InDelta(t, 48.6*0.6+50*0.4, *score, 0.001)
}

func TestNumericalScore(t *testing.T) {
	now := time.Now()

	empty := numericalScore(companyData{}, "progressive-globalist", now)
	assert.False(t, empty.HasData)
	assert.Zero(t, empty.Sources)
	assert.InDelta(t, 50, empty.Numerical, 1e-9, "No data defaults to neutral")

	fecOnly := numericalScore(companyData{
		FEC: &fecData{
			PartyTotals: map[string]partyTotal{"DEM": {TotalAmountUSD: 500_000}},
			TotalUSD:    500_000,
		},
	}, "progressive-globalist", now)
	assert.True(t, fecOnly.HasData)
	assert.Equal(t, 1, fecOnly.Sources)
	require.NotNil(t, fecOnly.FEC)
	assert.InDelta(t, *fecOnly.FEC, fecOnly.Numerical, 1e-9, "A single source carries the whole weight")
}

func TestParseModelVerdict(t *testing.T) {
	v := parseModelVerdict("SCORE: 85\nREASONING: Strong ESG record.")
	assert.InDelta(t, 85, v.Score, 1e-9)
	assert.Equal(t, "Strong ESG record.", v.Reasoning)

	v = parseModelVerdict("SCORE: 150\nREASONING: enthusiastic")
	assert.InDelta(t, 100, v.Score, 1e-9, "Scores clamp to 0-100")

	v = parseModelVerdict("SCORE: n/a\nREASONING: shrug")
	assert.InDelta(t, 50, v.Score, 1e-9, "Unparseable numbers default to neutral")

	v = parseModelVerdict("the model rambled instead")
	assert.InDelta(t, 50, v.Score, 1e-9)
	assert.Equal(t, "Could not parse LLM response", v.Reasoning)

	v = parseModelVerdict("SCORE: 72\nREASONING: First line.\nSecond line ignored.")
	assert.Equal(t, "First line.", v.Reasoning)

	v = parseModelVerdict("SCORE: 72\nREASONING:")
	assert.Equal(t, "LLM analysis completed", v.Reasoning)
}

func TestBuildRanking(t *testing.T) {
	now := time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC)

	var scored []scoredCompany
	for i, ticker := range []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG"} {
		scored = append(scored, scoredCompany{
			ticker: ticker,
			name:   ticker,
			score:  float64(10 * (i + 1)),
		})
	}

	ranking := buildRanking("progressive-globalist", scored, now)

	require.Len(t, ranking.SupportCompanies, 5)
	assert.Equal(t, "GGG", ranking.SupportCompanies[0].Symbol)
	assert.Equal(t, 70, ranking.SupportCompanies[0].Score)
	assert.Equal(t, "CCC", ranking.SupportCompanies[4].Symbol)

	require.Len(t, ranking.OpposeCompanies, 5)
	assert.Equal(t, "AAA", ranking.OpposeCompanies[0].Symbol, "Worst company leads the oppose list")
	assert.Equal(t, "EEE", ranking.OpposeCompanies[4].Symbol)

	assert.Equal(t, "3.0", ranking.Version)
	assert.Equal(t, "2026-03-10T03:00:00.000000Z", ranking.UpdatedAt)
	assert.Equal(t, "2026-03-10T15:00:00.000000Z", ranking.ExpiresAt)
}

func TestBuildRankingSmallUniverse(t *testing.T) {
	scored := []scoredCompany{
		{ticker: "AAA", score: 10},
		{ticker: "BBB", score: 30},
		{ticker: "CCC", score: 20},
	}

	ranking := buildRanking("progressive-globalist", scored, time.Now())

	// With fewer than five companies both lists cover the whole universe.
	require.Len(t, ranking.SupportCompanies, 3)
	require.Len(t, ranking.OpposeCompanies, 3)
	assert.Equal(t, "BBB", ranking.SupportCompanies[0].Symbol)
	assert.Equal(t, "AAA", ranking.OpposeCompanies[0].Symbol)
}
