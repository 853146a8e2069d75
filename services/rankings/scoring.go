package rankings

import (
	"math"
	"strings"
	"time"
)

// The component scorers return nil when their data source is missing so the
// weighting step can renormalize over what is actually available. All scores
// land on a 0-100 scale where 100 means fully aligned with the persona.

// scoreBreakdown is the numerical result for one company.
type scoreBreakdown struct {
	FEC       *float64
	ESG       *float64
	Executive *float64
	News      *float64
	Numerical float64
	HasData   bool
	Sources   int
}

// numericalScore blends the four component scores with dynamic weights.
func numericalScore(data companyData, persona string, now time.Time) scoreBreakdown {
	b := scoreBreakdown{
		FEC:       scoreFEC(data.FEC, persona),
		ESG:       scoreESG(data.ESG, persona),
		Executive: scoreExecutive(data.Executive, persona),
		News:      scoreNews(data.News, persona, now),
	}

	wFEC, wESG, wExec, wNews := sourceWeights(b.FEC != nil, b.ESG != nil, b.Executive != nil, b.News != nil)

	if b.FEC != nil {
		b.Numerical += *b.FEC * wFEC
		b.Sources++
	}
	if b.ESG != nil {
		b.Numerical += *b.ESG * wESG
		b.Sources++
	}
	if b.Executive != nil {
		b.Numerical += *b.Executive * wExec
		b.Sources++
	}
	if b.News != nil {
		b.Numerical += *b.News * wNews
		b.Sources++
	}

	b.HasData = b.Sources > 0
	if !b.HasData {
		b.Numerical = 50
	}
	return b
}

// sourceWeights redistributes the target weights (FEC 40%, ESG 30%,
// executive 20%, news 10%) proportionally across the available sources.
func sourceWeights(hasFEC, hasESG, hasExec, hasNews bool) (fec, esg, exec, news float64) {
	const (
		targetFEC  = 0.4
		targetESG  = 0.3
		targetExec = 0.2
		targetNews = 0.1
	)

	var total float64
	if hasFEC {
		total += targetFEC
	}
	if hasESG {
		total += targetESG
	}
	if hasExec {
		total += targetExec
	}
	if hasNews {
		total += targetNews
	}
	if total == 0 {
		return 0, 0, 0, 0
	}

	if hasFEC {
		fec = targetFEC / total
	}
	if hasESG {
		esg = targetESG / total
	}
	if hasExec {
		exec = targetExec / total
	}
	if hasNews {
		news = targetNews / total
	}
	return fec, esg, exec, news
}

// scoreFEC rates campaign donation alignment from the party_totals breakdown.
func scoreFEC(data *fecData, persona string) *float64 {
	if data == nil || len(data.PartyTotals) == 0 || data.TotalUSD == 0 {
		return nil
	}

	config := personaConfigs[persona].FEC

	demRatio := data.PartyTotals["DEM"].TotalAmountUSD / data.TotalUSD
	repRatio := data.PartyTotals["REP"].TotalAmountUSD / data.TotalUSD

	var alignment float64
	switch {
	case config.PartyPreference > 0:
		alignment = demRatio * 100 * config.PartyPreference
	case config.PartyPreference < 0:
		alignment = repRatio * 100 * math.Abs(config.PartyPreference)
	default:
		alignment = 50 + math.Abs(demRatio-0.5)*100
	}

	// Large donors read as establishment players.
	amountPenalty := math.Min(20, data.TotalUSD/1_000_000*config.AmountSensitivity*10)
	final := alignment - amountPenalty + 20

	// Blend in the precomputed lean score when the ingest pipeline supplied
	// one. It runs -100 (Republican) to +100 (Democratic).
	if data.PoliticalLean != nil {
		lean := *data.PoliticalLean
		if config.PartyPreference > 0 {
			final = final*0.8 + ((lean+100)/2)*0.2
		} else if config.PartyPreference < 0 {
			final = final*0.8 + ((100-lean)/2)*0.2
		}
	}

	// Donation spread: near-neutral personas reward diversity, partisan ones
	// dock companies hedging across more than two parties.
	partyCount := float64(len(data.PartyTotals))
	if math.Abs(config.PartyPreference) < 0.3 {
		final += math.Min(5, partyCount*2)
	} else if partyCount > 2 {
		final -= 3
	}

	return clampScore(final)
}

// scoreESG rates the company's ESG summary with persona-specific sub-score
// weights, inverted for personas that read high ESG as over-regulation.
func scoreESG(data *esgData, persona string) *float64 {
	if data == nil || (data.EnvironmentalScore == nil && data.SocialScore == nil && data.GovernanceScore == nil) {
		return nil
	}

	config := personaConfigs[persona].ESG

	env := valueOr(data.EnvironmentalScore, 50)
	soc := valueOr(data.SocialScore, 50)
	gov := valueOr(data.GovernanceScore, 50)

	totalWeight := config.EnvironmentalWeight + config.SocialWeight + config.GovernanceWeight
	weighted := (env*config.EnvironmentalWeight + soc*config.SocialWeight + gov*config.GovernanceWeight) / totalWeight

	var final float64
	if config.PreferHighESG {
		final = weighted*config.ESGImportance + 50*(1-config.ESGImportance)
	} else {
		final = (100-weighted)*config.ESGImportance + 50*(1-config.ESGImportance)
	}

	if data.ProgressiveLean != nil &&
		(strings.HasPrefix(persona, "progressive") || strings.HasPrefix(persona, "socialist")) {
		final = final*0.7 + *data.ProgressiveLean*0.3
	}

	// Industry-relative bump: up to ±5 points for out- or under-performing
	// the sector average.
	if data.IndustrySectorAvg != nil && data.IndustrySectorAvg.ESGScore != nil && *data.IndustrySectorAvg.ESGScore != 0 &&
		data.ESGScore != nil && *data.ESGScore != 0 {
		relative := (*data.ESGScore - *data.IndustrySectorAvg.ESGScore) / *data.IndustrySectorAvg.ESGScore * 100
		bonus := math.Max(-5, math.Min(5, relative/4))
		if config.PreferHighESG {
			final += bonus
		} else {
			final -= bonus
		}
	}

	return clampScore(final)
}

// scoreExecutive rates leadership statements against the persona's preferred
// political leanings, adjusted by sentiment and social responsibility
// signals.
func scoreExecutive(data *executiveData, persona string) *float64 {
	if data == nil || !data.HasStatements {
		return nil
	}

	config := personaConfigs[persona].Executive

	var leaning string
	var confidence float64
	if data.PoliticalStance != nil {
		leaning = strings.ToLower(data.PoliticalStance.OverallLeaning)
		confidence = data.PoliticalStance.Confidence
	}

	// Too uncertain to take a position on.
	if confidence < config.ConfidenceThreshold {
		neutral := 50.0
		return &neutral
	}

	matches := false
	for _, preferred := range config.PreferredLeanings {
		if strings.Contains(leaning, strings.ToLower(preferred)) {
			matches = true
			break
		}
	}

	score := valueOr(data.RecommendationScore, 50)
	if matches {
		score = math.Min(100, score+15)
	} else if leaning != "" && leaning != "moderate" {
		score = math.Max(0, score-15)
	}

	if sentiment := data.SentimentAnalysis; sentiment != nil {
		if sentiment.ControversyLevel != 0 {
			switch {
			case strings.Contains(persona, "socialist") || strings.Contains(persona, "nationalist"):
				// Anti-establishment personas read controversy favorably.
				score += math.Min(5, sentiment.ControversyLevel*0.5)
			case persona == "capitalist-globalist":
				score -= math.Min(8, sentiment.ControversyLevel*0.8)
			}
		}

		switch strings.ToLower(sentiment.PublicPerceptionRisk) {
		case "high":
			score -= 5
		case "medium":
			score -= 2
		}

		switch strings.ToLower(sentiment.OverallSentiment) {
		case "positive":
			score += 3
		case "negative":
			score -= 3
		}
	}

	if social := data.SocialResponsibility; social != nil {
		if social.LaborPractices != nil &&
			(strings.Contains(persona, "progressive") || strings.Contains(persona, "socialist")) {
			score += (*social.LaborPractices - 50) / 50 * 8
		}
		if social.CommunityEngagement != nil && strings.Contains(persona, "nationalist") {
			score += (*social.CommunityEngagement - 50) / 50 * 6
		}
		if social.DiversityInclusion != nil {
			if strings.Contains(persona, "progressive") {
				score += (*social.DiversityInclusion - 50) / 50 * 10
			} else if strings.Contains(persona, "conservative") {
				score += (*social.DiversityInclusion - 50) / 50 * -2
			}
		}
	}

	return clampScore(score)
}

var controversialKeywords = []string{
	"lawsuit", "investigation", "scandal", "controversy", "violation",
	"fraud", "breach", "crisis", "protest", "strike", "layoff",
	"regulatory", "fine", "penalty", "allegation",
}

var positiveKeywords = []string{
	"innovation", "growth", "expansion", "profit", "success",
	"award", "breakthrough", "partnership", "achievement", "milestone",
	"sustainable", "ethical", "responsible",
}

var negativeKeywords = []string{
	"decline", "loss", "failure", "downgrade", "bankruptcy",
	"misconduct", "corruption", "harm", "damage", "risk",
}

// scoreNews rates recent coverage: 40% recency, 40% keyword sentiment, 20%
// volume, then blended toward neutral by the persona's news importance.
func scoreNews(articles []newsArticle, persona string, now time.Time) *float64 {
	if len(articles) == 0 {
		return nil
	}

	config := personaConfigs[persona].News

	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	var recent, month, older int
	var controversial, positive, negative int

	for _, article := range articles {
		published := parsePublished(stringValue(article.PublishedUTC))
		switch {
		case published.After(weekAgo):
			recent++
		case published.After(monthAgo):
			month++
		default:
			older++
		}

		content := strings.ToLower(stringValue(article.Title) + " " + stringValue(article.Description))
		for _, keyword := range controversialKeywords {
			if strings.Contains(content, keyword) {
				controversial++
			}
		}
		for _, keyword := range positiveKeywords {
			if strings.Contains(content, keyword) {
				positive++
			}
		}
		for _, keyword := range negativeKeywords {
			if strings.Contains(content, keyword) {
				negative++
			}
		}
	}

	total := len(articles)
	recency := float64(recent*100+month*60+older*30) / math.Max(1, float64(total))

	sentiment := 50.0
	totalKeywords := controversial + positive + negative
	if totalKeywords > 0 {
		positiveRatio := float64(positive) / float64(totalKeywords)
		negativeRatio := float64(negative) / float64(totalKeywords)
		controversialRatio := float64(controversial) / float64(totalKeywords)

		sentiment = 50 + (positiveRatio-negativeRatio)*50
		switch {
		case config.SentimentPreference > 0:
			sentiment += positiveRatio * 20
			sentiment -= controversialRatio * 10
		case config.SentimentPreference < 0:
			sentiment += controversialRatio * 15
			sentiment -= positiveRatio * 5
		default:
			balance := 1 - math.Abs(positiveRatio-negativeRatio)
			sentiment += balance * 10
		}
	}

	var volume float64
	switch {
	case total < 5:
		volume = 30
	case total < 10:
		volume = 50
	case total < 20:
		volume = 70
	default:
		volume = 85
	}
	if strings.Contains(persona, "globalist") {
		volume *= 1.1
	} else if strings.Contains(persona, "nationalist") {
		volume *= 0.95
	}

	final := recency*0.4 + sentiment*0.4 + volume*0.2
	final = final*config.NewsImportance + 50*(1-config.NewsImportance)

	return clampScore(final)
}

// parsePublished accepts the provider's RFC 3339 timestamps plus bare ISO
// strings without an offset. Unparseable dates count as old.
func parsePublished(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func clampScore(v float64) *float64 {
	clamped := math.Min(100, math.Max(0, v))
	return &clamped
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
