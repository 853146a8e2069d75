package rankings

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lingxiaoxu/Stanse-sub005/repos/gemini"
)

// modelVerdict is the comprehensive judgment the model returns for one
// company.
type modelVerdict struct {
	Score     float64
	Reasoning string
}

// comprehensiveScore asks the model for an overall alignment read. Companies
// with structured data get a data-grounded prompt; the rest fall back to the
// model's general knowledge. Failures degrade to a neutral verdict so one
// bad call cannot sink a whole ranking run; the error is returned alongside
// for callers that must not swallow quota rejections. Batch runs pass an
// empty userID and are not metered; on-demand scores bill the requesting
// user.
func (s *RankingsService) comprehensiveScore(ctx context.Context, data companyData, persona string, hasData bool, userID string) (modelVerdict, error) {
	prompt := buildKnowledgePrompt(data, persona)
	if hasData {
		prompt = buildDataPrompt(data, persona)
	}

	resp, err := s.geminiService.Generate(ctx, gemini.Request{
		UserID:     userID,
		Prompt:     prompt,
		Mode:       "analysis",
		Preference: "fast",
		PlainText:  true,
	})
	if err != nil {
		s.logger.Warn("Comprehensive scoring call failed",
			zap.String("ticker", data.Ticker),
			zap.String("persona", persona),
			zap.Error(err))
		return modelVerdict{Score: 50, Reasoning: "LLM analysis failed"}, err
	}

	return parseModelVerdict(resp.Text), nil
}

// parseModelVerdict extracts the SCORE/REASONING pair the prompt demands.
// Anything malformed collapses to a neutral verdict.
func parseModelVerdict(raw string) modelVerdict {
	scoreIdx := strings.Index(raw, "SCORE:")
	reasoningIdx := strings.Index(raw, "REASONING:")
	if scoreIdx == -1 || reasoningIdx == -1 || reasoningIdx < scoreIdx {
		return modelVerdict{Score: 50, Reasoning: "Could not parse LLM response"}
	}

	score := 50.0
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(raw[scoreIdx+len("SCORE:"):reasoningIdx]), 64); err == nil {
		score = math.Min(100, math.Max(0, parsed))
	}

	reasoning := strings.TrimSpace(raw[reasoningIdx+len("REASONING:"):])
	if i := strings.IndexByte(reasoning, '\n'); i >= 0 {
		reasoning = strings.TrimSpace(reasoning[:i])
	}
	if reasoning == "" {
		reasoning = "LLM analysis completed"
	}

	return modelVerdict{Score: score, Reasoning: reasoning}
}

func buildDataPrompt(data companyData, persona string) string {
	fec, esg, exec, news := dataSummaries(data)
	return fmt.Sprintf(`You are analyzing %s (%s) for alignment with this political/values profile:
%s

Available Data:
- %s
- %s
- %s
- %s

Based on ALL the data above, provide a comprehensive alignment score (0-100) where:
- 100 = Perfectly aligned with the values profile
- 50 = Neutral or mixed signals
- 0 = Completely opposed to the values profile

Respond in this EXACT format:
SCORE: [0-100]
REASONING: [Brief 1-sentence explanation combining insights from FEC, ESG, Executive, and News data]`,
		data.Name, data.Ticker, personaDescriptions[persona], fec, esg, exec, news)
}

func buildKnowledgePrompt(data companyData, persona string) string {
	return fmt.Sprintf(`You are analyzing %s for alignment with this political/values profile:
%s

NOTE: No structured data (FEC donations, ESG scores, executive statements, or recent news) is available for this company.
Please use your general knowledge about this company to provide an assessment.

Consider:
- The company's public reputation and known political/social stances
- Industry sector and typical practices
- Known controversies or positive initiatives
- Corporate culture and values (if publicly known)

Provide a comprehensive alignment score (0-100) where:
- 100 = Perfectly aligned with the values profile
- 50 = Neutral or unknown
- 0 = Completely opposed to the values profile

Respond in this EXACT format:
SCORE: [0-100]
REASONING: [Brief explanation based on general knowledge about this company]`,
		data.Name, personaDescriptions[persona])
}

func dataSummaries(data companyData) (fec, esg, exec, news string) {
	fec = "FEC Donations: No data"
	if data.FEC != nil {
		fec = fmt.Sprintf("FEC Donations: Total $%.0f, Democrat: $%.0f, Republican: $%.0f",
			data.FEC.TotalUSD,
			data.FEC.PartyTotals["DEM"].TotalAmountUSD,
			data.FEC.PartyTotals["REP"].TotalAmountUSD)
	}

	esg = "ESG Scores: No data"
	if data.ESG != nil {
		esg = fmt.Sprintf("ESG Scores: Environmental: %s, Social: %s, Governance: %s",
			fmtSubScore(data.ESG.EnvironmentalScore),
			fmtSubScore(data.ESG.SocialScore),
			fmtSubScore(data.ESG.GovernanceScore))
	}

	exec = "Executive Analysis: No statements"
	if data.Executive != nil && data.Executive.HasStatements {
		leaning := "unknown"
		var confidence float64
		if data.Executive.PoliticalStance != nil {
			if data.Executive.PoliticalStance.OverallLeaning != "" {
				leaning = data.Executive.PoliticalStance.OverallLeaning
			}
			confidence = data.Executive.PoliticalStance.Confidence
		}
		exec = fmt.Sprintf("Executive Analysis: Political stance: %s, Confidence: %g%%", leaning, confidence)
	}

	news = "Recent News: No data"
	if len(data.News) > 0 {
		news = fmt.Sprintf("Recent News: %d articles available", len(data.News))
	}
	return fec, esg, exec, news
}

func fmtSubScore(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
