package rankings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lingxiaoxu/Stanse-sub005/pkg/timeutil"
	"github.com/lingxiaoxu/Stanse-sub005/repos/gemini"
)

const (
	rankingsCollection  = "enhanced_company_rankings"
	historyCollection   = "history"
	trackedTickersCol   = "tracked_tickers"
	fecCollection       = "company_rankings_by_ticker"
	esgCollection       = "company_esg_by_ticker"
	executiveCollection = "company_executive_statements_by_ticker"
	tickerNewsCol       = "company_news_by_ticker"

	rankingVersion = "3.0"
	rankingTTL     = 12 * time.Hour
	listSize       = 5

	// One model call per company, so keep the fan-out modest.
	scoreWorkers = 8
)

// RankingsService regenerates and serves the per-persona company rankings.
type RankingsService struct {
	firestoreClient *firestore.Client
	geminiService   *gemini.Service
	logger          *zap.Logger
}

// NewRankingsService creates a new instance of the rankings service.
func NewRankingsService(firestoreClient *firestore.Client, geminiService *gemini.Service, logger *zap.Logger) *RankingsService {
	return &RankingsService{
		firestoreClient: firestoreClient,
		geminiService:   geminiService,
		logger:          logger,
	}
}

// trackedCompany is one entry of the ticker universe.
type trackedCompany struct {
	Ticker string
	Name   string
	Sector string
}

// scoredCompany is the combined scoring result for one company.
type scoredCompany struct {
	ticker    string
	name      string
	sector    string
	score     float64
	breakdown scoreBreakdown
	verdict   modelVerdict
}

func (c scoredCompany) reasoning() string {
	return fmt.Sprintf("[AI-Data] Numerical=%.1f, LLM=%.1f | %s",
		c.breakdown.Numerical, c.verdict.Score, c.verdict.Reasoning)
}

// GetRanking returns the published ranking for a stance type.
func (s *RankingsService) GetRanking(ctx context.Context, persona string) (*Ranking, error) {
	if !ValidPersona(persona) {
		return nil, ErrUnknownPersona
	}

	doc, err := s.firestoreClient.Collection(rankingsCollection).Doc(persona).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}

	var ranking Ranking
	if err := doc.DataTo(&ranking); err != nil {
		return nil, fmt.Errorf("consistency error. Converting %+v to internal Ranking struct failed: %w", doc.Data(), err)
	}
	return &ranking, nil
}

// GenerateRanking rescores the whole ticker universe for one persona and
// publishes the result, snapshotting it to the history subcollection first.
func (s *RankingsService) GenerateRanking(ctx context.Context, persona string) (*Ranking, error) {
	if !ValidPersona(persona) {
		return nil, ErrUnknownPersona
	}

	companies, err := s.listTrackedCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, errors.New("no tracked tickers to rank")
	}

	s.logger.Info("Generating company ranking",
		zap.String("persona", persona),
		zap.Int("companies", len(companies)))

	scored := make([]scoredCompany, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreWorkers)
	for i, company := range companies {
		g.Go(func() error {
			scored[i] = s.scoreCompany(gctx, company, persona, "")
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ranking := buildRanking(persona, scored, now)
	if err := s.saveRanking(ctx, ranking, now); err != nil {
		return nil, err
	}

	s.logger.Info("Published company ranking",
		zap.String("persona", persona),
		zap.String("top", ranking.SupportCompanies[0].Symbol),
		zap.String("bottom", ranking.OpposeCompanies[0].Symbol))
	return ranking, nil
}

// GenerateAll regenerates every persona. One failing persona does not stop
// the others.
func (s *RankingsService) GenerateAll(ctx context.Context) error {
	var errs error
	for _, persona := range Personas {
		if _, err := s.GenerateRanking(ctx, persona); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("persona %s: %w", persona, err))
		}
	}
	return errs
}

// CompanyScore rates a single company on demand, including companies outside
// the tracked universe. The result is not published. The model call is
// metered against the requesting user.
func (s *RankingsService) CompanyScore(ctx context.Context, userID, persona, ticker string) (*CompanyEntry, error) {
	if !ValidPersona(persona) {
		return nil, ErrUnknownPersona
	}

	company := trackedCompany{Ticker: ticker, Name: ticker}
	if doc, err := s.firestoreClient.Collection(trackedTickersCol).Doc(ticker).Get(ctx); err == nil {
		var tt trackedTicker
		if err := doc.DataTo(&tt); err == nil {
			if tt.Name != "" {
				company.Name = tt.Name
			}
			company.Sector = tt.Sector
		}
	}

	data := s.fetchCompanyData(ctx, company)
	breakdown := numericalScore(data, persona, time.Now())

	verdict, err := s.comprehensiveScore(ctx, data, persona, breakdown.HasData, userID)
	if errors.Is(err, gemini.ErrBudgetExceeded) || errors.Is(err, gemini.ErrRequestLimit) {
		return nil, err
	}

	entry := companyEntry(combineScores(company, breakdown, verdict))
	return &entry, nil
}

// scoreCompany runs both scoring methods for one company. It never fails:
// missing data degrades to the model's general knowledge, and a failed model
// call degrades to the numerical score.
func (s *RankingsService) scoreCompany(ctx context.Context, company trackedCompany, persona, userID string) scoredCompany {
	data := s.fetchCompanyData(ctx, company)

	breakdown := numericalScore(data, persona, time.Now())
	verdict, _ := s.comprehensiveScore(ctx, data, persona, breakdown.HasData, userID)

	return combineScores(company, breakdown, verdict)
}

// combineScores averages the numerical and model scores when there was data
// to compute the former; otherwise the model verdict stands alone.
func combineScores(company trackedCompany, breakdown scoreBreakdown, verdict modelVerdict) scoredCompany {
	total := verdict.Score
	if breakdown.HasData {
		total = (breakdown.Numerical + verdict.Score) / 2
	}

	return scoredCompany{
		ticker:    company.Ticker,
		name:      company.Name,
		sector:    company.Sector,
		score:     math.Round(total*10) / 10,
		breakdown: breakdown,
		verdict:   verdict,
	}
}

func buildRanking(persona string, scored []scoredCompany, now time.Time) *Ranking {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].ticker < scored[j].ticker
	})

	top := scored
	if len(top) > listSize {
		top = top[:listSize]
	}
	bottom := scored
	if len(bottom) > listSize {
		bottom = bottom[len(bottom)-listSize:]
	}

	support := make([]CompanyEntry, 0, len(top))
	for _, c := range top {
		support = append(support, companyEntry(c))
	}
	// Worst first.
	oppose := make([]CompanyEntry, 0, len(bottom))
	for i := len(bottom) - 1; i >= 0; i-- {
		oppose = append(oppose, companyEntry(bottom[i]))
	}

	return &Ranking{
		StanceType:       persona,
		SupportCompanies: support,
		OpposeCompanies:  oppose,
		UpdatedAt:        isoStamp(now),
		ExpiresAt:        isoStamp(now.Add(rankingTTL)),
		Version:          rankingVersion,
	}
}

func companyEntry(c scoredCompany) CompanyEntry {
	return CompanyEntry{
		Symbol:    c.ticker,
		Name:      c.name,
		Sector:    c.sector,
		Score:     int(c.score),
		Reasoning: c.reasoning(),
	}
}

func (s *RankingsService) saveRanking(ctx context.Context, ranking *Ranking, now time.Time) error {
	docRef := s.firestoreClient.Collection(rankingsCollection).Doc(ranking.StanceType)

	stamp := timeutil.HistoryStamp(now)
	if _, err := docRef.Collection(historyCollection).Doc(stamp).Set(ctx, ranking); err != nil {
		return fmt.Errorf("saving ranking history for %s: %w", ranking.StanceType, err)
	}
	if _, err := docRef.Set(ctx, ranking); err != nil {
		return fmt.Errorf("saving ranking for %s: %w", ranking.StanceType, err)
	}
	return nil
}

func (s *RankingsService) listTrackedCompanies(ctx context.Context) ([]trackedCompany, error) {
	iter := s.firestoreClient.Collection(trackedTickersCol).Documents(ctx)
	defer iter.Stop()

	var companies []trackedCompany
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var tt trackedTicker
		if err := doc.DataTo(&tt); err != nil {
			return nil, fmt.Errorf("consistency error. Converting %+v to internal trackedTicker struct failed: %w", doc.Data(), err)
		}

		company := trackedCompany{Ticker: doc.Ref.ID, Name: tt.Name, Sector: tt.Sector}
		if company.Name == "" {
			company.Name = company.Ticker
		}
		companies = append(companies, company)
	}
	return companies, nil
}

// fetchCompanyData pulls the four data sources for one ticker. Each source
// is optional; a malformed or missing document just leaves its slot nil.
func (s *RankingsService) fetchCompanyData(ctx context.Context, company trackedCompany) companyData {
	data := companyData{Ticker: company.Ticker, Name: company.Name, Sector: company.Sector}

	if doc := s.sourceDoc(ctx, fecCollection, company.Ticker); doc != nil {
		var wrapper struct {
			FEC *fecData `firestore:"fec_data"`
		}
		if err := doc.DataTo(&wrapper); err != nil {
			s.logger.Warn("Skipping malformed FEC document", zap.String("ticker", company.Ticker), zap.Error(err))
		} else {
			data.FEC = wrapper.FEC
		}
	}

	if doc := s.sourceDoc(ctx, esgCollection, company.Ticker); doc != nil {
		var wrapper struct {
			Summary *esgData `firestore:"summary"`
		}
		if err := doc.DataTo(&wrapper); err != nil {
			s.logger.Warn("Skipping malformed ESG document", zap.String("ticker", company.Ticker), zap.Error(err))
		} else {
			data.ESG = wrapper.Summary
		}
	}

	if doc := s.sourceDoc(ctx, executiveCollection, company.Ticker); doc != nil {
		var wrapper struct {
			Analysis *executiveData `firestore:"analysis"`
		}
		if err := doc.DataTo(&wrapper); err != nil {
			s.logger.Warn("Skipping malformed executive document", zap.String("ticker", company.Ticker), zap.Error(err))
		} else {
			data.Executive = wrapper.Analysis
		}
	}

	if doc := s.sourceDoc(ctx, tickerNewsCol, company.Ticker); doc != nil {
		var wrapper tickerNewsDoc
		if err := doc.DataTo(&wrapper); err != nil {
			s.logger.Warn("Skipping malformed ticker news document", zap.String("ticker", company.Ticker), zap.Error(err))
		} else {
			data.News = wrapper.Articles
		}
	}

	return data
}

func (s *RankingsService) sourceDoc(ctx context.Context, collection, ticker string) *firestore.DocumentSnapshot {
	doc, err := s.firestoreClient.Collection(collection).Doc(ticker).Get(ctx)
	if err != nil {
		if status.Code(err) != codes.NotFound {
			s.logger.Warn("Could not read ranking data source",
				zap.String("collection", collection),
				zap.String("ticker", ticker),
				zap.Error(err))
		}
		return nil
	}
	return doc
}

// isoStamp matches the timestamp format the previous pipeline wrote, an
// ISO-8601 UTC instant with microsecond precision.
func isoStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}
