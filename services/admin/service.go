package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lingxiaoxu/Stanse-sub005/repos/gemini"
	"github.com/lingxiaoxu/Stanse-sub005/repos/newsfeed"
	"github.com/lingxiaoxu/Stanse-sub005/services/credits"
	"github.com/lingxiaoxu/Stanse-sub005/services/duel"
	"github.com/lingxiaoxu/Stanse-sub005/services/rankings"
)

const (
	adminUsersCollection     = "admin_users"
	questionsCollection      = "duel_questions"
	trackedTickersCollection = "tracked_tickers"
)

var (
	ErrNotAdmin        = errors.New("user is not an administrator")
	ErrInvalidQuestion = errors.New("invalid question")
	ErrInvalidTicker   = errors.New("invalid ticker")
)

// AdminService is the operator surface: question imports, credit grants,
// gateway housekeeping and manual pipeline triggers. Access is limited to
// users on the admin_users allow-list.
type AdminService struct {
	firestoreClient *firestore.Client
	creditsService  *credits.CreditsService
	geminiService   *gemini.Service
	rankingsService *rankings.RankingsService
	newsfeedService *newsfeed.Service
	logger          *zap.Logger
}

// NewAdminService creates a new instance of the admin service.
func NewAdminService(
	firestoreClient *firestore.Client,
	creditsService *credits.CreditsService,
	geminiService *gemini.Service,
	rankingsService *rankings.RankingsService,
	newsfeedService *newsfeed.Service,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		firestoreClient: firestoreClient,
		creditsService:  creditsService,
		geminiService:   geminiService,
		rankingsService: rankingsService,
		newsfeedService: newsfeedService,
		logger:          logger,
	}
}

// IsAdmin reports whether the user is on the allow-list. Presence of
// admin_users/{uid} is the whole check; the document body is ignored.
func (s *AdminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	_, err := s.firestoreClient.Collection(adminUsersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// QuestionImport is one row of a question import payload. Unlike the
// player-facing question type it carries the correct answer in JSON.
type QuestionImport struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Category     string   `json:"category"`
	ImagePath    string   `json:"imagePath"`
}

func (q QuestionImport) validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	if len(q.Options) != 4 {
		return fmt.Errorf("%w: expected 4 options, got %d", ErrInvalidQuestion, len(q.Options))
	}
	for i, option := range q.Options {
		if option == "" {
			return fmt.Errorf("%w: option %d is empty", ErrInvalidQuestion, i)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correctIndex %d out of range", ErrInvalidQuestion, q.CorrectIndex)
	}
	return nil
}

// ImportQuestions validates and upserts a batch of trivia questions. The
// batch is rejected as a whole if any row is invalid; rows with an ID
// overwrite the existing document, rows without one get a fresh document.
func (s *AdminService) ImportQuestions(ctx context.Context, questions []QuestionImport) (int, error) {
	for i, q := range questions {
		if err := q.validate(); err != nil {
			return 0, fmt.Errorf("question %d: %w", i, err)
		}
	}

	col := s.firestoreClient.Collection(questionsCollection)
	imported := 0
	for _, q := range questions {
		ref := col.NewDoc()
		if q.ID != "" {
			ref = col.Doc(q.ID)
		}

		stored := duel.Question{
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Category:     q.Category,
			ImagePath:    q.ImagePath,
		}
		if _, err := ref.Set(ctx, stored); err != nil {
			return imported, fmt.Errorf("importing question %q: %w", ref.ID, err)
		}
		imported++
	}

	s.logger.Info("Imported trivia questions", zap.Int("count", imported))
	return imported, nil
}

// TickerImport is one row of a tracked-ticker import payload. The tracked
// universe drives the ticker news sweep and ranking generation.
type TickerImport struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

func (t TickerImport) validate() error {
	if t.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidTicker)
	}
	if strings.ToUpper(t.Ticker) != t.Ticker {
		return fmt.Errorf("%w: %q must be uppercase", ErrInvalidTicker, t.Ticker)
	}
	return nil
}

// ImportTickers validates and upserts the tracked ticker universe. Like
// question imports the batch is rejected as a whole if any row is invalid.
func (s *AdminService) ImportTickers(ctx context.Context, tickers []TickerImport) (int, error) {
	for i, t := range tickers {
		if err := t.validate(); err != nil {
			return 0, fmt.Errorf("ticker %d: %w", i, err)
		}
	}

	col := s.firestoreClient.Collection(trackedTickersCollection)
	imported := 0
	for _, t := range tickers {
		stored := struct {
			Name   string
			Sector string
		}{Name: t.Name, Sector: t.Sector}
		if _, err := col.Doc(t.Ticker).Set(ctx, stored); err != nil {
			return imported, fmt.Errorf("importing ticker %q: %w", t.Ticker, err)
		}
		imported++
	}

	s.logger.Info("Imported tracked tickers", zap.Int("count", imported))
	return imported, nil
}

// GrantCredits credits a user's account outside of regular duel settlement.
func (s *AdminService) GrantCredits(ctx context.Context, userID string, amount int64, note string) error {
	return s.creditsService.Grant(ctx, userID, amount, note)
}

// CacheStats reports gateway cache effectiveness since process start.
func (s *AdminService) CacheStats() gemini.CacheStats {
	return s.geminiService.CacheStats()
}

// ClearCache drops the gateway response cache, memory and persisted tiers
// both.
func (s *AdminService) ClearCache(ctx context.Context) error {
	return s.geminiService.ClearCache(ctx)
}

// CleanupCache removes expired persisted cache entries and reports how many
// went away.
func (s *AdminService) CleanupCache(ctx context.Context) (int, error) {
	return s.geminiService.CleanupCache(ctx)
}

// UsageStats returns one user's model spend for a period (today, week,
// month or all).
func (s *AdminService) UsageStats(ctx context.Context, userID, period string) (*gemini.UsageStats, error) {
	return s.geminiService.UsageStats(ctx, userID, period)
}

// ActiveAlerts lists unresolved gateway alerts.
func (s *AdminService) ActiveAlerts(ctx context.Context) ([]gemini.Alert, error) {
	return s.geminiService.ActiveAlerts(ctx)
}

// ResolveAlert marks an alert as handled.
func (s *AdminService) ResolveAlert(ctx context.Context, alertID string) error {
	return s.geminiService.ResolveAlert(ctx, alertID)
}

// StartRankingGeneration kicks off a ranking rebuild in the background and
// returns immediately; the run is too slow to hold an HTTP request open.
// An empty persona (or "all") rebuilds every persona.
func (s *AdminService) StartRankingGeneration(persona string) error {
	if persona != "" && persona != "all" && !rankings.ValidPersona(persona) {
		return rankings.ErrUnknownPersona
	}

	go func() {
		ctx := context.Background()
		var err error
		if persona == "" || persona == "all" {
			err = s.rankingsService.GenerateAll(ctx)
		} else {
			_, err = s.rankingsService.GenerateRanking(ctx, persona)
		}
		if err != nil {
			s.logger.Error("Manual ranking generation failed",
				zap.String("persona", persona),
				zap.Error(err))
		}
	}()
	return nil
}

// StartNewsSync kicks off a full feed and ticker news refresh in the
// background.
func (s *AdminService) StartNewsSync() {
	go func() {
		ctx := context.Background()
		if err := s.newsfeedService.SyncNews(ctx); err != nil {
			s.logger.Error("Manual news sync failed", zap.Error(err))
		}
		if err := s.newsfeedService.SyncAllTickers(ctx); err != nil {
			s.logger.Error("Manual ticker news sync failed", zap.Error(err))
		}
	}()
}
