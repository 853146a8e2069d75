package locate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lingxiaoxu/Stanse-sub005/repos/gemini"
)

const (
	newsCollection              = "news"
	locationsCollection         = "news_locations"
	breakingLocationsCollection = "breaking_news_locations"

	// Locations under this confidence are not worth a globe marker.
	minConfidence = 0.5

	// How many pending articles one sweep run picks up.
	sweepBatchSize = 25
)

var ErrArticleNotFound = errors.New("article not found")

// Location statuses stamped back onto news documents so an article is only
// ever sent to the model once.
const (
	locationStatusLocated = "located"
	locationStatusNone    = "none"
)

// newsDoc is the slice of a news document this service reads.
type newsDoc struct {
	Title         *string `firestore:"Title"`
	Description   *string `firestore:"Description"`
	ArticleURL    *string `firestore:"ArticleURL"`
	PublishedUTC  *string `firestore:"PublishedUTC"`
	Breaking      bool    `firestore:"Breaking"`
	NeedsLocation bool    `firestore:"NeedsLocation"`
}

// LocationDoc is a news_locations document; the globe reads these.
type LocationDoc struct {
	ArticleID    string    `firestore:"ArticleID" json:"articleId"`
	Title        string    `firestore:"Title" json:"title"`
	URL          string    `firestore:"URL" json:"url"`
	Latitude     float64   `firestore:"Latitude" json:"lat"`
	Longitude    float64   `firestore:"Longitude" json:"lng"`
	Place        string    `firestore:"Place" json:"place"`
	Country      string    `firestore:"Country" json:"country"`
	Confidence   float64   `firestore:"Confidence" json:"confidence"`
	Breaking     bool      `firestore:"Breaking" json:"breaking"`
	PublishedUTC string    `firestore:"PublishedUTC" json:"publishedUtc"`
	LocatedAt    time.Time `firestore:"LocatedAt" json:"locatedAt"`
}

// LocateService turns ingested news into map coordinates: it sends article
// text through the model gateway, validates the answer and materializes
// location documents for the globe.
type LocateService struct {
	firestoreClient *firestore.Client
	geminiService   *gemini.Service
	logger          *zap.Logger
}

func NewLocateService(firestoreClient *firestore.Client, geminiService *gemini.Service, logger *zap.Logger) *LocateService {
	return &LocateService{
		firestoreClient: firestoreClient,
		geminiService:   geminiService,
		logger:          logger,
	}
}

// AnalyzeArticle geolocates one stored article and persists the result.
// Articles without a usable location are marked so they are not retried.
// userID meters the model cost; background jobs pass an empty one.
func (s *LocateService) AnalyzeArticle(ctx context.Context, userID, articleID string) (*GeoResult, error) {
	doc, err := s.firestoreClient.Collection(newsCollection).Doc(articleID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, articleID)
	}
	if err != nil {
		return nil, err
	}
	return s.processDocAs(ctx, userID, doc)
}

// AnalyzeText geolocates free text without touching any stored article.
func (s *LocateService) AnalyzeText(ctx context.Context, userID, text string) (*GeoResult, error) {
	return s.locate(ctx, userID, buildPrompt(text, ""))
}

// SweepUnlocated picks up articles the watcher missed, e.g. ones ingested
// while the process was down. Errors are collected per article so one bad
// document never stalls the rest of the batch.
func (s *LocateService) SweepUnlocated(ctx context.Context) error {
	iter := s.firestoreClient.Collection(newsCollection).
		Where("NeedsLocation", "==", true).
		Limit(sweepBatchSize).
		Documents(ctx)
	defer iter.Stop()

	var errs error
	processed := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return multierr.Append(errs, err)
		}

		if _, err := s.processDoc(ctx, doc); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("article %s: %w", doc.Ref.ID, err))
			continue
		}
		processed++
	}

	if processed > 0 {
		s.logger.Info("Location sweep finished", zap.Int("processed", processed))
	}
	return errs
}

// processDoc geolocates one news document and writes the outcome back.
func (s *LocateService) processDoc(ctx context.Context, doc *firestore.DocumentSnapshot) (*GeoResult, error) {
	return s.processDocAs(ctx, "", doc)
}

func (s *LocateService) processDocAs(ctx context.Context, userID string, doc *firestore.DocumentSnapshot) (*GeoResult, error) {
	var article newsDoc
	if err := doc.DataTo(&article); err != nil {
		return nil, fmt.Errorf("consistency error. Converting %+v to internal locate.newsDoc struct failed: %w", doc.Data(), err)
	}

	title := stringValue(article.Title)
	description := stringValue(article.Description)
	if strings.TrimSpace(title) == "" && strings.TrimSpace(description) == "" {
		return nil, s.markArticle(ctx, doc.Ref.ID, locationStatusNone)
	}

	result, err := s.locate(ctx, userID, buildPrompt(title, description))
	if errors.Is(err, ErrNoLocation) {
		return nil, s.markArticle(ctx, doc.Ref.ID, locationStatusNone)
	}
	if err != nil {
		return nil, err
	}
	if result.Confidence < minConfidence {
		s.logger.Debug("Location below confidence threshold",
			zap.String("articleId", doc.Ref.ID),
			zap.Float64("confidence", result.Confidence))
		return nil, s.markArticle(ctx, doc.Ref.ID, locationStatusNone)
	}

	location := LocationDoc{
		ArticleID:    doc.Ref.ID,
		Title:        title,
		URL:          stringValue(article.ArticleURL),
		Latitude:     result.Latitude,
		Longitude:    result.Longitude,
		Place:        result.Place,
		Country:      result.Country,
		Confidence:   result.Confidence,
		Breaking:     article.Breaking,
		PublishedUTC: stringValue(article.PublishedUTC),
		LocatedAt:    time.Now(),
	}

	if _, err := s.firestoreClient.Collection(locationsCollection).Doc(doc.Ref.ID).Set(ctx, location); err != nil {
		return nil, err
	}
	if article.Breaking {
		if _, err := s.firestoreClient.Collection(breakingLocationsCollection).Doc(doc.Ref.ID).Set(ctx, location); err != nil {
			return nil, err
		}
	}
	if err := s.markArticle(ctx, doc.Ref.ID, locationStatusLocated); err != nil {
		return nil, err
	}

	s.logger.Info("Article located",
		zap.String("articleId", doc.Ref.ID),
		zap.String("place", result.Place),
		zap.String("country", result.Country),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("breaking", article.Breaking))
	return result, nil
}

// locate runs one prompt through the gateway and parses the answer.
// Geolocation answers are cached; identical stories across providers cost
// one model call.
func (s *LocateService) locate(ctx context.Context, userID, prompt string) (*GeoResult, error) {
	response, err := s.geminiService.Generate(ctx, gemini.Request{
		UserID:     userID,
		Prompt:     prompt,
		Mode:       "geolocation",
		Preference: "fast",
		UseCache:   true,
	})
	if err != nil {
		return nil, err
	}
	return parseGeoResult(response.Text)
}

func (s *LocateService) markArticle(ctx context.Context, articleID, locationStatus string) error {
	_, err := s.firestoreClient.Collection(newsCollection).Doc(articleID).Update(ctx, []firestore.Update{
		{Path: "NeedsLocation", Value: false},
		{Path: "LocationStatus", Value: locationStatus},
	})
	return err
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
