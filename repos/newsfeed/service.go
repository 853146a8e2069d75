package newsfeed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultBaseURL = "https://api.polygon.io/v2/reference/news"

	newsCollection       = "news"
	tickerNewsCollection = "company_news_by_ticker"
	trackedTickersCol    = "tracked_tickers"
	syncStateCollection  = "feed_sync"
	syncStateDoc         = "news"

	// Repeated sync requests inside this window are ignored.
	minSyncInterval = 30 * time.Second

	// Ticker snapshots younger than this are not re-fetched. The provider
	// allows 5 calls/min on the free tier, so a full universe sweep takes
	// many job runs; the guard lets each run pick up where the last ended.
	tickerNewsTTL = 6 * time.Hour

	timeLayout = "2006-01-02 15:04:05"
)

// Service pulls articles from the Polygon news API into Firestore.
type Service struct {
	client     *firestore.Client
	logger     *zap.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// NewService creates a feed client. rpm paces provider calls; the free tier
// allows 5 per minute.
func NewService(client *firestore.Client, logger *zap.Logger, apiKey string, rpm int) *Service {
	if rpm <= 0 {
		rpm = 5
	}
	return &Service{
		client:     client,
		logger:     logger,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
}

// SyncNews pulls everything published since the last sync into the news
// collection. New documents are marked NeedsLocation so the geocode pipeline
// picks them up.
func (s *Service) SyncNews(ctx context.Context) error {
	now := time.Now().UTC()

	lastReq := s.GetLastRequest(ctx)
	if lastReq != "" {
		lastRequestTime, err := time.Parse(timeLayout, lastReq)
		if err == nil {
			diff := now.Sub(lastRequestTime)
			if diff < minSyncInterval {
				s.logger.Info("Skipping news sync, too soon since last request",
					zap.Duration("since", diff))
				return nil
			}
		}
	}
	if err := s.SetLastRequest(ctx, now.Format(timeLayout)); err != nil {
		return err
	}

	lastSync := s.GetLastSynced(ctx)

	params := url.Values{}
	params.Set("order", "asc")
	params.Set("limit", "100")
	params.Set("sort", "published_utc")
	if lastSync != "" {
		params.Set("published_utc.gte", lastSync)
	}
	pageURL := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	total := 0
	for pageURL != "" {
		apiResponse, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			return err
		}

		// Fan article writes out; collect them back through the channel so
		// the page is fully stored before the next one is fetched.
		var wg sync.WaitGroup
		articleCh := make(chan Article)

		for _, article := range apiResponse.Results {
			wg.Add(1)
			go s.processArticle(ctx, article, now, articleCh, &wg)
		}

		go func() {
			wg.Wait()
			close(articleCh)
		}()

		for range articleCh {
			total++
		}

		pageURL = apiResponse.NextURL
	}

	if err := s.SetLastSynced(ctx, now.Format(time.RFC3339)); err != nil {
		return err
	}
	s.logger.Info("All articles processed", zap.Int("count", total))
	return nil
}

// fetchPage makes one paced provider call. Pagination URLs come back without
// credentials, so the key is always (re)attached here.
func (s *Service) fetchPage(ctx context.Context, pageURL string) (*NewsResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if !strings.Contains(pageURL, "apiKey=") {
		separator := "?"
		if strings.Contains(pageURL, "?") {
			separator = "&"
		}
		pageURL = fmt.Sprintf("%s%sapiKey=%s", pageURL, separator, s.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	response, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request returned status %d", response.StatusCode)
	}

	var apiResponse NewsResponse
	if err := json.NewDecoder(response.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}
	if apiResponse.Status != "OK" {
		return nil, fmt.Errorf("API returned non-OK status: %s", apiResponse.Status)
	}
	return &apiResponse, nil
}

func (s *Service) processArticle(ctx context.Context, article Article, now time.Time, articleCh chan<- Article, wg *sync.WaitGroup) {
	defer wg.Done()

	docID := articleDocID(article)
	if docID == "" {
		s.logger.Warn("Skipping article without identity")
		return
	}

	docRef := s.client.Collection(newsCollection).Doc(docID)

	doc, _ := docRef.Get(ctx)

	if doc.Exists() {
		updates := createArticleUpdates(&article)
		if len(updates) == 0 {
			articleCh <- article
			return
		}
		if _, err := docRef.Update(ctx, updates); err != nil {
			s.logger.Error("Failed to update article in Firestore", zap.Error(err))
			return
		}
	} else {
		stored := StoredArticle{
			Article:       article,
			NeedsLocation: true,
			Breaking:      isBreaking(article, now),
			IngestedAt:    now,
		}
		if _, err := docRef.Set(ctx, stored); err != nil {
			s.logger.Error("Failed to write article to Firestore", zap.Error(err))
			return
		}
	}

	articleCh <- article
}

// articleDocID prefers the provider ID and falls back to a hash of the URL.
func articleDocID(article Article) string {
	if article.ID != nil && *article.ID != "" {
		return *article.ID
	}
	if article.ArticleURL != nil && *article.ArticleURL != "" {
		sum := md5.Sum([]byte(*article.ArticleURL))
		return hex.EncodeToString(sum[:])
	}
	return ""
}

// isBreaking flags articles the globe should surface immediately: tagged
// breaking by the provider, or published within the last 15 minutes.
func isBreaking(article Article, now time.Time) bool {
	if article.Keywords != nil {
		for _, keyword := range *article.Keywords {
			if strings.EqualFold(keyword, "breaking") || strings.EqualFold(keyword, "breaking news") {
				return true
			}
		}
	}
	if article.PublishedUTC != nil {
		published, err := time.Parse(time.RFC3339, *article.PublishedUTC)
		if err == nil && now.Sub(published) < 15*time.Minute {
			return true
		}
	}
	return false
}

// FetchTickerNews pulls the latest articles for one ticker and snapshots
// them under company_news_by_ticker/{ticker} plus its history subcollection.
func (s *Service) FetchTickerNews(ctx context.Context, ticker string, limit int) error {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("order", "desc")
	params.Set("limit", fmt.Sprint(limit))
	params.Set("sort", "published_utc")

	apiResponse, err := s.fetchPage(ctx, fmt.Sprintf("%s?%s", s.baseURL, params.Encode()))
	if err != nil {
		return err
	}
	if len(apiResponse.Results) == 0 {
		s.logger.Info("No news found for ticker", zap.String("ticker", ticker))
		return nil
	}

	now := time.Now().UTC()
	data := TickerNews{
		Ticker:      ticker,
		DataSource:  "polygon_api",
		CollectedAt: now.Format(time.RFC3339),
		Articles:    apiResponse.Results,
		Count:       len(apiResponse.Results),
	}

	docRef := s.client.Collection(tickerNewsCollection).Doc(ticker)

	// History first, then the main document, so the newest history entry
	// always mirrors the main document.
	historyID := now.Format("20060102_150405")
	if _, err := docRef.Collection("history").Doc(historyID).Set(ctx, data); err != nil {
		return err
	}
	if _, err := docRef.Set(ctx, data); err != nil {
		return err
	}
	return nil
}

// SyncAllTickers refreshes company news for every tracked ticker whose
// snapshot has gone stale. Individual ticker failures are logged and skipped.
func (s *Service) SyncAllTickers(ctx context.Context) error {
	tickers, err := s.ListTrackedTickers(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	refreshed := 0
	for _, ticker := range tickers {
		fresh, err := s.tickerNewsFresh(ctx, ticker, now)
		if err != nil {
			s.logger.Error("Failed to check ticker news age",
				zap.String("ticker", ticker),
				zap.Error(err))
			continue
		}
		if fresh {
			continue
		}
		if err := s.FetchTickerNews(ctx, ticker, 20); err != nil {
			s.logger.Error("Failed to fetch ticker news",
				zap.String("ticker", ticker),
				zap.Error(err))
			continue
		}
		refreshed++
	}
	s.logger.Info("Ticker news sweep finished",
		zap.Int("tickers", len(tickers)),
		zap.Int("refreshed", refreshed))
	return nil
}

// tickerNewsFresh reports whether the stored snapshot for the ticker is
// recent enough to skip.
func (s *Service) tickerNewsFresh(ctx context.Context, ticker string, now time.Time) (bool, error) {
	doc, err := s.client.Collection(tickerNewsCollection).Doc(ticker).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var stored TickerNews
	if err := doc.DataTo(&stored); err != nil {
		// If this fails, we have an inconsistency error as we control both the data written to
		// Firestore and the shape of our TickerNews struct.
		return false, xerrors.Errorf(
			"consistency error. Converting %+v to internal TickerNews struct failed: %w",
			doc,
			err,
		)
	}

	return snapshotFresh(stored.CollectedAt, now), nil
}

// snapshotFresh parses the stored timestamp and compares it against the TTL.
// Unparseable stamps count as stale so the snapshot gets rebuilt.
func snapshotFresh(collectedAt string, now time.Time) bool {
	collected, err := time.Parse(time.RFC3339, collectedAt)
	if err != nil {
		return false
	}
	return now.Sub(collected) < tickerNewsTTL
}

// ListTrackedTickers returns the ticker universe, one document ID per
// ticker.
func (s *Service) ListTrackedTickers(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(trackedTickersCol).Documents(ctx)
	defer iter.Stop()

	var tickers []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		tickers = append(tickers, doc.Ref.ID)
	}
	return tickers, nil
}

func (s *Service) GetLastSynced(ctx context.Context) string {
	doc, err := s.client.Collection(syncStateCollection).Doc(syncStateDoc).Get(ctx)
	if err != nil {
		return ""
	}

	data := doc.Data()
	fieldValue, ok := data["LastSynced"]
	if !ok {
		return ""
	}

	fieldValueStr, ok := fieldValue.(string)
	if !ok {
		s.logger.Warn("Failed to convert LastSynced field value to string")
		return ""
	}
	return fieldValueStr
}

func (s *Service) GetLastRequest(ctx context.Context) string {
	doc, err := s.client.Collection(syncStateCollection).Doc(syncStateDoc).Get(ctx)
	if err != nil {
		return ""
	}

	data := doc.Data()
	fieldValue, ok := data["LastRequest"]
	if !ok {
		return ""
	}

	fieldValueStr, ok := fieldValue.(string)
	if !ok {
		s.logger.Warn("Failed to convert LastRequest field value to string")
		return ""
	}
	return fieldValueStr
}

func (s *Service) SetLastSynced(ctx context.Context, lastSynced string) error {
	_, err := s.client.Collection(syncStateCollection).Doc(syncStateDoc).Set(ctx, map[string]interface{}{
		"LastSynced": lastSynced,
	}, firestore.MergeAll)
	return err
}

func (s *Service) SetLastRequest(ctx context.Context, lastRequest string) error {
	_, err := s.client.Collection(syncStateCollection).Doc(syncStateDoc).Set(ctx, map[string]interface{}{
		"LastRequest": lastRequest,
	}, firestore.MergeAll)
	return err
}

func createArticleUpdates(article *Article) []firestore.Update {
	var updates []firestore.Update

	if article.Title != nil {
		updates = append(updates, firestore.Update{Path: "Title", Value: *article.Title})
	}
	if article.Author != nil {
		updates = append(updates, firestore.Update{Path: "Author", Value: *article.Author})
	}
	if article.PublishedUTC != nil {
		updates = append(updates, firestore.Update{Path: "PublishedUTC", Value: *article.PublishedUTC})
	}
	if article.ArticleURL != nil {
		updates = append(updates, firestore.Update{Path: "ArticleURL", Value: *article.ArticleURL})
	}
	if article.AmpURL != nil {
		updates = append(updates, firestore.Update{Path: "AmpURL", Value: *article.AmpURL})
	}
	if article.ImageURL != nil {
		updates = append(updates, firestore.Update{Path: "ImageURL", Value: *article.ImageURL})
	}
	if article.Description != nil {
		updates = append(updates, firestore.Update{Path: "Description", Value: *article.Description})
	}
	if article.Keywords != nil {
		updates = append(updates, firestore.Update{Path: "Keywords", Value: *article.Keywords})
	}
	if article.Tickers != nil {
		updates = append(updates, firestore.Update{Path: "Tickers", Value: *article.Tickers})
	}
	if article.Publisher != nil {
		updates = append(updates, firestore.Update{Path: "Publisher", Value: article.Publisher})
	}

	return updates
}
