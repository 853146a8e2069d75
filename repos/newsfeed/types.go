package newsfeed

import "time"

type NewsResponse struct {
	Results []Article `json:"results"`
	Status  string    `json:"status"`
	Count   int       `json:"count"`
	NextURL string    `json:"next_url"`
}

type Publisher struct {
	Name        *string `json:"name"`
	HomepageURL *string `json:"homepage_url"`
	LogoURL     *string `json:"logo_url"`
	FaviconURL  *string `json:"favicon_url"`
}

type Article struct {
	ID           *string    `json:"id"`
	Title        *string    `json:"title"`
	Author       *string    `json:"author"`
	PublishedUTC *string    `json:"published_utc"`
	ArticleURL   *string    `json:"article_url"`
	AmpURL       *string    `json:"amp_url"`
	ImageURL     *string    `json:"image_url"`
	Description  *string    `json:"description"`
	Keywords     *[]string  `json:"keywords"`
	Tickers      *[]string  `json:"tickers"`
	Publisher    *Publisher `json:"publisher"`
}

// StoredArticle is the news document shape: the provider fields plus our own
// pipeline flags.
type StoredArticle struct {
	Article
	NeedsLocation bool
	Breaking      bool
	IngestedAt    time.Time
}

// TickerNews is the per-ticker document under company_news_by_ticker; the
// ranking pipeline consumes it.
type TickerNews struct {
	Ticker      string    `json:"ticker"`
	DataSource  string    `json:"data_source"`
	CollectedAt string    `json:"collected_at"`
	Articles    []Article `json:"articles"`
	Count       int       `json:"count"`
}
