package globe

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

// Marker kinds, in display priority order.
const (
	KindBreaking  = "breaking"
	KindNews      = "news"
	KindConflict  = "conflict"
	KindCommunity = "community"
)

const (
	locationsCollection         = "news_locations"
	breakingLocationsCollection = "breaking_news_locations"
	conflictZonesCollection     = "conflict_zones"
	userLocationsCollection     = "user_locations"

	// Story markers older than this fall off the globe.
	markerMaxAge = 48 * time.Hour

	newsFetchLimit      = 500
	communityFetchLimit = 200
)

// Marker is one point on the globe.
type Marker struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	Title     string    `json:"title,omitempty"`
	Place     string    `json:"place,omitempty"`
	Country   string    `json:"country,omitempty"`
	URL       string    `json:"url,omitempty"`
	Intensity float64   `json:"intensity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// locationDoc is the slice of a news location document the globe needs.
type locationDoc struct {
	Title     string    `firestore:"Title"`
	URL       string    `firestore:"URL"`
	Latitude  float64   `firestore:"Latitude"`
	Longitude float64   `firestore:"Longitude"`
	Place     string    `firestore:"Place"`
	Country   string    `firestore:"Country"`
	LocatedAt time.Time `firestore:"LocatedAt"`
}

// conflictDoc mirrors the conflict_zones documents maintained by the data
// pipeline, which writes snake_case fields.
type conflictDoc struct {
	Name      *string    `firestore:"name"`
	Latitude  *float64   `firestore:"latitude"`
	Longitude *float64   `firestore:"longitude"`
	Intensity *float64   `firestore:"intensity"`
	UpdatedAt *time.Time `firestore:"updated_at"`
}

// userLocationDoc mirrors the user_locations documents the web client
// writes for users who opted into sharing.
type userLocationDoc struct {
	Lat           *float64   `firestore:"lat"`
	Lng           *float64   `firestore:"lng"`
	City          *string    `firestore:"city"`
	Country       *string    `firestore:"country"`
	ShareLocation bool       `firestore:"shareLocation"`
	UpdatedAt     *time.Time `firestore:"updatedAt"`
}

// GlobeService assembles the marker set for the globe view. Markers are
// computed per request from the location collections; nothing is cached
// server-side so a freshly located story shows up immediately.
type GlobeService struct {
	firestoreClient *firestore.Client
	logger          *zap.Logger
}

func NewGlobeService(firestoreClient *firestore.Client, logger *zap.Logger) *GlobeService {
	return &GlobeService{
		firestoreClient: firestoreClient,
		logger:          logger,
	}
}

// GetMarkers reads all four marker sources concurrently, drops invalid
// coordinates, deduplicates nearby markers of the same kind and lets
// breaking news outrank plain news on the same spot.
func (s *GlobeService) GetMarkers(ctx context.Context) ([]Marker, error) {
	var breaking, news, conflicts, community []Marker

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		breaking, err = s.readNewsMarkers(ctx, breakingLocationsCollection, KindBreaking)
		return err
	})
	g.Go(func() error {
		var err error
		news, err = s.readNewsMarkers(ctx, locationsCollection, KindNews)
		return err
	})
	g.Go(func() error {
		var err error
		conflicts, err = s.readConflictMarkers(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		community, err = s.readCommunityMarkers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]Marker, 0, len(breaking)+len(news)+len(conflicts)+len(community))
	merged = append(merged, breaking...)
	merged = append(merged, news...)
	merged = append(merged, conflicts...)
	merged = append(merged, community...)

	markers := dedupeMarkers(merged)
	s.logger.Debug("Globe markers assembled",
		zap.Int("raw", len(merged)),
		zap.Int("final", len(markers)))
	return markers, nil
}

func (s *GlobeService) readNewsMarkers(ctx context.Context, collection, kind string) ([]Marker, error) {
	iter := s.firestoreClient.Collection(collection).
		Where("LocatedAt", ">", time.Now().Add(-markerMaxAge)).
		Limit(newsFetchLimit).
		Documents(ctx)
	defer iter.Stop()

	var markers []Marker
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var location locationDoc
		if err := doc.DataTo(&location); err != nil {
			return nil, fmt.Errorf("consistency error. Converting %+v to internal globe.locationDoc struct failed: %w", doc.Data(), err)
		}

		markers = append(markers, Marker{
			ID:        doc.Ref.ID,
			Kind:      kind,
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
			Title:     location.Title,
			Place:     location.Place,
			Country:   location.Country,
			URL:       location.URL,
			Timestamp: location.LocatedAt,
		})
	}
	return markers, nil
}

func (s *GlobeService) readConflictMarkers(ctx context.Context) ([]Marker, error) {
	iter := s.firestoreClient.Collection(conflictZonesCollection).Documents(ctx)
	defer iter.Stop()

	var markers []Marker
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var zone conflictDoc
		if err := doc.DataTo(&zone); err != nil {
			s.logger.Warn("Skipping malformed conflict zone", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		if zone.Latitude == nil || zone.Longitude == nil {
			s.logger.Warn("Conflict zone has no coordinates", zap.String("id", doc.Ref.ID))
			continue
		}

		marker := Marker{
			ID:        doc.Ref.ID,
			Kind:      KindConflict,
			Latitude:  *zone.Latitude,
			Longitude: *zone.Longitude,
		}
		if zone.Name != nil {
			marker.Place = *zone.Name
		}
		if zone.Intensity != nil {
			marker.Intensity = *zone.Intensity
		}
		if zone.UpdatedAt != nil {
			marker.Timestamp = *zone.UpdatedAt
		}
		markers = append(markers, marker)
	}
	return markers, nil
}

func (s *GlobeService) readCommunityMarkers(ctx context.Context) ([]Marker, error) {
	iter := s.firestoreClient.Collection(userLocationsCollection).
		Where("shareLocation", "==", true).
		Limit(communityFetchLimit).
		Documents(ctx)
	defer iter.Stop()

	var markers []Marker
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var user userLocationDoc
		if err := doc.DataTo(&user); err != nil {
			s.logger.Warn("Skipping malformed user location", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		if user.Lat == nil || user.Lng == nil {
			continue
		}

		// Community markers carry no identity beyond a coarse position.
		marker := Marker{
			ID:        doc.Ref.ID,
			Kind:      KindCommunity,
			Latitude:  roundCoord(*user.Lat),
			Longitude: roundCoord(*user.Lng),
		}
		if user.City != nil {
			marker.Place = *user.City
		}
		if user.Country != nil {
			marker.Country = *user.Country
		}
		if user.UpdatedAt != nil {
			marker.Timestamp = *user.UpdatedAt
		}
		markers = append(markers, marker)
	}
	return markers, nil
}

// roundCoord snaps a coordinate to a roughly one kilometer grid.
func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

func validCoord(m Marker) bool {
	if m.Latitude < -90 || m.Latitude > 90 {
		return false
	}
	if m.Longitude < -180 || m.Longitude > 180 {
		return false
	}
	return true
}

var kindRank = map[string]int{
	KindBreaking:  0,
	KindNews:      1,
	KindConflict:  2,
	KindCommunity: 3,
}

// dedupeMarkers collapses markers of the same kind on the same grid cell,
// keeping the freshest. A news marker sharing a cell with a breaking marker
// is dropped entirely; the breaking story covers it. Output order is
// deterministic: kind priority, then newest first.
func dedupeMarkers(markers []Marker) []Marker {
	type cell struct {
		lat, lng float64
		kind     string
	}

	best := map[cell]Marker{}
	for _, marker := range markers {
		if !validCoord(marker) {
			continue
		}
		key := cell{roundCoord(marker.Latitude), roundCoord(marker.Longitude), marker.Kind}
		current, ok := best[key]
		if !ok || marker.Timestamp.After(current.Timestamp) {
			best[key] = marker
		}
	}

	for key := range best {
		if key.kind != KindNews {
			continue
		}
		shadow := key
		shadow.kind = KindBreaking
		if _, ok := best[shadow]; ok {
			delete(best, key)
		}
	}

	result := make([]Marker, 0, len(best))
	for _, marker := range best {
		result = append(result, marker)
	}
	sort.Slice(result, func(i, j int) bool {
		if kindRank[result[i].Kind] != kindRank[result[j].Kind] {
			return kindRank[result[i].Kind] < kindRank[result[j].Kind]
		}
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})
	return result
}
