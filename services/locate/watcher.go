package locate

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
)

// How long to wait before re-establishing a broken snapshot listener.
const watchRetryDelay = 5 * time.Second

// Watch follows the news collection and geolocates articles as they are
// ingested. It blocks until ctx is cancelled and survives listener drops by
// reconnecting; the sweep job catches anything lost in between.
func (s *LocateService) Watch(ctx context.Context) {
	for {
		err := s.watchOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("News watcher disconnected, reconnecting", zap.Error(err))

		select {
		case <-time.After(watchRetryDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (s *LocateService) watchOnce(ctx context.Context) error {
	snapshots := s.firestoreClient.Collection(newsCollection).
		Where("NeedsLocation", "==", true).
		Snapshots(ctx)
	defer snapshots.Stop()

	s.logger.Info("Watching news for unlocated articles")

	for {
		snapshot, err := snapshots.Next()
		if err != nil {
			return err
		}

		for _, change := range snapshot.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			if _, err := s.processDoc(ctx, change.Doc); err != nil {
				s.logger.Error("Geolocating article failed",
					zap.String("articleId", change.Doc.Ref.ID),
					zap.Error(err))
			}
		}
	}
}
