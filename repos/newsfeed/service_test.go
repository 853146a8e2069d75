package newsfeed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xorcare/pointer"
)

func TestArticleDocID(t *testing.T) {
	withID := Article{ID: pointer.String("abc123"), ArticleURL: pointer.String("https://example.com/a")}
	assert.Equal(t, "abc123", articleDocID(withID), "Provider ID wins when present")

	withURL := Article{ArticleURL: pointer.String("https://example.com/a")}
	hashed := articleDocID(withURL)
	assert.Len(t, hashed, 32, "URL fallback should be an md5 hex digest")
	assert.Equal(t, hashed, articleDocID(withURL), "Hashing must be stable")

	empty := Article{}
	assert.Equal(t, "", articleDocID(empty))
}

func TestIsBreaking(t *testing.T) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

	tagged := Article{Keywords: &[]string{"markets", "Breaking News"}}
	assert.True(t, isBreaking(tagged, now), "Provider breaking tag should flag the article")

	fresh := Article{PublishedUTC: pointer.String(now.Add(-5 * time.Minute).Format(time.RFC3339))}
	assert.True(t, isBreaking(fresh, now), "Articles published minutes ago are breaking")

	stale := Article{PublishedUTC: pointer.String(now.Add(-2 * time.Hour).Format(time.RFC3339))}
	assert.False(t, isBreaking(stale, now))

	badTimestamp := Article{PublishedUTC: pointer.String("not a timestamp")}
	assert.False(t, isBreaking(badTimestamp, now))
}

func TestSnapshotFresh(t *testing.T) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

	assert.True(t, snapshotFresh(now.Add(-time.Hour).Format(time.RFC3339), now))
	assert.False(t, snapshotFresh(now.Add(-7*time.Hour).Format(time.RFC3339), now))
	assert.False(t, snapshotFresh("", now), "Missing stamp counts as stale")
	assert.False(t, snapshotFresh("not a timestamp", now), "Bad stamp counts as stale")
}

func TestCreateArticleUpdatesSkipsNilFields(t *testing.T) {
	article := Article{
		Title:       pointer.String("Title"),
		Description: pointer.String("Description"),
	}

	updates := createArticleUpdates(&article)
	assert.Len(t, updates, 2, "Only set fields should be updated")

	paths := map[string]bool{}
	for _, u := range updates {
		paths[u.Path] = true
	}
	assert.True(t, paths["Title"])
	assert.True(t, paths["Description"])
	assert.False(t, paths["Author"], "Nil fields must not be touched")
}
