package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/robertmeta/newswire/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	trt       = time.FixedZone("TRT", 3*60*60)
	fixedNow  = time.Date(2025, 9, 3, 8, 15, 0, 0, time.UTC)
	testClock = func() time.Time { return fixedNow }
	testSrc   = model.Source{ID: "ntv", URL: "https://example.com/rss", Logo: "/logos/ntv.png", Color: "#006699"}
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestFetcher_ParseRSS2(t *testing.T) {
	fetcher := NewFetcher(WithLocation(trt), WithClock(testClock))
	items, err := fetcher.Parse(testSrc, readFixture(t, "rss2.xml"))
	require.NoError(t, err)
	require.Len(t, items, 6, "Should parse 6 entries from RSS feed")

	first := items[0]
	assert.Equal(t, "ntv", first.Source)
	assert.Equal(t, "/logos/ntv.png", first.SourceLogo)
	assert.Equal(t, "#006699", first.SourceColor)
	assert.Equal(t, "First Test Entry", first.Title)
	assert.Equal(t, "https://example.com/entry-1", first.Link)
	assert.Equal(t, "This is the first test entry.", first.Description)
	assert.Equal(t, "Tue, 02 Sep 2025 15:44:59 +0300", first.RawPubDate)
	assert.Equal(t, "https://example.com/img/1.jpg", first.Image)
	assert.Equal(t, DateFromFeed, first.DateSource)
	assert.True(t, first.PublishedAt.Equal(time.Date(2025, 9, 2, 12, 44, 59, 0, time.UTC)))
	assert.Equal(t, trt, first.PublishedAt.Location())
	assert.Equal(t, first.PublishedAt.UnixMilli(), first.PublishedAtMillis)

	assert.Equal(t, "https://example.com/img/2.jpg", items[1].Image)

	third := items[2]
	assert.Equal(t, "https://example.com/img/3.jpg", third.Image)
	assert.Equal(t, DateFromGUID, third.DateSource)
	assert.True(t, third.PublishedAt.Equal(time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)))

	fourth := items[3]
	assert.Equal(t, "http://x/a.jpg", fourth.Image)
	assert.Equal(t, "Fourth body & more", fourth.Description)
	assert.Equal(t, DateFromLink, fourth.DateSource)
	assert.True(t, fourth.PublishedAt.Equal(time.Date(2025, 8, 30, 8, 15, 0, 0, time.UTC)))

	fifth := items[4]
	assert.Equal(t, UntitledPlaceholder, fifth.Title)
	assert.Equal(t, "https://example.com/img/5.jpg", fifth.Image)

	sixth := items[5]
	assert.Empty(t, sixth.Image, "Missing image is a valid outcome")
	assert.Equal(t, DateFromNow, sixth.DateSource)
	assert.True(t, sixth.PublishedAt.Equal(fixedNow))
}

func TestFetcher_ParseAtom(t *testing.T) {
	fetcher := NewFetcher(WithLocation(trt), WithClock(testClock))
	items, err := fetcher.Parse(testSrc, readFixture(t, "atom.xml"))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "First Atom Entry", items[0].Title)
	assert.Equal(t, "https://example.com/atom-entry-1", items[0].Link)
	assert.Equal(t, "Atom HTML summary", items[0].Description)
	assert.Equal(t, "https://example.com/img/atom-1.png", items[0].Image)
	assert.True(t, items[0].PublishedAt.Equal(time.Date(2025, 9, 2, 9, 30, 0, 0, time.UTC)))

	assert.Equal(t, "Second Atom Entry", items[1].Title)
	assert.Equal(t, DateFromFeed, items[1].DateSource)
	assert.True(t, items[1].PublishedAt.Equal(time.Date(2025, 9, 1, 5, 0, 0, 0, time.UTC)))
}

func TestFetcher_ParseInvalidFeed(t *testing.T) {
	fetcher := NewFetcher()

	_, err := fetcher.Parse(testSrc, "<invalid>xml</broken>")
	assert.Error(t, err, "Should error on invalid XML")

	_, err = fetcher.Parse(testSrc, "")
	assert.Error(t, err, "Should error on empty string")

	_, err = fetcher.Parse(testSrc, "<?xml version='1.0'?><root><item>not a feed</item></root>")
	assert.Error(t, err, "Should error on non-feed XML")
}

func TestFetcher_FetchFromServer(t *testing.T) {
	body := readFixture(t, "rss2.xml")
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	fetcher := NewFetcher()
	items := fetcher.Fetch(context.Background(), model.Source{ID: "x", URL: srv.URL})
	assert.Len(t, items, 6)
	assert.Equal(t, UserAgent, gotUA)
	assert.Contains(t, gotAccept, "application/rss+xml")
}

func TestFetcher_FailuresYieldNoItems(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer failing.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>not a feed</body></html>"))
	}))
	defer garbage.Close()

	body := readFixture(t, "rss2.xml")
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(body))
	}))
	defer slow.Close()

	fetcher := NewFetcher(WithTimeout(50 * time.Millisecond))

	tests := []struct {
		name string
		url  string
	}{
		{"http 500", failing.URL},
		{"unparseable body", garbage.URL},
		{"timeout", slow.URL},
		{"invalid url", "://nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := model.Source{ID: "bad", URL: tt.url}

			_, err := fetcher.FetchSource(context.Background(), src)
			assert.Error(t, err)

			items := fetcher.Fetch(context.Background(), src)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestFetcher_UndatedEntryUsesRetrievalTime(t *testing.T) {
	undated := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Minimal Feed</title>
    <item>
      <title>Entry with no date</title>
      <link>https://example.com/minimal</link>
      <guid>minimal-1</guid>
    </item>
  </channel>
</rss>`

	fetcher := NewFetcher()
	start := time.Now()
	items, err := fetcher.Parse(testSrc, undated)
	end := time.Now()
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0].PublishedAt
	assert.False(t, got.Before(start.Truncate(time.Millisecond)))
	assert.False(t, got.After(end))
	assert.Equal(t, "", items[0].Description)
}
