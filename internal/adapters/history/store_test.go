package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/aquote/internal/domain"
)

var testFetchTime = time.Date(2021, 1, 1, 10, 0, 0, 0, time.UTC)

// makeQuote returns a quote with fixed metadata and the given text.
func makeQuote(text string) domain.Quote {
	return domain.Quote{
		Text:      text,
		Author:    "Test Author",
		VendorKey: "testvendor",
		FetchTime: testFetchTime,
	}
}

// texts returns the quote texts in order.
func texts(quotes []domain.Quote) []string {
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q.Text)
	}

	return out
}

// writeHistory writes raw content to a history file in a temp dir.
func writeHistory(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNew(t *testing.T) {
	store, err := New([]domain.Quote{makeQuote("Quote 1")}, "/dev/null", 3)

	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 3, store.MaxSize())
	assert.Equal(t, "/dev/null", store.Path())
}

func TestNew_InvalidMaxSize(t *testing.T) {
	for _, maxSize := range []int{0, -1} {
		t.Run(fmt.Sprintf("max %d", maxSize), func(t *testing.T) {
			store, err := New([]domain.Quote{makeQuote("Quote 1")}, "/dev/null", maxSize)

			require.ErrorIs(t, err, domain.ErrInvalidMaxSize)
			assert.Nil(t, store)
		})
	}
}

func TestNew_Truncates(t *testing.T) {
	quotes := []domain.Quote{makeQuote("Quote 1"), makeQuote("Quote 2")}

	store, err := New(quotes, "/dev/null", 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"Quote 1"}, texts(store.List()))
}

func TestNew_CopiesInput(t *testing.T) {
	quotes := []domain.Quote{makeQuote("Quote 1")}

	store, err := New(quotes, "/dev/null", 2)
	require.NoError(t, err)

	quotes[0].Text = "changed"

	assert.Equal(t, []string{"Quote 1"}, texts(store.List()))
}

func TestList(t *testing.T) {
	quotes := []domain.Quote{makeQuote("Quote 1"), makeQuote("Quote 2")}

	store, err := New(quotes, "/dev/null", 3)
	require.NoError(t, err)

	assert.Equal(t, quotes, store.List())
}

func TestList_ReturnsCopy(t *testing.T) {
	store, err := New([]domain.Quote{makeQuote("Quote 1")}, "/dev/null", 3)
	require.NoError(t, err)

	listed := store.List()
	listed[0].Text = "changed"

	latest, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "Quote 1", latest.Text)
}

func TestGet(t *testing.T) {
	quotes := []domain.Quote{makeQuote("Quote 1"), makeQuote("Quote 2")}

	store, err := New(quotes, "/dev/null", 3)
	require.NoError(t, err)

	latest, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, quotes[0], latest)
}

func TestGet_Empty(t *testing.T) {
	store, err := New(nil, "/dev/null", 3)
	require.NoError(t, err)

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestPush(t *testing.T) {
	store, err := New(nil, "/dev/null", 2)
	require.NoError(t, err)

	store.Push(makeQuote("Quote 1"))
	assert.Equal(t, []string{"Quote 1"}, texts(store.List()))

	store.Push(makeQuote("Quote 2"))
	assert.Equal(t, []string{"Quote 2", "Quote 1"}, texts(store.List()))

	store.Push(makeQuote("Quote 3"))
	assert.Equal(t, []string{"Quote 3", "Quote 2"}, texts(store.List()))
}

func TestPush_NeverExceedsMaxSize(t *testing.T) {
	for maxSize := 1; maxSize <= 6; maxSize++ {
		t.Run(fmt.Sprintf("max %d", maxSize), func(t *testing.T) {
			store, err := New(nil, "/dev/null", maxSize)
			require.NoError(t, err)

			for i := range 3 * maxSize {
				store.Push(makeQuote(fmt.Sprintf("Quote %d", i)))
				assert.LessOrEqual(t, store.Len(), maxSize)
			}

			latest, ok := store.Get()
			require.True(t, ok)
			assert.Equal(t, fmt.Sprintf("Quote %d", 3*maxSize-1), latest.Text)
		})
	}
}

func TestPush_EvictsByInsertionOrderNotFetchTime(t *testing.T) {
	store, err := New(nil, "/dev/null", 2)
	require.NoError(t, err)

	late := makeQuote("late")
	late.FetchTime = testFetchTime.Add(time.Hour)
	early := makeQuote("early")

	store.Push(late)
	store.Push(early)
	store.Push(makeQuote("newest"))

	assert.Equal(t, []string{"newest", "early"}, texts(store.List()))
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	store, err := Load(path, 5)

	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, path, store.Path())
}

func TestLoad_InvalidMaxSize(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName), 0)

	require.ErrorIs(t, err, domain.ErrInvalidMaxSize)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid json", content: `[{"quote": "unterminated`},
		{name: "not an array", content: `{"quote": "Q", "author": "A"}`},
		{name: "wrong field type", content: `[{"quote": 1, "author": "A", "vendor": "v", "fetch_time": "2021-01-01T10:00:00Z"}]`},
		{name: "bad timestamp", content: `[{"quote": "Q", "author": "A", "vendor": "v", "fetch_time": "yesterday"}]`},
		{name: "missing author", content: `[{"quote": "Q", "vendor": "v", "fetch_time": "2021-01-01T10:00:00Z"}]`},
		{name: "missing fetch time", content: `[{"quote": "Q", "author": "A", "vendor": "v"}]`},
		{name: "null", content: `null`},
		{name: "null with whitespace", content: "  null\n"},
		{name: "null entry", content: `[null]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeHistory(t, tt.content)

			store, err := Load(path, 5)

			require.Error(t, err)
			assert.Nil(t, store)
			assert.True(t, domain.IsMalformedHistory(err))
			assert.ErrorIs(t, err, domain.ErrLoadHistory)
		})
	}
}

func TestLoad_EmptyArray(t *testing.T) {
	store, err := Load(writeHistory(t, "[]"), 5)

	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestLoad_UnreadableIsNotMissing(t *testing.T) {
	// A directory where the file should be cannot be read, but it exists.
	path := t.TempDir()

	_, err := Load(path, 5)

	require.ErrorIs(t, err, domain.ErrLoadHistory)
	assert.False(t, domain.IsMalformedHistory(err))
}

func TestLoad_ReversesDiskOrder(t *testing.T) {
	path := writeHistory(t, `[
  {"quote": "Oldest", "author": "A", "url": null, "vendor": "v", "fetch_time": "2021-01-01T10:00:00Z"},
  {"quote": "Newest", "author": "B", "url": "https://test/quote", "vendor": "v", "fetch_time": "2021-01-02T10:00:00Z"}
]`)

	store, err := Load(path, 5)
	require.NoError(t, err)

	quotes := store.List()
	require.Len(t, quotes, 2)
	assert.Equal(t, "Newest", quotes[0].Text)
	assert.Equal(t, "https://test/quote", quotes[0].URLString())
	assert.Equal(t, "Oldest", quotes[1].Text)
	assert.Nil(t, quotes[1].URL)
}

func TestLoad_EmptyQuoteTextIsAccepted(t *testing.T) {
	path := writeHistory(t, `[{"quote": "", "author": "", "vendor": "v", "fetch_time": "2021-01-01T10:00:00Z"}]`)

	store, err := Load(path, 5)

	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestLoad_ShrinksToMaxSize(t *testing.T) {
	source, err := New(nil, filepath.Join(t.TempDir(), FileName), 5)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		source.Push(makeQuote(fmt.Sprintf("Quote %d", i)))
	}
	require.NoError(t, source.Save())

	store, err := Load(source.Path(), 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"Quote 5", "Quote 4"}, texts(store.List()))
}

func TestSave_RoundTrip(t *testing.T) {
	url := "https://test/quote"
	path := filepath.Join(t.TempDir(), "data", "dir", FileName)

	store, err := Load(path, 3)
	require.NoError(t, err)

	withURL := makeQuote("Quote 2")
	withURL.URL = &url
	withURL.FetchTime = testFetchTime.Add(time.Minute)

	store.Push(makeQuote("Quote 1"))
	store.Push(withURL)
	require.NoError(t, store.Save())

	reloaded, err := Load(path, 3)
	require.NoError(t, err)

	assert.Equal(t, store.List(), reloaded.List())
}

func TestSave_WritesOldestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	store, err := New(nil, path, 3)
	require.NoError(t, err)

	store.Push(makeQuote("Quote 1"))
	store.Push(makeQuote("Quote 2"))
	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk []map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	require.Len(t, onDisk, 2)

	assert.Equal(t, "Quote 1", onDisk[0]["quote"])
	assert.Equal(t, "Quote 2", onDisk[1]["quote"])
	assert.Equal(t, "testvendor", onDisk[0]["vendor"])
	assert.Equal(t, "2021-01-01T10:00:00Z", onDisk[0]["fetch_time"])
	assert.Contains(t, onDisk[0], "url")
	assert.Nil(t, onDisk[0]["url"])
}

func TestSave_OverwritesPreviousContent(t *testing.T) {
	path := writeHistory(t, `[
  {"quote": "A", "author": "x", "vendor": "v", "fetch_time": "2021-01-01T10:00:00Z"},
  {"quote": "B", "author": "x", "vendor": "v", "fetch_time": "2021-01-01T10:00:00Z"},
  {"quote": "C", "author": "x", "vendor": "v", "fetch_time": "2021-01-01T10:00:00Z"}
]`)

	store, err := Load(path, 1)
	require.NoError(t, err)
	require.NoError(t, store.Save())

	reloaded, err := Load(path, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, texts(reloaded.List()))
}

func TestSave_Failure(t *testing.T) {
	// A regular file where the parent directory should be.
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o600))

	store, err := New([]domain.Quote{makeQuote("Quote 1")}, filepath.Join(parent, FileName), 2)
	require.NoError(t, err)

	err = store.Save()

	require.ErrorIs(t, err, domain.ErrSaveHistory)
}
