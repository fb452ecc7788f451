package openlibrary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		CoversURL:  srv.URL,
		UserAgent:  "bookcatalog-test",
		Timeout:    2 * time.Second,
		RPS:        1000,
		MaxRetries: 1,
	})
}

func TestClient_Subject(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subjects/science_fiction.json", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "bookcatalog-test", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"name":"science_fiction","work_count":2,"works":[
			{"key":"/works/OL1W","title":"Dune"},
			{"key":"/works/OL2W","title":"  "},
			{"key":"/works/OL3W","title":"Foundation"}]}`)
	}))

	res, err := c.Subject(context.Background(), "Science_Fiction", 50)
	require.NoError(t, err)
	assert.Len(t, res.Works, 3)
	assert.Equal(t, []string{"Dune", "Foundation"}, res.Titles())
}

func TestClient_Subject_SpacesBecomeUnderscores(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subjects/science_fiction.json", r.URL.Path)
		assert.Empty(t, r.URL.RawPath)
		_, _ = io.WriteString(w, `{"works":[{"key":"/works/OL1W","title":"Dune"}]}`)
	}))

	res, err := c.Subject(context.Background(), "Science  Fiction ", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, res.Titles())
}

func TestSubjectKey(t *testing.T) {
	assert.Equal(t, "science_fiction", SubjectKey("science fiction"))
	assert.Equal(t, "science_fiction", SubjectKey("Science_Fiction"))
	assert.Equal(t, "love", SubjectKey(" Love "))
}

func TestClient_Trending(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trending/weekly.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"works":[{"key":"/works/OL9W","title":"Atomic Habits"}]}`)
	}))

	res, err := c.Trending(context.Background(), "weekly")
	require.NoError(t, err)
	assert.Equal(t, []string{"Atomic Habits"}, res.Titles())
}

func TestClient_EditionByISBN(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/9780140449136.json":
			_, _ = io.WriteString(w, `{"key":"/books/OL1M","title":"The Odyssey","works":[{"key":"/works/OL61W"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))

	t.Run("found", func(t *testing.T) {
		ed, err := c.EditionByISBN(context.Background(), "9780140449136")
		require.NoError(t, err)
		assert.Equal(t, []string{"/works/OL61W"}, ed.WorkKeys())
	})

	t.Run("unknown isbn", func(t *testing.T) {
		_, err := c.EditionByISBN(context.Background(), "0000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_Work_Description(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/works/OL1W.json":
			_, _ = io.WriteString(w, `{"key":"/works/OL1W","subjects":["Epic"],"description":"plain text"}`)
		case "/works/OL2W.json":
			_, _ = io.WriteString(w, `{"key":"/works/OL2W","description":{"type":"/type/text","value":"typed text"}}`)
		case "/works/OL3W.json":
			_, _ = io.WriteString(w, `{"key":"/works/OL3W"}`)
		}
	}))
	ctx := context.Background()

	w1, err := c.Work(ctx, "/works/OL1W")
	require.NoError(t, err)
	assert.Equal(t, "plain text", w1.DescriptionText())
	assert.Equal(t, []string{"Epic"}, w1.Subjects)

	w2, err := c.Work(ctx, "OL2W")
	require.NoError(t, err)
	assert.Equal(t, "typed text", w2.DescriptionText())

	w3, err := c.Work(ctx, "/works/OL3W")
	require.NoError(t, err)
	assert.Empty(t, w3.DescriptionText())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"works":[]}`)
	}))

	res, err := c.Trending(context.Background(), "daily")
	require.NoError(t, err)
	assert.Empty(t, res.Works)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.Trending(context.Background(), "daily")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_InvalidJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	}))

	_, err := c.Subject(context.Background(), "love", 0)
	assert.Error(t, err)
}

func TestClient_Cover(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("default"))
		switch r.URL.Path {
		case "/b/isbn/111-M.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
		case "/b/isbn/222-M.jpg":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := context.Background()

	t.Run("image", func(t *testing.T) {
		cover, err := c.Cover(ctx, "111", "M")
		require.NoError(t, err)
		defer cover.Body.Close()
		b, _ := io.ReadAll(cover.Body)
		assert.Equal(t, "image/jpeg", cover.ContentType)
		assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, b)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := c.Cover(ctx, "222", "M")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := c.Cover(ctx, "333", "M")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_CoverURL(t *testing.T) {
	c := NewClient(Config{CoversURL: "https://covers.openlibrary.org/"})
	assert.Equal(t, "https://covers.openlibrary.org/b/isbn/9780140449136-L.jpg?default=false", c.CoverURL("9780140449136", "L"))
}
