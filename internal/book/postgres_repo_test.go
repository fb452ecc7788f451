package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery(t *testing.T) {
	t.Run("unfiltered unbounded", func(t *testing.T) {
		sql, args := buildListQuery(Query{})
		assert.Contains(t, sql, "WHERE 1=1")
		assert.Contains(t, sql, "ORDER BY id")
		assert.NotContains(t, sql, "LIMIT")
		assert.Empty(t, args)
	})

	t.Run("term binds one pattern", func(t *testing.T) {
		sql, args := buildListQuery(Query{Term: "50%_off", Limit: 20, Offset: 40})
		assert.Contains(t, sql, "(title ILIKE $1 OR author ILIKE $1 OR publisher ILIKE $1 OR isbn ILIKE $1)")
		assert.Contains(t, sql, "LIMIT $2 OFFSET $3")
		assert.Equal(t, []any{`%50\%\_off%`, 20, 40}, args)
	})

	t.Run("isbn and library", func(t *testing.T) {
		sql, args := buildListQuery(Query{ISBN: "978", LibraryID: "lib"})
		assert.Contains(t, sql, "isbn ILIKE $1")
		assert.Contains(t, sql, "library_id ILIKE $2")
		assert.Equal(t, []any{"%978%", "%lib%"}, args)
	})

	t.Run("titles lowercased", func(t *testing.T) {
		sql, args := buildListQuery(Query{Titles: []string{"Dune", "EMMA"}, Limit: 5})
		assert.Contains(t, sql, "lower(title) = ANY($1)")
		assert.NotContains(t, sql, "GROUP BY")
		assert.Equal(t, []any{[]string{"dune", "emma"}, 5, 0}, args)
	})

	t.Run("distinct groups rows", func(t *testing.T) {
		sql, _ := buildListQuery(Query{Titles: []string{"Dune"}, Distinct: true})
		assert.Contains(t, sql, "min(id) AS id")
		assert.Contains(t, sql, "GROUP BY title, author, isbn, publication_year, publisher, library_id")
		assert.Contains(t, sql, "ORDER BY id")
	})

	t.Run("input never reaches sql text", func(t *testing.T) {
		sql, _ := buildListQuery(Query{Term: "'; DROP TABLE books; --"})
		assert.NotContains(t, sql, "DROP TABLE")
	})
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%abc%", containsPattern("abc"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
	assert.Equal(t, `%100\%%`, containsPattern("100%"))
}
