package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookcatalog/internal/config"
	"bookcatalog/internal/logging"
)

type seedLibrary struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
}

type seedBook struct {
	Title     string
	Author    string
	ISBN      string
	Year      int
	Publisher string
	Pages     int
}

var libraries = []seedLibrary{
	{"lib-central", "Central Library", "455 Fifth Ave", 40.7527, -73.9822},
	{"lib-harbor", "Harbor Branch", "12 Pier Rd", 40.7033, -74.0170},
	{"lib-hill", "Hillside Branch", "88 Summit St", 40.8116, -73.9465},
	{"lib-park", "Parkview Branch", "3 Grove Ln", 40.6602, -73.9690},
}

// Well-known works so subject, trending and top lookups find local matches.
var classics = []seedBook{
	{"Dune", "Frank Herbert", "9780441013593", 1965, "Ace", 612},
	{"Foundation", "Isaac Asimov", "9780553293357", 1951, "Bantam", 255},
	{"Neuromancer", "William Gibson", "9780441569595", 1984, "Ace", 271},
	{"Nineteen Eighty-Four", "George Orwell", "9780451524935", 1949, "Signet", 328},
	{"Animal Farm", "George Orwell", "9780451526342", 1945, "Signet", 140},
	{"Pride and Prejudice", "Jane Austen", "9780141439518", 1813, "Penguin", 480},
	{"Emma", "Jane Austen", "9780141439587", 1815, "Penguin", 474},
	{"Persuasion", "Jane Austen", "9780141439686", 1817, "Penguin", 249},
	{"Jane Eyre", "Charlotte Bronte", "9780141441146", 1847, "Penguin", 532},
	{"Wuthering Heights", "Emily Bronte", "9780141439556", 1847, "Penguin", 416},
	{"The Odyssey", "Homer", "9780140449136", -700, "Penguin Classics", 541},
	{"Frankenstein", "Mary Shelley", "9780486282114", 1818, "Dover", 166},
	{"Dracula", "Bram Stoker", "9780486411095", 1897, "Dover", 418},
	{"The Hobbit", "J. R. R. Tolkien", "9780547928227", 1937, "Houghton Mifflin", 300},
	{"Brave New World", "Aldous Huxley", "9780060850524", 1932, "Harper Perennial", 288},
	{"Fahrenheit 451", "Ray Bradbury", "9781451673319", 1953, "Simon & Schuster", 249},
	{"The Great Gatsby", "F. Scott Fitzgerald", "9780743273565", 1925, "Scribner", 180},
	{"Moby Dick", "Herman Melville", "9780142437247", 1851, "Penguin", 720},
	{"Atomic Habits", "James Clear", "9780735211292", 2018, "Avery", 320},
	{"Sapiens", "Yuval Noah Harari", "9780062316097", 2011, "Harper", 464},
}

var (
	publishers = []string{"Penguin", "HarperCollins", "Oxford", "Cambridge", "MIT Press", "Vintage", "Tor", "Orbit"}
	words      = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "History", "Future", "Light",
		"Darkness", "World", "Time", "Space", "Mind",
	}
)

var bookColumns = []string{"title", "author", "isbn", "publication_year", "publisher", "num_pages", "popularity", "library_id"}

func main() {
	count := flag.Int("count", 1000, "Number of generated books in addition to the classics")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	if err := seedAll(ctx, pool, rand.New(rand.NewSource(*seed)), *count); err != nil {
		logging.Fatal().Err(err).Msg("seed failed")
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&total); err == nil {
		logging.Info().Int("total", total).Msg("books in database")
	}
}

func seedAll(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, count int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, l := range libraries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO libraries (id, name, address, latitude, longitude) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			l.ID, l.Name, l.Address, l.Latitude, l.Longitude); err != nil {
			return fmt.Errorf("insert library %s: %w", l.ID, err)
		}
	}

	rows := bookRows(rng, count)
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"books"}, bookColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy books: %w", err)
	}
	logging.Info().Int64("rows", n).Int("libraries", len(libraries)).Msg("seeded")

	return tx.Commit(ctx)
}

// bookRows returns the classics followed by count generated books, each as a
// row in bookColumns order. Roughly one book in ten has no library and one
// in twenty has no popularity.
func bookRows(rng *rand.Rand, count int) [][]any {
	rows := make([][]any, 0, len(classics)+count)

	for _, b := range classics {
		rows = append(rows, []any{
			b.Title, b.Author, b.ISBN, b.Year, b.Publisher, b.Pages,
			500 + rng.Intn(500), libraries[rng.Intn(len(libraries))].ID,
		})
	}

	for i := 0; i < count; i++ {
		var libraryID any
		if rng.Intn(10) > 0 {
			libraryID = libraries[rng.Intn(len(libraries))].ID
		}
		var popularity any
		if rng.Intn(20) > 0 {
			popularity = rng.Intn(500)
		}
		rows = append(rows, []any{
			fmt.Sprintf("%s of %s %d", words[rng.Intn(len(words))], words[rng.Intn(len(words))], i+1),
			fmt.Sprintf("Author %d", 1+rng.Intn(count/5+1)),
			fmt.Sprintf("978%010d", i+1),
			1950 + rng.Intn(75),
			publishers[rng.Intn(len(publishers))],
			100 + rng.Intn(800),
			popularity,
			libraryID,
		})
	}
	return rows
}
