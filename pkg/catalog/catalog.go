package catalog

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Movie is a single catalog entry. Titles are assumed to be unique within the dataset.
type Movie struct {
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
}

// Catalog is an immutable in-memory movie table, loaded once at startup.
type Catalog struct {
	movies  []Movie
	byTitle map[string]int
}

func New(movies []Movie) *Catalog {
	byTitle := make(map[string]int, len(movies))
	for i, movie := range movies {
		byTitle[movie.Title] = i
	}
	return &Catalog{
		movies:  movies,
		byTitle: byTitle,
	}
}

// Load reads a MovieLens-style CSV file with a "movieId,title,genres" header,
// where the genres column contains pipe-separated genre names.
func Load(fs afero.Fs, filePath string) (*Catalog, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open movie dataset: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("Couldn't read movie dataset: %v", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("Movie dataset %v is empty", filePath)
	}

	var movies []Movie
	// Skip the header row
	for _, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("Movie dataset record has %v columns instead of 3: %v", len(record), record)
		}
		movies = append(movies, Movie{
			Title:  record[1],
			Genres: strings.Split(record[2], "|"),
		})
	}

	return New(movies), nil
}

// FilterByGenre returns all movies that have the given genre, in catalog insertion order.
// An unknown genre leads to an empty result, not an error.
func (c *Catalog) FilterByGenre(genre string) []Movie {
	var result []Movie
	for _, movie := range c.movies {
		for _, movieGenre := range movie.Genres {
			if movieGenre == genre {
				result = append(result, movie)
				break
			}
		}
	}
	return result
}

// Get looks up a movie by its exact title.
func (c *Catalog) Get(title string) (Movie, bool) {
	i, found := c.byTitle[title]
	if !found {
		return Movie{}, false
	}
	return c.movies[i], true
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.movies)
}
