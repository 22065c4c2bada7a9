package feedback

import (
	"errors"
	"sort"
	"sync"
)

// Validation errors. Their messages are delivered verbatim to API clients.
var (
	ErrInvalidScore    = errors.New("Invalid feedback: Score must be between 1 and 5")
	ErrInvalidFavorite = errors.New("Invalid favorite action")
)

// Favorite actions accepted by ToggleFavorite.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Store accumulates per-title feedback scores and the favorite set.
// Both are process-global, not per-user.
// It's safe for concurrent use.
type Store struct {
	lock      sync.RWMutex
	scores    map[string]float64
	counts    map[string]int
	favorites map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		scores:    map[string]float64{},
		counts:    map[string]int{},
		favorites: map[string]struct{}{},
	}
}

// Record adds a feedback score for a title.
// Scores outside [1, 5] and empty titles are rejected without mutating any state.
func (s *Store) Record(title string, score float64) error {
	if title == "" || score < 1 || score > 5 {
		return ErrInvalidScore
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.scores[title] += score
	s.counts[title]++
	return nil
}

// Average returns the average feedback score for a title,
// or 0 if the title never received any feedback.
func (s *Store) Average(title string) float64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	count := s.counts[title]
	if count < 1 {
		count = 1
	}
	return s.scores[title] / float64(count)
}

// ToggleFavorite adds a title to or removes it from the favorite set.
// It's idempotent: adding a present title or removing an absent one is a no-op.
func (s *Store) ToggleFavorite(title, action string) error {
	if title == "" || (action != ActionAdd && action != ActionRemove) {
		return ErrInvalidFavorite
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if action == ActionAdd {
		s.favorites[title] = struct{}{}
	} else {
		delete(s.favorites, title)
	}
	return nil
}

// IsFavorite returns true if the title is in the favorite set.
func (s *Store) IsFavorite(title string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, found := s.favorites[title]
	return found
}

// Favorites returns the favorite titles, sorted for deterministic output.
func (s *Store) Favorites() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	result := make([]string, 0, len(s.favorites))
	for title := range s.favorites {
		result = append(result, title)
	}
	sort.Strings(result)
	return result
}
