package profile

import (
	"sort"
	"sync"
)

// DefaultUserID is the shared identity used when a request carries no user ID.
const DefaultUserID = "default"

// Profile is a snapshot of a user's mood and genre-preference state.
type Profile struct {
	LastMood        string   `json:"last_mood"`
	PreferredGenres []string `json:"preferred_genres"`
}

type userProfile struct {
	lastMood string
	genres   map[string]struct{}
}

// Store holds per-user profiles, lazily creating an empty one on first access.
// It's safe for concurrent use.
type Store struct {
	lock     sync.Mutex
	profiles map[string]*userProfile
}

func NewStore() *Store {
	return &Store{
		profiles: map[string]*userProfile{},
	}
}

// Get returns a snapshot of the user's profile, creating an empty one if the
// user was never seen before. The preferred genres are sorted for deterministic output.
func (s *Store) Get(userID string) Profile {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.profile(userID).snapshot()
}

// Update overwrites the user's last mood and unions the given genres into the
// preferred set. Preferences only ever grow, they're never removed.
// It returns the updated profile snapshot.
func (s *Store) Update(userID, mood string, genres []string) Profile {
	s.lock.Lock()
	defer s.lock.Unlock()
	p := s.profile(userID)
	p.lastMood = mood
	for _, genre := range genres {
		p.genres[genre] = struct{}{}
	}
	return p.snapshot()
}

// RecordImplicit applies the profile side effect of a recommendation request:
// the requested mood becomes the last mood, and a non-empty requested genre
// joins the preferred set.
func (s *Store) RecordImplicit(userID, genre, mood string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	p := s.profile(userID)
	p.lastMood = mood
	if genre != "" {
		p.genres[genre] = struct{}{}
	}
}

// profile returns the user's mutable profile, creating it if necessary.
// The caller must hold the lock.
func (s *Store) profile(userID string) *userProfile {
	if userID == "" {
		userID = DefaultUserID
	}
	p, found := s.profiles[userID]
	if !found {
		p = &userProfile{genres: map[string]struct{}{}}
		s.profiles[userID] = p
	}
	return p
}

func (p *userProfile) snapshot() Profile {
	genres := make([]string, 0, len(p.genres))
	for genre := range p.genres {
		genres = append(genres, genre)
	}
	sort.Strings(genres)
	return Profile{
		LastMood:        p.lastMood,
		PreferredGenres: genres,
	}
}
