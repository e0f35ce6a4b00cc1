// Package storetest provides in-memory stand-ins for the store interfaces.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/snap-point/social-posts/models"
	"github.com/snap-point/social-posts/store"
	"github.com/snap-point/social-posts/utils"
)

type label string

func (l label) Label() string {
	return string(l)
}

// MemoryPosts is a PostTable backed by a slice. The *Err fields, when set,
// are returned by the matching method instead of touching the data.
type MemoryPosts struct {
	mu     sync.Mutex
	posts  []models.Post
	nextID int64

	SelectErr error
	InsertErr error
	UpdateErr error
}

var _ store.PostTable = (*MemoryPosts)(nil)

func NewMemoryPosts() *MemoryPosts {
	return &MemoryPosts{nextID: 1}
}

// Add seeds a post directly and returns its id.
func (m *MemoryPosts) Add(content string, likes int64, removed bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.posts = append(m.posts, models.Post{
		ID:      id,
		Content: content,
		Likes:   likes,
		Created: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
		Removed: removed,
	})
	return id
}

// Find returns a copy of the stored post regardless of its removed flag.
func (m *MemoryPosts) Find(id int64) (models.Post, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func matches(p models.Post, where store.Where) bool {
	if p.Removed != where.Removed {
		return false
	}
	return !where.ByID || p.ID == where.ID
}

func (m *MemoryPosts) Select(where store.Where) (store.Result, error) {
	if m.SelectErr != nil {
		return store.Result{}, m.SelectErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var found []models.Post
	for _, p := range m.posts {
		if matches(p, where) {
			found = append(found, p)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID > found[j].ID })

	result := store.Result{Columns: make([]utils.Column, len(models.PostColumns))}
	for i, name := range models.PostColumns {
		result.Columns[i] = label(name)
	}
	for _, p := range found {
		result.Rows = append(result.Rows, []interface{}{p.ID, p.Content, p.Likes, p.Created})
	}
	return result, nil
}

func (m *MemoryPosts) Insert(content string) (int64, error) {
	if m.InsertErr != nil {
		return 0, m.InsertErr
	}
	return m.Add(content, 0, false), nil
}

func (m *MemoryPosts) Update(where store.Where, changes store.Changes) (int64, error) {
	if m.UpdateErr != nil {
		return 0, m.UpdateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for i := range m.posts {
		p := &m.posts[i]
		if !matches(*p, where) {
			continue
		}
		if changes.Content != nil {
			p.Content = *changes.Content
		}
		if changes.Removed != nil {
			p.Removed = *changes.Removed
		}
		p.Likes += changes.LikesDelta
		affected++
	}
	return affected, nil
}

// Sessions is a SessionFactory that hands out sessions over one table and
// counts how many were opened and closed.
type Sessions struct {
	mu     sync.Mutex
	opens  int
	closes int

	Table    store.PostTable
	OpenErr  error
	CloseErr error
	PingErr  error
}

var _ store.SessionFactory = (*Sessions)(nil)

func NewSessions(table store.PostTable) *Sessions {
	return &Sessions{Table: table}
}

func (s *Sessions) Open(_ context.Context) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.opens++
	return &session{owner: s}, nil
}

func (s *Sessions) Ping(_ context.Context) error {
	return s.PingErr
}

// Counts reports opened and closed sessions.
func (s *Sessions) Counts() (opens, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens, s.closes
}

type session struct {
	owner *Sessions
}

func (s *session) Posts() store.PostTable {
	return s.owner.Table
}

func (s *session) Close() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	s.owner.closes++
	return s.owner.CloseErr
}
