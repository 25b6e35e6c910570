package learning_test

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguava/linguava/internal/catalog"
	"github.com/linguava/linguava/internal/learning"
)

type fakeStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*learning.UserLanguage
	seq  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uuid.UUID]*learning.UserLanguage)}
}

func (s *fakeStore) ListByUser(_ context.Context, userID uuid.UUID) ([]learning.UserLanguage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []learning.UserLanguage
	for _, ul := range s.rows {
		if ul.UserID == userID && ul.DeletedAt == nil {
			out = append(out, *ul)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*learning.UserLanguage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ul, ok := s.rows[id]
	if !ok || ul.DeletedAt != nil {
		return nil, learning.ErrNotFound
	}
	cp := *ul
	return &cp, nil
}

func (s *fakeStore) Create(_ context.Context, ul *learning.UserLanguage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.UserID == ul.UserID && row.LanguageCode == ul.LanguageCode && row.DeletedAt == nil {
			return learning.ErrAlreadyStudying
		}
	}
	s.seq++
	ul.CreatedAt = time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	ul.UpdatedAt = ul.CreatedAt
	cp := *ul
	s.rows[ul.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateProficiency(_ context.Context, id uuid.UUID, p learning.Proficiency) (*learning.UserLanguage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ul, ok := s.rows[id]
	if !ok || ul.DeletedAt != nil {
		return nil, learning.ErrNotFound
	}
	ul.Proficiency = p
	ul.UpdatedAt = time.Now()
	cp := *ul
	return &cp, nil
}

func (s *fakeStore) SetPrimary(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.rows[id]
	if !ok || target.DeletedAt != nil || target.UserID != userID {
		return learning.ErrNotFound
	}
	for _, ul := range s.rows {
		if ul.UserID == userID && ul.DeletedAt == nil {
			ul.IsPrimary = ul.ID == id
		}
	}
	return nil
}

func (s *fakeStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ul, ok := s.rows[id]
	if !ok || ul.DeletedAt != nil {
		return learning.ErrNotFound
	}
	now := time.Now()
	ul.DeletedAt = &now
	ul.IsPrimary = false
	return nil
}

func newTestService(t *testing.T) (*learning.Service, *fakeStore) {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	store := newFakeStore()
	return learning.NewService(store, cat, slog.New(slog.DiscardHandler)), store
}

func TestService_Add(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	userID := uuid.New()

	// The first language becomes primary.
	first, err := svc.Add(ctx, userID, "es", learning.Beginner)
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, "es", first.LanguageCode)

	// Later ones do not steal the flag.
	second, err := svc.Add(ctx, userID, "ja", learning.Intermediate)
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	// Codes are canonicalized before storage, so a respelled duplicate
	// still collides.
	_, err = svc.Add(ctx, userID, "ES", learning.Advanced)
	assert.ErrorIs(t, err, learning.ErrAlreadyStudying)

	_, err = svc.Add(ctx, userID, "tlh", learning.Beginner)
	assert.ErrorIs(t, err, learning.ErrUnknownLanguage)

	_, err = svc.Add(ctx, userID, "fr", learning.Proficiency("expert"))
	assert.ErrorIs(t, err, learning.ErrInvalidProficiency)
}

func TestService_List_PrimaryFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	userID := uuid.New()

	es, err := svc.Add(ctx, userID, "es", learning.Beginner)
	require.NoError(t, err)
	fr, err := svc.Add(ctx, userID, "fr", learning.Beginner)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, "ja", learning.Beginner)
	require.NoError(t, err)

	require.NoError(t, svc.SetPrimary(ctx, userID, fr.ID))

	langs, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, langs, 3)
	assert.Equal(t, fr.ID, langs[0].ID)
	assert.True(t, langs[0].IsPrimary)
	assert.Equal(t, es.ID, langs[1].ID)
	assert.False(t, langs[1].IsPrimary)
}

func TestService_UpdateProficiency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	userID := uuid.New()

	es, err := svc.Add(ctx, userID, "es", learning.Beginner)
	require.NoError(t, err)

	updated, err := svc.UpdateProficiency(ctx, userID, es.ID, learning.Advanced)
	require.NoError(t, err)
	assert.Equal(t, learning.Advanced, updated.Proficiency)

	_, err = svc.UpdateProficiency(ctx, userID, es.ID, learning.Proficiency("native"))
	assert.ErrorIs(t, err, learning.ErrInvalidProficiency)

	// Another user's row reads as missing, not forbidden.
	_, err = svc.UpdateProficiency(ctx, uuid.New(), es.ID, learning.Fluent)
	assert.ErrorIs(t, err, learning.ErrNotFound)
}

func TestService_Remove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	userID := uuid.New()

	es, err := svc.Add(ctx, userID, "es", learning.Beginner)
	require.NoError(t, err)
	fr, err := svc.Add(ctx, userID, "fr", learning.Beginner)
	require.NoError(t, err)

	// Removing the primary leaves no primary behind.
	require.NoError(t, svc.Remove(ctx, userID, es.ID))
	langs, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, langs, 1)
	assert.Equal(t, fr.ID, langs[0].ID)
	assert.False(t, langs[0].IsPrimary)

	// Double remove and foreign remove both read as missing.
	assert.ErrorIs(t, svc.Remove(ctx, userID, es.ID), learning.ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, uuid.New(), fr.ID), learning.ErrNotFound)

	// The language can be studied again after removal.
	again, err := svc.Add(ctx, userID, "es", learning.Elementary)
	require.NoError(t, err)
	assert.NotEqual(t, es.ID, again.ID)
}

func TestService_SetPrimary_Exclusive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	userID := uuid.New()

	es, err := svc.Add(ctx, userID, "es", learning.Beginner)
	require.NoError(t, err)
	fr, err := svc.Add(ctx, userID, "fr", learning.Beginner)
	require.NoError(t, err)

	require.NoError(t, svc.SetPrimary(ctx, userID, fr.ID))
	require.NoError(t, svc.SetPrimary(ctx, userID, es.ID))

	langs, err := svc.List(ctx, userID)
	require.NoError(t, err)
	var primaries int
	for _, l := range langs {
		if l.IsPrimary {
			primaries++
			assert.Equal(t, es.ID, l.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	assert.ErrorIs(t, svc.SetPrimary(ctx, uuid.New(), es.ID), learning.ErrNotFound)
}
