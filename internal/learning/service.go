package learning

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linguava/linguava/internal/catalog"
	"github.com/linguava/linguava/pkg/logger"
)

// Service applies the business rules over the Store: catalog membership,
// proficiency validation and ownership checks.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	log     *slog.Logger
}

func NewService(store Store, cat *catalog.Catalog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, catalog: cat, log: log.With(slog.String("component", "learning"))}
}

// List returns the user's active languages, primary first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]UserLanguage, error) {
	return s.store.ListByUser(ctx, userID)
}

// Add starts studying a language. The first language a user adds becomes
// primary automatically.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, code string, p Proficiency) (*UserLanguage, error) {
	lang, ok := s.catalog.Get(code)
	if !ok {
		return nil, ErrUnknownLanguage
	}
	if !p.Valid() {
		return nil, ErrInvalidProficiency
	}

	existing, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ul := &UserLanguage{
		ID:           uuid.New(),
		UserID:       userID,
		LanguageCode: lang.Code,
		Proficiency:  p,
		IsPrimary:    len(existing) == 0,
	}
	if err := s.store.Create(ctx, ul); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "language added",
		logger.UserID(userID.String()), logger.Language(lang.Code))
	return ul, nil
}

// UpdateProficiency changes the self-reported level of one studied
// language. Only the owner may change it.
func (s *Service) UpdateProficiency(ctx context.Context, userID, id uuid.UUID, p Proficiency) (*UserLanguage, error) {
	if !p.Valid() {
		return nil, ErrInvalidProficiency
	}
	if err := s.requireOwner(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.UpdateProficiency(ctx, id, p)
}

// SetPrimary makes the given language the user's primary one, demoting
// whichever held the flag before.
func (s *Service) SetPrimary(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.requireOwner(ctx, userID, id); err != nil {
		return err
	}
	return s.store.SetPrimary(ctx, userID, id)
}

// Remove soft-deletes a studied language. If it was primary no language is
// primary afterwards; the user picks a new one explicitly.
func (s *Service) Remove(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.requireOwner(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "language removed", logger.UserID(userID.String()))
	return nil
}

func (s *Service) requireOwner(ctx context.Context, userID, id uuid.UUID) error {
	ul, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if ul.UserID != userID {
		// Present foreign rows as missing; existence is not leaked.
		return ErrNotFound
	}
	return nil
}
