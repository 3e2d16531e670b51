package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"boutique/internal/apperr"
	"boutique/internal/models"
)

// UserStore persists user records. It backs both registration and the
// authentication middleware's subject lookup.
type UserStore struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewUserStore(db *gorm.DB, lg *zap.SugaredLogger) *UserStore {
	return &UserStore{db: db, lg: lg}
}

// Create inserts u with a fresh id. Email uniqueness is enforced by the
// store; a concurrent duplicate surfaces as Conflict via the unique index.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	existing, err := s.FindByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.New(apperr.BadRequest, "adresse e-mail déjà utilisée")
	}
	u.ID = uuid.NewString()
	u.DateCreation = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return apperr.FromDB(err)
	}
	s.lg.Infow("user registered", "id", u.ID, "role", u.Role)
	return nil
}

// FindByEmail returns the user for email, or nil when none exists.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", strings.TrimSpace(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return &u, nil
}

// FindByID returns the user for id, or nil when none exists. Satisfies
// auth.UserFinder.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return &u, nil
}
