package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"boutique/internal/apperr"
	"boutique/internal/models"
)

// ProductStore persists catalog entries.
type ProductStore struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewProductStore(db *gorm.DB, lg *zap.SugaredLogger) *ProductStore {
	return &ProductStore{db: db, lg: lg}
}

func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("nom").Find(&products).Error; err != nil {
		return nil, apperr.FromDB(err)
	}
	return products, nil
}

// Search filters the catalog by case-insensitive substring on name and
// category; disponible keeps only products with stock.
func (s *ProductStore) Search(ctx context.Context, nom, categorie string, disponible bool) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if nom != "" {
		q = q.Where("nom ILIKE ?", "%"+nom+"%")
	}
	if categorie != "" {
		q = q.Where("categorie ILIKE ?", "%"+categorie+"%")
	}
	if disponible {
		q = q.Where("quantite_stock > 0")
	}
	var products []models.Product
	if err := q.Order("nom").Find(&products).Error; err != nil {
		return nil, apperr.FromDB(err)
	}
	return products, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.NotFound, "produit introuvable")
	}
	var p models.Product
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "produit introuvable")
	}
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return &p, nil
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	p.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperr.FromDB(err)
	}
	s.lg.Infow("product created", "id", p.ID, "nom", p.Nom)
	return nil
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Nom           *string
	Description   *string
	Categorie     *string
	Prix          *decimal.Decimal
	QuantiteStock *int
}

func (p ProductPatch) Empty() bool {
	return p.Nom == nil && p.Description == nil && p.Categorie == nil &&
		p.Prix == nil && p.QuantiteStock == nil
}

func (s *ProductStore) Update(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Nom != nil {
		p.Nom = *patch.Nom
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Categorie != nil {
		p.Categorie = *patch.Categorie
	}
	if patch.Prix != nil {
		p.Prix = *patch.Prix
	}
	if patch.QuantiteStock != nil {
		p.QuantiteStock = *patch.QuantiteStock
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, apperr.FromDB(err)
	}
	return p, nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.New(apperr.NotFound, "produit introuvable")
	}
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return apperr.FromDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "produit introuvable")
	}
	return nil
}
