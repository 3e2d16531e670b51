package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boutique/internal/apperr"
	"boutique/internal/models"
)

// OrderStore is the order engine: it creates orders atomically against live
// product stock and owns the status lifecycle.
type OrderStore struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewOrderStore(db *gorm.DB, lg *zap.SugaredLogger) *OrderStore {
	return &OrderStore{db: db, lg: lg}
}

// LineInput is one requested product-quantity pair of a new order.
type LineInput struct {
	ProduitID string
	Quantite  int
}

// ListAll returns every order with its lines.
func (s *OrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Lignes").Order("date_commande desc").Find(&orders).Error
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return orders, nil
}

// ListByUser returns the orders owned by userID with their lines.
func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Lignes").
		Where("utilisateur_id = ?", userID).
		Order("date_commande desc").Find(&orders).Error
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return orders, nil
}

// Get fetches one order with its lines. Access control is the caller's
// responsibility.
func (s *OrderStore) Get(ctx context.Context, id string) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.NotFound, "commande introuvable")
	}
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Lignes").First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "commande introuvable")
	}
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return &o, nil
}

// Lines returns the lines of an order. A missing order is NotFound; an
// existing order with no lines yields an empty slice.
func (s *OrderStore) Lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	var lines []models.OrderLine
	err := s.db.WithContext(ctx).Where("commande_id = ?", orderID).Find(&lines).Error
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return lines, nil
}

// Create places a new order for userID. The order row and all its lines are
// committed as one transaction: each product row is locked FOR UPDATE before
// the stock check, the decrement is additionally guarded by the remaining
// quantity, and any line failure rolls back everything. Lines are processed
// strictly in input order, so a later line sees the decrements of earlier
// lines in the same order.
func (s *OrderStore) Create(ctx context.Context, userID, address string, lines []LineInput) (*models.Order, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperr.New(apperr.BadRequest, "adresse de livraison requise")
	}
	if len(lines) == 0 {
		return nil, apperr.New(apperr.BadRequest, "au moins un produit requis")
	}
	for _, l := range lines {
		if l.Quantite <= 0 {
			return nil, apperr.New(apperr.BadRequest, "quantité invalide")
		}
		if _, err := uuid.Parse(l.ProduitID); err != nil {
			return nil, apperr.New(apperr.NotFound, "produit introuvable")
		}
	}

	order := &models.Order{
		ID:               uuid.NewString(),
		UtilisateurID:    userID,
		AdresseLivraison: address,
		Statut:           models.StatusPending,
		DateCommande:     time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return apperr.FromDB(err)
		}
		for _, l := range lines {
			var p models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, "id = ?", l.ProduitID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "produit introuvable")
			}
			if err != nil {
				return apperr.FromDB(err)
			}
			if p.QuantiteStock < l.Quantite {
				s.lg.Warnw("insufficient stock",
					"produit_id", p.ID, "stock", p.QuantiteStock, "demande", l.Quantite)
				return apperr.New(apperr.BadRequest, "stock insuffisant pour le produit "+p.Nom)
			}
			line := models.OrderLine{
				ID:           uuid.NewString(),
				CommandeID:   order.ID,
				ProduitID:    p.ID,
				ProduitNom:   p.Nom,
				Quantite:     l.Quantite,
				PrixUnitaire: p.Prix,
			}
			if err := tx.Create(&line).Error; err != nil {
				return apperr.FromDB(err)
			}
			// the row lock serializes concurrent orders on this product;
			// the predicate keeps stock non-negative no matter what
			res := tx.Model(&models.Product{}).
				Where("id = ? AND quantite_stock >= ?", p.ID, l.Quantite).
				UpdateColumn("quantite_stock", gorm.Expr("quantite_stock - ?", l.Quantite))
			if res.Error != nil {
				return apperr.FromDB(res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.New(apperr.BadRequest, "stock insuffisant pour le produit "+p.Nom)
			}
			order.Lignes = append(order.Lignes, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("order created", "id", order.ID, "utilisateur_id", userID, "lignes", len(order.Lignes))
	return order, nil
}

// ChangeStatus moves an order along the status graph. Unknown statuses and
// transitions outside the graph are rejected. Cancelling does not restock.
func (s *OrderStore) ChangeStatus(ctx context.Context, id, newStatus string) (*models.Order, error) {
	if !models.IsValidStatus(newStatus) {
		return nil, apperr.New(apperr.BadRequest, "statut invalide")
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(o.Statut, newStatus) {
		return nil, apperr.New(apperr.BadRequest, "transition de statut invalide")
	}
	if o.Statut == newStatus {
		return o, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).Update("statut", newStatus)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error)
	}
	o.Statut = newStatus
	s.lg.Infow("order status changed", "id", id, "statut", newStatus)
	return o, nil
}
