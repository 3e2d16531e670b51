package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

func IsValidRole(role string) bool {
	return role == RoleClient || role == RoleAdmin
}

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;size:120" json:"email"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	Nom          string    `gorm:"not null;size:80" json:"nom"`
	Role         string    `gorm:"not null;default:client;size:20" json:"role"`
	DateCreation time.Time `json:"date_creation"`
}

type Product struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	Nom           string          `gorm:"not null;size:120" json:"nom"`
	Description   string          `gorm:"size:255" json:"description"`
	Categorie     string          `gorm:"size:50" json:"categorie"`
	Prix          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prix"`
	QuantiteStock int             `gorm:"not null;default:0;check:quantite_stock >= 0" json:"quantite_stock"`
}

type Order struct {
	ID               string      `gorm:"type:uuid;primaryKey" json:"id"`
	UtilisateurID    string      `gorm:"type:uuid;not null;index" json:"utilisateur_id"`
	User             *User       `gorm:"foreignKey:UtilisateurID" json:"-"`
	AdresseLivraison string      `gorm:"not null;size:255" json:"adresse_livraison"`
	Statut           string      `gorm:"not null;default:'En attente';size:50" json:"statut"`
	DateCommande     time.Time   `json:"date_commande"`
	Lignes           []OrderLine `gorm:"foreignKey:CommandeID;constraint:OnDelete:CASCADE" json:"lignes"`
}

type OrderLine struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	CommandeID   string          `gorm:"type:uuid;not null;index" json:"commande_id"`
	ProduitID    string          `gorm:"type:uuid;not null;index" json:"produit_id"`
	Product      *Product        `gorm:"foreignKey:ProduitID" json:"-"`
	ProduitNom   string          `gorm:"size:120" json:"produit_nom"`
	Quantite     int             `gorm:"not null" json:"quantite"`
	PrixUnitaire decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prix_unitaire"`
}
