package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"boutique/internal/apperr"
	"boutique/internal/models"
	"boutique/internal/store"
)

func ListProducts(products *store.ProductStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := products.List(r.Context())
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if ps == nil {
			ps = []models.Product{}
		}
		respondJSON(w, http.StatusOK, ps)
	}
}

func SearchProducts(products *store.ProductStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nom := r.URL.Query().Get("nom")
		categorie := r.URL.Query().Get("categorie")
		disponible := strings.EqualFold(r.URL.Query().Get("disponible"), "true")

		ps, err := products.Search(r.Context(), nom, categorie, disponible)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if ps == nil {
			ps = []models.Product{}
		}
		respondJSON(w, http.StatusOK, ps)
	}
}

func GetProduct(products *store.ProductStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := products.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

type productCreateReq struct {
	Nom           string           `json:"nom"`
	Description   *string          `json:"description"`
	Categorie     *string          `json:"categorie"`
	Prix          *decimal.Decimal `json:"prix"`
	QuantiteStock *int             `json:"quantite_stock"`
}

func CreateProduct(products *store.ProductStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.New(apperr.BadRequest, "corps de requête invalide"))
			return
		}
		req.Nom = strings.TrimSpace(req.Nom)
		if req.Nom == "" {
			respondError(w, lg, apperr.New(apperr.BadRequest, "nom requis"))
			return
		}
		if req.Prix == nil || !req.Prix.IsPositive() {
			respondError(w, lg, apperr.New(apperr.BadRequest, "prix strictement positif requis"))
			return
		}
		stock := 0
		if req.QuantiteStock != nil {
			if *req.QuantiteStock < 0 {
				respondError(w, lg, apperr.New(apperr.BadRequest, "quantite_stock ne peut pas être négative"))
				return
			}
			stock = *req.QuantiteStock
		}
		// description/categorie omitted are stored as empty strings, not null
		p := &models.Product{
			Nom:           req.Nom,
			Prix:          *req.Prix,
			QuantiteStock: stock,
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Categorie != nil {
			p.Categorie = *req.Categorie
		}
		if err := products.Create(r.Context(), p); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"message": "Produit ajouté", "produit": p})
	}
}

func UpdateProduct(products *store.ProductStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.New(apperr.BadRequest, "corps de requête invalide"))
			return
		}
		patch := store.ProductPatch{
			Description:   req.Description,
			Categorie:     req.Categorie,
			Prix:          req.Prix,
			QuantiteStock: req.QuantiteStock,
		}
		if nom := strings.TrimSpace(req.Nom); nom != "" {
			patch.Nom = &nom
		}
		if patch.Empty() {
			respondError(w, lg, apperr.New(apperr.BadRequest, "aucun champ à mettre à jour"))
			return
		}
		if patch.Prix != nil && !patch.Prix.IsPositive() {
			respondError(w, lg, apperr.New(apperr.BadRequest, "prix strictement positif requis"))
			return
		}
		if patch.QuantiteStock != nil && *patch.QuantiteStock < 0 {
			respondError(w, lg, apperr.New(apperr.BadRequest, "quantite_stock ne peut pas être négative"))
			return
		}
		p, err := products.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"message": "Produit mis à jour", "produit": p})
	}
}

func DeleteProduct(products *store.ProductStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"message": "Produit supprimé"})
	}
}
