package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"boutique/internal/apperr"
	"boutique/internal/auth"
	"boutique/internal/models"
	"boutique/internal/store"
)

func ListOrders(orders *store.OrderStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if u == nil {
			respondError(w, lg, apperr.New(apperr.Unauthorized, "utilisateur non reconnu"))
			return
		}
		var (
			os  []models.Order
			err error
		)
		if u.Role == models.RoleAdmin {
			os, err = orders.ListAll(r.Context())
		} else {
			os, err = orders.ListByUser(r.Context(), u.ID)
		}
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if os == nil {
			os = []models.Order{}
		}
		respondJSON(w, http.StatusOK, os)
	}
}

// GetOrder fetches an order then applies the read-access rule: only an
// admin or the owning client may see it.
func GetOrder(orders *store.OrderStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if u == nil {
			respondError(w, lg, apperr.New(apperr.Unauthorized, "utilisateur non reconnu"))
			return
		}
		o, err := orders.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if u.Role != models.RoleAdmin && o.UtilisateurID != u.ID {
			respondError(w, lg, apperr.New(apperr.Forbidden, "accès refusé"))
			return
		}
		respondJSON(w, http.StatusOK, o)
	}
}

type orderCreateReq struct {
	AdresseLivraison string `json:"adresse_livraison"`
	Produits         []struct {
		ProduitID string `json:"produit_id"`
		Quantite  int    `json:"quantite"`
	} `json:"produits"`
}

func CreateOrder(orders *store.OrderStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if u == nil {
			respondError(w, lg, apperr.New(apperr.Unauthorized, "utilisateur non reconnu"))
			return
		}
		var req orderCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.New(apperr.BadRequest, "corps de requête invalide"))
			return
		}
		lines := make([]store.LineInput, 0, len(req.Produits))
		for _, p := range req.Produits {
			lines = append(lines, store.LineInput{ProduitID: p.ProduitID, Quantite: p.Quantite})
		}
		o, err := orders.Create(r.Context(), u.ID, req.AdresseLivraison, lines)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"message":  fmt.Sprintf("Commande id:%s créée", o.ID),
			"commande": o,
		})
	}
}

type orderStatusReq struct {
	Statut string `json:"statut"`
}

func ChangeOrderStatus(orders *store.OrderStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderStatusReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.New(apperr.BadRequest, "corps de requête invalide"))
			return
		}
		o, err := orders.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.Statut)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"message":  "Statut mis à jour",
			"commande": map[string]any{"id": o.ID, "statut": o.Statut},
		})
	}
}

// ListOrderLines serves the lines of an order without authentication. An
// order without lines yields an empty array, distinct from a missing order.
func ListOrderLines(orders *store.OrderStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := orders.Lines(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if lines == nil {
			lines = []models.OrderLine{}
		}
		respondJSON(w, http.StatusOK, lines)
	}
}
