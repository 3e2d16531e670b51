package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"boutique/internal/apperr"
	"boutique/internal/auth"
	"boutique/internal/models"
	"boutique/internal/store"
)

type registerReq struct {
	Email    string `json:"email"`
	Nom      string `json:"nom"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // optional; default "client"
}

func Register(users *store.UserStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.New(apperr.BadRequest, "corps de requête invalide"))
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Nom = strings.TrimSpace(req.Nom)
		if req.Email == "" || req.Nom == "" || req.Password == "" {
			respondError(w, lg, apperr.New(apperr.BadRequest, "email, nom et mot de passe requis"))
			return
		}
		if len(req.Password) < 8 {
			respondError(w, lg, apperr.New(apperr.BadRequest, "mot de passe trop court (8 caractères minimum)"))
			return
		}
		if req.Role == "" {
			req.Role = models.RoleClient
		}
		if !models.IsValidRole(req.Role) {
			respondError(w, lg, apperr.New(apperr.BadRequest, "rôle invalide"))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, lg, apperr.Wrap(apperr.Internal, "erreur interne", err))
			return
		}
		u := &models.User{Email: req.Email, Nom: req.Nom, PasswordHash: hash, Role: req.Role}
		if err := users.Create(r.Context(), u); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"message": "Client inscrit", "user": u})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(users *store.UserStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.New(apperr.BadRequest, "corps de requête invalide"))
			return
		}
		u, err := users.FindByEmail(r.Context(), strings.ToLower(req.Email))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if u == nil || auth.CheckPassword(u.PasswordHash, req.Password) != nil {
			respondError(w, lg, apperr.New(apperr.Unauthorized, "identifiants invalides"))
			return
		}
		tok, err := auth.Issue(u)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"message": "Connexion réussie", "token": tok})
	}
}

func Me(lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if u == nil {
			respondError(w, lg, apperr.New(apperr.Unauthorized, "utilisateur non reconnu"))
			return
		}
		respondJSON(w, http.StatusOK, u)
	}
}
