package main

import (
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"boutique/internal/auth"
	"boutique/internal/config"
	"boutique/internal/httpserver"
	"boutique/internal/logger"
	"boutique/internal/models"
	"boutique/internal/store"
)

func main() {
	cfg := config.Load()
	lg := logger.New(cfg.Log)
	defer lg.Sync()

	if cfg.JWT.Secret == "" {
		lg.Fatalw("JWT_SECRET is empty")
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderLine{}); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedDefaultAdmin(db, lg)

	users := store.NewUserStore(db, lg)
	products := store.NewProductStore(db, lg)
	orders := store.NewOrderStore(db, lg)
	router := httpserver.NewRouter(users, products, orders, lg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	lg.Infow("listening", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

func seedDefaultAdmin(db *gorm.DB, lg *zap.SugaredLogger) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	pw := os.Getenv("ADMIN_PASSWORD")
	if pw == "" {
		pw = "admin1234"
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		lg.Warnw("admin seed skipped", "error", err)
		return
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        "admin@boutique.local",
		Nom:          "Administrateur",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		DateCreation: time.Now().UTC(),
	}
	if err := db.Create(&u).Error; err != nil {
		lg.Warnw("admin seed failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", u.Email)
}
