package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"boutique/internal/apperr"
	"boutique/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderLine{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "x",
		Nom:          "Test",
		Role:         role,
		DateCreation: time.Now().UTC(),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, nom string, prix float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:            uuid.NewString(),
		Nom:           nom,
		Prix:          decimal.NewFromFloat(prix),
		QuantiteStock: stock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.QuantiteStock
}

func TestUserStoreCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	u := &models.User{Email: "a@x.com", Nom: "Ana", PasswordHash: "h", Role: models.RoleClient}
	require.NoError(t, users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	byEmail, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)

	missing, err := users.FindByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := &models.User{Email: "a@x.com", Nom: "Bis", PasswordHash: "h", Role: models.RoleClient}
	err = users.Create(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestProductStoreCRUD(t *testing.T) {
	db := setupTestDB(t)
	products := NewProductStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	p := &models.Product{Nom: "Clavier", Categorie: "informatique", Prix: decimal.NewFromFloat(49.90), QuantiteStock: 5}
	require.NoError(t, products.Create(ctx, p))

	got, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Prix.Equal(decimal.NewFromFloat(49.90)))
	assert.Equal(t, "", got.Description)

	_, err = products.Get(ctx, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	newPrix := decimal.NewFromFloat(39.90)
	updated, err := products.Update(ctx, p.ID, ProductPatch{Prix: &newPrix})
	require.NoError(t, err)
	assert.True(t, updated.Prix.Equal(newPrix))
	assert.Equal(t, "Clavier", updated.Nom)

	require.NoError(t, products.Delete(ctx, p.ID))
	err = products.Delete(ctx, p.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestProductStoreSearch(t *testing.T) {
	db := setupTestDB(t)
	products := NewProductStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	seedProduct(t, db, "Clavier mécanique", 89.0, 3)
	seedProduct(t, db, "Souris", 25.0, 0)
	chaise := seedProduct(t, db, "Chaise", 120.0, 7)
	chaise.Categorie = "mobilier"
	require.NoError(t, db.Save(chaise).Error)

	byName, err := products.Search(ctx, "clavier", "", false)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Clavier mécanique", byName[0].Nom)

	byCategory, err := products.Search(ctx, "", "MOBILIER", false)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Chaise", byCategory[0].Nom)

	inStock, err := products.Search(ctx, "", "", true)
	require.NoError(t, err)
	assert.Len(t, inStock, 2)

	all, err := products.Search(ctx, "", "", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p1 := seedProduct(t, db, "P1", 10.0, 5)
	p2 := seedProduct(t, db, "P2", 20.0, 10)

	o, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{
		{ProduitID: p1.ID, Quantite: 2},
		{ProduitID: p2.ID, Quantite: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, o.Statut)
	require.Len(t, o.Lignes, 2)
	assert.True(t, o.Lignes[0].PrixUnitaire.Equal(decimal.NewFromFloat(10.0)))
	assert.True(t, o.Lignes[1].PrixUnitaire.Equal(decimal.NewFromFloat(20.0)))
	assert.Equal(t, "P1", o.Lignes[0].ProduitNom)

	assert.Equal(t, 3, stockOf(t, db, p1.ID))
	assert.Equal(t, 9, stockOf(t, db, p2.ID))

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lignes, 2)
	assert.Equal(t, client.ID, got.UtilisateurID)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p1 := seedProduct(t, db, "P1", 10.0, 5)
	p2 := seedProduct(t, db, "P2", 20.0, 10)

	_, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{
		{ProduitID: p1.ID, Quantite: 2},
		{ProduitID: p2.ID, Quantite: 11},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "stock insuffisant")

	// nothing from the failed order may persist, including line 1's decrement
	assert.Equal(t, 5, stockOf(t, db, p1.ID))
	assert.Equal(t, 10, stockOf(t, db, p2.ID))

	var orderCount, lineCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.OrderLine{}).Count(&lineCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, lineCount)
}

func TestCreateOrderSequentialLinesShareStock(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p := seedProduct(t, db, "P", 10.0, 3)

	// second line must see the first line's decrement within the same call
	_, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{
		{ProduitID: p.ID, Quantite: 2},
		{ProduitID: p.ID, Quantite: 2},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
	assert.Equal(t, 3, stockOf(t, db, p.ID))

	o, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{
		{ProduitID: p.ID, Quantite: 2},
		{ProduitID: p.ID, Quantite: 1},
	})
	require.NoError(t, err)
	assert.Len(t, o.Lignes, 2)
	assert.Equal(t, 0, stockOf(t, db, p.ID))
}

func TestCreateOrderMissingProductRollsBack(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p := seedProduct(t, db, "P", 10.0, 5)

	_, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{
		{ProduitID: p.ID, Quantite: 1},
		{ProduitID: uuid.NewString(), Quantite: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestOrderLinePriceIsASnapshot(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	products := NewProductStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p := seedProduct(t, db, "P", 10.0, 5)

	o, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{{ProduitID: p.ID, Quantite: 1}})
	require.NoError(t, err)

	newPrix := decimal.NewFromFloat(99.0)
	_, err = products.Update(ctx, p.ID, ProductPatch{Prix: &newPrix})
	require.NoError(t, err)

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Lignes, 1)
	assert.True(t, got.Lignes[0].PrixUnitaire.Equal(decimal.NewFromFloat(10.0)))
}

func TestChangeStatusLifecycle(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p := seedProduct(t, db, "P", 10.0, 10)

	o1, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{{ProduitID: p.ID, Quantite: 1}})
	require.NoError(t, err)
	o2, err := orders.Create(ctx, client.ID, "2 rue de la Paix", []LineInput{{ProduitID: p.ID, Quantite: 1}})
	require.NoError(t, err)

	updated, err := orders.ChangeStatus(ctx, o1.ID, models.StatusValidated)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, updated.Statut)

	// the unrelated order stays pending
	other, err := orders.Get(ctx, o2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, other.Statut)

	// backward move is rejected
	_, err = orders.ChangeStatus(ctx, o1.ID, models.StatusPending)
	require.Error(t, err)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
	assert.Equal(t, "transition de statut invalide", apperr.Message(err))

	_, err = orders.ChangeStatus(ctx, o1.ID, models.StatusShipped)
	require.NoError(t, err)
	_, err = orders.ChangeStatus(ctx, o1.ID, models.StatusCancelled)
	require.Error(t, err)

	// cancelling does not restock
	_, err = orders.ChangeStatus(ctx, o2.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 8, stockOf(t, db, p.ID))

	_, err = orders.ChangeStatus(ctx, uuid.NewString(), models.StatusValidated)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestLinesSeparateMissingOrderFromEmptyOrder(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p := seedProduct(t, db, "P", 10.0, 5)

	o, err := orders.Create(ctx, client.ID, "1 rue de la Paix", []LineInput{{ProduitID: p.ID, Quantite: 2}})
	require.NoError(t, err)

	lines, err := orders.Lines(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantite)

	// an order with zero lines is reachable only by direct manipulation,
	// it must still read as empty rather than missing
	empty := &models.Order{
		ID:               uuid.NewString(),
		UtilisateurID:    client.ID,
		AdresseLivraison: "3 rue Vide",
		Statut:           models.StatusPending,
		DateCommande:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(empty).Error)

	lines, err = orders.Lines(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = orders.Lines(ctx, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestListOrdersScoping(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	alice := seedUser(t, db, "alice@x.com", models.RoleClient)
	bob := seedUser(t, db, "bob@x.com", models.RoleClient)
	p := seedProduct(t, db, "P", 10.0, 10)

	_, err := orders.Create(ctx, alice.ID, "1 rue A", []LineInput{{ProduitID: p.ID, Quantite: 1}})
	require.NoError(t, err)
	_, err = orders.Create(ctx, alice.ID, "2 rue A", []LineInput{{ProduitID: p.ID, Quantite: 1}})
	require.NoError(t, err)
	_, err = orders.Create(ctx, bob.ID, "1 rue B", []LineInput{{ProduitID: p.ID, Quantite: 1}})
	require.NoError(t, err)

	all, err := orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := orders.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, alice.ID, o.UtilisateurID)
		assert.Len(t, o.Lignes, 1)
	}

	none, err := orders.ListByUser(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderStore(db, zap.NewNop().Sugar())
	ctx := context.Background()

	client := seedUser(t, db, "a@x.com", models.RoleClient)
	p := seedProduct(t, db, "P", 10.0, 10)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = orders.Create(ctx, client.ID, "1 rue de la Paix",
				[]LineInput{{ProduitID: p.ID, Quantite: 1}})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, stockOf(t, db, p.ID))
}
