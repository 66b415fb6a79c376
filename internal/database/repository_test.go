package database_test

import (
	"context"
	"testing"
	"time"

	"agri-backend/internal/database"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"
	"agri-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedFarmer(t *testing.T, db *gorm.DB, username string) *models.Farmer {
	t.Helper()
	f := &models.Farmer{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Ama",
		LastName:     "Houngbo",
		FarmingType:  models.FarmingMixed,
		Zone:         "Zou",
		PasswordHash: "x",
		Role:         models.RoleFarmer,
		IsActive:     true,
	}
	require.NoError(t, database.NewFarmerRepository(db).Create(context.Background(), f))
	return f
}

func seedCrop(t *testing.T, db *gorm.DB, farmerID uint, name, area string) *models.Crop {
	t.Helper()
	c := &models.Crop{
		FarmerID:     farmerID,
		Name:         name,
		PlantedOn:    day("2024-03-01"),
		QuantitySown: dec("10"),
		SowingUnit:   "kg",
		SeedCost:     dec("100"),
		LaborCost:    dec("50"),
		Area:         dec(area),
		Zone:         "Zou",
	}
	require.NoError(t, database.NewCropRepository(db).Create(context.Background(), c))
	return c
}

func seedHarvest(t *testing.T, db *gorm.DB, cropID uint, on, qty, price string) *models.Harvest {
	t.Helper()
	h := &models.Harvest{
		CropID:         cropID,
		HarvestedOn:    day(on),
		Quantity:       dec(qty),
		Unit:           "kg",
		UnitPrice:      dec(price),
		LinkedExpenses: decimal.Zero,
		Quality:        models.QualityGood,
	}
	require.NoError(t, database.NewHarvestRepository(db).Create(context.Background(), h))
	return h
}

func seedExpense(t *testing.T, db *gorm.DB, farmerID uint, cropID *uint, cat models.ExpenseCategory, amount, on string) *models.Expense {
	t.Helper()
	e := &models.Expense{
		FarmerID:    farmerID,
		CropID:      cropID,
		Description: string(cat) + " purchase",
		Category:    cat,
		Amount:      dec(amount),
		SpentOn:     day(on),
	}
	require.NoError(t, database.NewExpenseRepository(db).Create(context.Background(), e))
	return e
}

func TestCropRepositoryScopesByFarmer(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewCropRepository(db)

	alice := seedFarmer(t, db, "alice")
	bob := seedFarmer(t, db, "bob")
	maize := seedCrop(t, db, alice.ID, "Maize", "2")
	seedCrop(t, db, bob.ID, "Cassava", "1")

	crops, err := repo.List(ctx, alice.ID, repository.CropFilter{})
	require.NoError(t, err)
	require.Len(t, crops, 1)
	assert.Equal(t, "Maize", crops[0].Name)

	_, err = repo.Get(ctx, bob.ID, maize.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	owner, err := repo.OwnerOf(ctx, maize.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, owner)

	err = repo.Delete(ctx, bob.ID, maize.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCropRepositoryListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewCropRepository(db)
	f := seedFarmer(t, db, "alice")

	early := seedCrop(t, db, f.ID, "Yellow Maize", "2")
	late := seedCrop(t, db, f.ID, "Rice", "1")
	late.PlantedOn = day("2024-06-10")
	require.NoError(t, repo.Update(ctx, late))

	byName, err := repo.List(ctx, f.ID, repository.CropFilter{Name: "maize"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, early.ID, byName[0].ID)

	byDate, err := repo.List(ctx, f.ID, repository.CropFilter{DateRange: repository.DateRange{From: day("2024-06-01")}})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, late.ID, byDate[0].ID)

	all, err := repo.List(ctx, f.ID, repository.CropFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, late.ID, all[0].ID, "newest planting first")

	opts, err := repo.Options(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestCropDeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	f := seedFarmer(t, db, "alice")
	c := seedCrop(t, db, f.ID, "Maize", "2")
	seedHarvest(t, db, c.ID, "2024-07-01", "10", "5")
	seedExpense(t, db, f.ID, &c.ID, models.CategoryFertilizer, "40", "2024-04-01")
	standalone := seedExpense(t, db, f.ID, nil, models.CategoryFuel, "15", "2024-04-02")

	require.NoError(t, database.NewCropRepository(db).Delete(ctx, f.ID, c.ID))

	var harvests, expenses int64
	db.Model(&models.Harvest{}).Count(&harvests)
	db.Model(&models.Expense{}).Count(&expenses)
	assert.Zero(t, harvests)
	assert.EqualValues(t, 1, expenses)

	_, err := database.NewExpenseRepository(db).Get(ctx, f.ID, standalone.ID)
	assert.NoError(t, err)
}

func TestFarmerDeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := seedFarmer(t, db, "alice")
	bob := seedFarmer(t, db, "bob")

	for _, f := range []*models.Farmer{alice, bob} {
		c := seedCrop(t, db, f.ID, "Maize", "2")
		seedHarvest(t, db, c.ID, "2024-07-01", "10", "5")
		seedExpense(t, db, f.ID, nil, models.CategoryFuel, "15", "2024-04-02")
		require.NoError(t, database.NewAdvisoryRepository(db).Create(ctx, &models.Advisory{
			FarmerID: f.ID, Title: "Rain", Body: "Rain expected", Type: models.AdvisorySeasonal, Priority: models.PriorityHigh,
		}))
	}

	require.NoError(t, database.NewFarmerRepository(db).Delete(ctx, alice.ID))

	count := func(model any) int64 {
		var n int64
		db.Model(model).Count(&n)
		return n
	}
	assert.EqualValues(t, 1, count(&models.Farmer{}))
	assert.EqualValues(t, 1, count(&models.Crop{}))
	assert.EqualValues(t, 1, count(&models.Harvest{}))
	assert.EqualValues(t, 1, count(&models.Expense{}))
	assert.EqualValues(t, 1, count(&models.Advisory{}))

	_, err := database.NewFarmerRepository(db).GetByID(ctx, bob.ID)
	assert.NoError(t, err)
}

func TestFarmerRepositoryTokensAndStatus(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewFarmerRepository(db)
	f := seedFarmer(t, db, "alice")

	require.NoError(t, repo.RevokeTokens(ctx, f.ID))
	require.NoError(t, repo.SetActive(ctx, f.ID, false))

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TokenVersion)
	assert.False(t, got.IsActive)

	taken, err := repo.UsernameTaken(ctx, "alice", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.UsernameTaken(ctx, "alice", f.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	hasAdmin, err := repo.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, hasAdmin)

	assert.ErrorIs(t, repo.RevokeTokens(ctx, 999), repository.ErrNotFound)
}

func TestHarvestRepositoryScopesThroughCrop(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewHarvestRepository(db)
	alice := seedFarmer(t, db, "alice")
	bob := seedFarmer(t, db, "bob")
	c := seedCrop(t, db, alice.ID, "Maize", "2")
	h := seedHarvest(t, db, c.ID, "2024-07-01", "10", "5")

	got, err := repo.Get(ctx, alice.ID, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maize", got.Crop.Name)

	_, err = repo.Get(ctx, bob.ID, h.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx, bob.ID, repository.HarvestFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, repo.Delete(ctx, bob.ID, h.ID), repository.ErrNotFound)
	assert.NoError(t, repo.Delete(ctx, alice.ID, h.ID))
}

func TestAdvisoryReadFlag(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewAdvisoryRepository(db)
	f := seedFarmer(t, db, "alice")
	a := &models.Advisory{FarmerID: f.ID, Title: "Fertilize", Body: "Apply NPK", Type: models.AdvisoryCrop, Priority: models.PriorityMedium}
	require.NoError(t, repo.Create(ctx, a))

	first, err := repo.SetRead(ctx, f.ID, a.ID, true)
	require.NoError(t, err)
	second, err := repo.SetRead(ctx, f.ID, a.ID, true)
	require.NoError(t, err)
	assert.True(t, first.IsRead)
	assert.True(t, second.IsRead)

	// content updates leave the flag alone
	a.Title = "Fertilize now"
	a.IsRead = false
	require.NoError(t, repo.Update(ctx, a))
	got, err := repo.Get(ctx, f.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fertilize now", got.Title)
	assert.True(t, got.IsRead)

	unread := false
	list, err := repo.List(ctx, f.ID, repository.AdvisoryFilter{Read: &unread})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.SetRead(ctx, f.ID+1, a.ID, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdvisoryActiveFilter(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewAdvisoryRepository(db)
	f := seedFarmer(t, db, "alice")

	expired := day("2024-01-10")
	require.NoError(t, repo.Create(ctx, &models.Advisory{FarmerID: f.ID, Title: "Old", Body: "b", Type: models.AdvisoryCrop, Priority: models.PriorityLow, ExpiresAt: &expired}))
	require.NoError(t, repo.Create(ctx, &models.Advisory{FarmerID: f.ID, Title: "Open", Body: "b", Type: models.AdvisoryCrop, Priority: models.PriorityLow}))

	list, err := repo.List(ctx, f.ID, repository.AdvisoryFilter{ActiveOn: day("2024-02-01")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Open", list[0].Title)
}

func TestReportRepositoryAggregates(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewReportRepository(db)
	alice := seedFarmer(t, db, "alice")
	bob := seedFarmer(t, db, "bob")

	maize := seedCrop(t, db, alice.ID, "Maize", "2")
	rice := seedCrop(t, db, alice.ID, "Rice", "0")
	seedHarvest(t, db, maize.ID, "2024-07-01", "10", "5")
	seedHarvest(t, db, maize.ID, "2024-08-01", "2", "100")
	seedExpense(t, db, alice.ID, &maize.ID, models.CategoryFertilizer, "40", "2024-04-01")
	seedExpense(t, db, alice.ID, nil, models.CategoryFuel, "40", "2024-04-02")
	seedExpense(t, db, alice.ID, nil, models.CategoryLabor, "75.5", "2024-04-03")

	other := seedCrop(t, db, bob.ID, "Cassava", "1")
	seedHarvest(t, db, other.ID, "2024-07-01", "1000", "1000")

	revenue, err := repo.SumRevenue(ctx, alice.ID, repository.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "250.00", revenue.StringFixed(2))

	july, err := repo.SumRevenue(ctx, alice.ID, repository.DateRange{From: day("2024-07-01"), To: day("2024-08-01")})
	require.NoError(t, err)
	assert.Equal(t, "50.00", july.StringFixed(2))

	costs, err := repo.SumCropCosts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", costs.StringFixed(2))

	expenses, err := repo.SumExpenses(ctx, alice.ID, repository.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "155.50", expenses.StringFixed(2))

	perf, err := repo.CropPerformance(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, perf, 2)
	assert.Equal(t, maize.ID, perf[0].ID)
	assert.Equal(t, "250.00", perf[0].Revenue.StringFixed(2))
	assert.Equal(t, "12.00", perf[0].Harvested.StringFixed(2))
	assert.EqualValues(t, 2, perf[0].HarvestCount)
	assert.Equal(t, "40.00", perf[0].CropExpenses.StringFixed(2))
	assert.Equal(t, rice.ID, perf[1].ID)
	assert.Zero(t, perf[1].HarvestCount)

	cats, err := repo.ExpensesByCategory(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, models.CategoryLabor, cats[0].Category)
	assert.Equal(t, models.CategoryFertilizer, cats[1].Category, "ties sort by category name")
	assert.Equal(t, models.CategoryFuel, cats[2].Category)

	harvests, err := repo.CountHarvests(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, harvests)
}

func TestReportRepositoryEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := database.NewReportRepository(db)
	f := seedFarmer(t, db, "alice")

	err := repo.ReadConsistent(ctx, func(tx repository.ReportRepository) error {
		revenue, err := tx.SumRevenue(ctx, f.ID, repository.DateRange{})
		require.NoError(t, err)
		assert.True(t, revenue.IsZero())

		linked, err := tx.SumLinkedExpenses(ctx, f.ID)
		require.NoError(t, err)
		assert.True(t, linked.IsZero())

		unread, err := tx.CountUnreadAdvisories(ctx, f.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)
		return nil
	})
	require.NoError(t, err)
}
