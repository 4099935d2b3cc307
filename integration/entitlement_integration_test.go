package integration_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"leadmarket/internal/entitlement"
	"leadmarket/internal/ledger"
)

func createTestLead(t *testing.T, db *sqlx.DB, title string) int {
	var leadID int
	err := db.QueryRow(`
		INSERT INTO leads (title, description, category, location, company, contact_name, contact_email, contact_phone)
		VALUES ($1, 'desc', 'home_services', 'Austin', 'Acme', 'Dana', 'dana@example.com', '+1-555-0133')
		RETURNING id
	`, title).Scan(&leadID)

	require.NoError(t, err)
	return leadID
}

func TestUnlockLead_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	ctx := context.Background()
	userID := createTestUser(t, db, "unlock@test.com", "Unlock User")
	leadID := createTestLead(t, db, "Kitchen remodel")

	repo := entitlement.NewRepository(db)

	remaining, err := repo.UnlockLead(ctx, userID, leadID, 5, entitlement.ViewContactInfo)
	require.NoError(t, err)
	require.Equal(t, 15, remaining)

	// One ledger entry, negative amount
	var amount int
	err = db.Get(&amount, `SELECT amount FROM coin_transactions WHERE user_id = $1 AND kind = 'spent'`, userID)
	require.NoError(t, err)
	require.Equal(t, -5, amount)

	// Same tier again is a constraint violation, and the debit rolled back
	_, err = repo.UnlockLead(ctx, userID, leadID, 5, entitlement.ViewContactInfo)
	require.ErrorIs(t, err, entitlement.ErrAlreadyUnlocked)

	balance, err := ledger.NewRepository(db).GetBalance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 15, balance)

	// A different tier for the same lead is a separate purchase
	remaining, err = repo.UnlockLead(ctx, userID, leadID, 10, entitlement.ViewDetailedInfo)
	require.NoError(t, err)
	require.Equal(t, 5, remaining)
}

func TestUnlockLead_InsufficientBalanceRollsBack_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	ctx := context.Background()
	userID := createTestUser(t, db, "poor@test.com", "Poor User")
	leadID := createTestLead(t, db, "Roof repair")

	// Drain down to 3 coins
	_, err := ledger.Debit(ctx, db, userID, 17)
	require.NoError(t, err)

	repo := entitlement.NewRepository(db)
	_, err = repo.UnlockLead(ctx, userID, leadID, 5, entitlement.ViewContactInfo)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// No view row, no ledger entry, balance untouched
	viewed, err := repo.HasViewed(ctx, userID, leadID)
	require.NoError(t, err)
	require.False(t, viewed)

	balance, err := ledger.NewRepository(db).GetBalance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 3, balance)
}

func TestUnlockLead_ConcurrentDuplicates_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	ctx := context.Background()
	userID := createTestUser(t, db, "dup@test.com", "Dup User")
	leadID := createTestLead(t, db, "Fence install")

	repo := entitlement.NewRepository(db)

	// Two racing unlocks of the same tier: exactly one pays.
	const workers = 2
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UnlockLead(ctx, userID, leadID, 5, entitlement.ViewContactInfo)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	paid, rejected := 0, 0
	for err := range errs {
		if err == nil {
			paid++
		} else {
			require.ErrorIs(t, err, entitlement.ErrAlreadyUnlocked)
			rejected++
		}
	}
	require.Equal(t, 1, paid)
	require.Equal(t, 1, rejected)

	balance, err := ledger.NewRepository(db).GetBalance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 15, balance)
}

func TestCostSettings_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	repo := entitlement.NewRepository(db)

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, settings.ContactInfoCost)
	require.Equal(t, 10, settings.DetailedInfoCost)
	require.Equal(t, 15, settings.FullAccessCost)

	updated, err := repo.UpdateSettings(ctx, entitlement.UpdateSettingsRequest{
		ContactInfoCost:  3,
		DetailedInfoCost: 8,
		FullAccessCost:   12,
	})
	require.NoError(t, err)
	require.Equal(t, 3, updated.ContactInfoCost)

	// Restore defaults for other tests
	_, err = repo.UpdateSettings(ctx, entitlement.UpdateSettingsRequest{
		ContactInfoCost:  5,
		DetailedInfoCost: 10,
		FullAccessCost:   15,
	})
	require.NoError(t, err)
}
