package lead

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func setupLeadRepo(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dbx := sqlx.NewDb(db, "sqlmock")
	return NewRepository(dbx), mock, func() { db.Close() }
}

func leadColumns() []string {
	return []string{
		"id", "title", "description", "category", "location", "company",
		"contact_name", "contact_email", "contact_phone", "created_at", "updated_at",
	}
}

func TestCreateLead(t *testing.T) {
	repo, mock, closeDB := setupLeadRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO leads.*`).
		WithArgs("Roofing job", "Full re-roof", "construction", "Austin", "Acme Roofing", "Dana Reeve", "dana@example.com", "+1-555-0100").
		WillReturnRows(sqlmock.NewRows(leadColumns()).
			AddRow(1, "Roofing job", "Full re-roof", "construction", "Austin", "Acme Roofing", "Dana Reeve", "dana@example.com", "+1-555-0100", now, now))

	l, err := repo.Create(context.Background(), CreateLeadRequest{
		Title:       "Roofing job",
		Description: "Full re-roof",
		Category:    "construction",
		Location:    "Austin",
		Company:     "Acme Roofing",
		ContactName: "Dana Reeve",
		ContactMail: "dana@example.com",
		ContactTel:  "+1-555-0100",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, l.ID)
	assert.Equal(t, "Roofing job", l.Title)
	assert.Equal(t, "dana@example.com", l.ContactMail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLeadByID(t *testing.T) {
	repo, mock, closeDB := setupLeadRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, description, category, location, company.*FROM leads.*WHERE id = \$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(leadColumns()).
			AddRow(7, "Roofing job", "", "construction", "Austin", "", "Dana Reeve", "dana@example.com", "", now, now))

	l, err := repo.GetByID(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, 7, l.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLeadByID_NotFound(t *testing.T) {
	repo, mock, closeDB := setupLeadRepo(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT id, title, description, category, location, company.*FROM leads.*WHERE id = \$1`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(leadColumns()))

	l, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrLeadNotFound)
	assert.Nil(t, l)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLeads(t *testing.T) {
	repo, mock, closeDB := setupLeadRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, description, category, location, company.*FROM leads`).
		WithArgs("construction", "", 50, 0).
		WillReturnRows(sqlmock.NewRows(leadColumns()).
			AddRow(2, "Roofing job", "", "construction", "Austin", "", "Dana Reeve", "dana@example.com", "", now, now).
			AddRow(1, "Solar install", "", "construction", "Dallas", "", "Kai Ito", "kai@example.com", "", now, now))

	leads, err := repo.List(context.Background(), "construction", "", 0, 0)
	assert.NoError(t, err)
	assert.Len(t, leads, 2)
	assert.Equal(t, "Roofing job", leads[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLead_NotFound(t *testing.T) {
	repo, mock, closeDB := setupLeadRepo(t)
	defer closeDB()

	mock.ExpectQuery(`UPDATE leads.*`).
		WillReturnRows(sqlmock.NewRows(leadColumns()))

	l, err := repo.Update(context.Background(), 99, CreateLeadRequest{Title: "Roofing job"})
	assert.ErrorIs(t, err, ErrLeadNotFound)
	assert.Nil(t, l)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLead(t *testing.T) {
	repo, mock, closeDB := setupLeadRepo(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLead_NotFound(t *testing.T) {
	repo, mock, closeDB := setupLeadRepo(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrLeadNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
