package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/newsdesk/ingest-router/internal/database"
	"github.com/newsdesk/ingest-router/internal/models"
)

func newMockRepository(t *testing.T) (*database.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return database.NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func schemeRows(id uuid.UUID, name string, rules []byte) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "rules", "created_at", "updated_at"}).
		AddRow(id, name, rules, now, now)
}

func TestCreateScheme(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	scheme := &models.Scheme{
		Name: "wires",
		Rules: []models.Rule{{
			Name: "sports",
			Actions: models.Actions{
				Fetch: []models.FetchDestination{{Desk: uuid.New(), Stage: uuid.New()}},
			},
		}},
	}

	mock.ExpectQuery("INSERT INTO routing_schemes").
		WillReturnRows(schemeRows(uuid.New(), "wires", mustEncodeRules(t, scheme.Rules)))

	created, err := repo.CreateScheme(ctx, scheme)
	if err != nil {
		t.Fatalf("CreateScheme returned error: %v", err)
	}
	if created.Name != "wires" {
		t.Errorf("Name = %q, want %q", created.Name, "wires")
	}
	if len(created.Rules) != 1 || created.Rules[0].Name != "sports" {
		t.Errorf("Rules not decoded from storage: %+v", created.Rules)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateSchemeDuplicateName(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO routing_schemes").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateScheme(context.Background(), &models.Scheme{Name: "wires"})
	if !errors.Is(err, models.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestGetSchemeByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, name, rules, created_at, updated_at").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rules", "created_at", "updated_at"}))

	_, err := repo.GetSchemeByID(context.Background(), id)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSchemeRefusedWhileReferenced(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ingest_providers").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err := repo.DeleteScheme(context.Background(), id)
	if !errors.Is(err, models.ErrSchemeInUse) {
		t.Errorf("err = %v, want ErrSchemeInUse", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteScheme(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ingest_providers").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("DELETE FROM routing_schemes").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteScheme(context.Background(), id); err != nil {
		t.Fatalf("DeleteScheme returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateSchemeNoFields(t *testing.T) {
	repo, _ := newMockRepository(t)

	_, err := repo.UpdateScheme(context.Background(), uuid.New(), nil, nil)
	if !errors.Is(err, models.ErrNoFieldsToUpdate) {
		t.Errorf("err = %v, want ErrNoFieldsToUpdate", err)
	}
}

func mustEncodeRules(t *testing.T, rules []models.Rule) []byte {
	t.Helper()
	scheme := models.Scheme{Rules: rules}
	if err := scheme.EncodeRules(); err != nil {
		t.Fatalf("encode rules: %v", err)
	}
	return scheme.RulesJSON
}
