package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-games/games-api/models"
)

var gameRowColumns = []string{
	"id_game", "name", "release_date", "players_num", "cover_url", "rating", "id_publisher", "publisher_name",
}

func newMockRepo(t *testing.T) (GameRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresGameRepository(db), mock
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestCreateReturnsPopulatedGame(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO games (name, release_date, players_num, cover_url, rating, id_publisher)")).
		WithArgs("Chrono Trigger", "1995-03-11", nil, nil, 9.5, 3).
		WillReturnRows(sqlmock.NewRows(gameRowColumns).
			AddRow(7, "Chrono Trigger", "1995-03-11", nil, nil, 9.5, 3, "Square"))

	game := &models.Game{
		Name:        "Chrono Trigger",
		ReleaseDate: strPtr("1995-03-11"),
		Rating:      floatPtr(9.5),
		PublisherID: intPtr(3),
	}
	require.NoError(t, repo.Create(context.Background(), game))

	assert.Equal(t, 7, game.ID)
	assert.Nil(t, game.PlayersNum)
	assert.Nil(t, game.CoverURL)
	require.NotNil(t, game.PublisherName)
	assert.Equal(t, "Square", *game.PublisherName)
}

func TestCreateClassifiesConstraintViolations(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
		want error
	}{
		{"unique name", "23505", ErrGameNameConflict},
		{"unknown publisher", "23503", ErrPublisherNotFound},
		{"not null", "23502", ErrGameFieldRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery("INSERT INTO games").
				WillReturnError(&pq.Error{Code: tt.code})

			err := repo.Create(context.Background(), &models.Game{Name: "Chrono Trigger"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateWrapsUnknownErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("INSERT INTO games").WillReturnError(boom)

	err := repo.Create(context.Background(), &models.Game{Name: "Chrono Trigger"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrGameNameConflict)
}

func TestGetAllOrdersByName(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN publishers p ON g.id_publisher = p.id_publisher ORDER BY g.name ASC")).
		WillReturnRows(sqlmock.NewRows(gameRowColumns).
			AddRow(2, "Chrono Trigger", nil, 1, nil, nil, nil, nil).
			AddRow(1, "Donkey Kong", nil, 2, nil, 8.0, 1, "Nintendo"))

	games, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Chrono Trigger", games[0].Name)
	assert.Nil(t, games[0].PublisherName)
	assert.Equal(t, "Nintendo", *games[1].PublisherName)
}

func TestGetAllEmptyIsNotAnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM games g").WillReturnRows(sqlmock.NewRows(gameRowColumns))

	games, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, games)
	assert.Empty(t, games)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.id_game = $1")).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	game, err := repo.GetByID(context.Background(), 42)
	assert.Nil(t, game)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSearchByNameEscapesPattern(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.name ILIKE $1")).
		WithArgs(`%100\%_kong\_%`).
		WillReturnRows(sqlmock.NewRows(gameRowColumns))

	games, err := repo.SearchByName(context.Background(), `100%_kong_`)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestSearchByNamePlainTerm(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.name ILIKE $1")).
		WithArgs("%kong%").
		WillReturnRows(sqlmock.NewRows(gameRowColumns).
			AddRow(1, "Donkey Kong", nil, nil, nil, nil, nil, nil))

	games, err := repo.SearchByName(context.Background(), "kong")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Donkey Kong", games[0].Name)
}

func TestUpdateBindsOnlyPresentFields(t *testing.T) {
	repo, mock := newMockRepo(t)

	update := models.GameUpdate{
		Name:   models.NewNullable("Chrono Cross"),
		Rating: models.NewNullable(0.0),
	}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE games SET name = $1, rating = $2 WHERE id_game = $3")).
		WithArgs("Chrono Cross", 0.0, 5).
		WillReturnRows(sqlmock.NewRows(gameRowColumns).
			AddRow(5, "Chrono Cross", nil, nil, nil, 0.0, nil, nil))

	game, err := repo.Update(context.Background(), 5, update)
	require.NoError(t, err)
	assert.Equal(t, "Chrono Cross", game.Name)
	require.NotNil(t, game.Rating)
	assert.Equal(t, 0.0, *game.Rating)
}

func TestUpdateExplicitNullClearsColumn(t *testing.T) {
	repo, mock := newMockRepo(t)

	update := models.GameUpdate{PublisherID: models.Null[int]()}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE games SET id_publisher = $1 WHERE id_game = $2")).
		WithArgs(nil, 5).
		WillReturnRows(sqlmock.NewRows(gameRowColumns).
			AddRow(5, "Chrono Cross", nil, nil, nil, nil, nil, nil))

	game, err := repo.Update(context.Background(), 5, update)
	require.NoError(t, err)
	assert.Nil(t, game.PublisherID)
}

func TestUpdateWithoutFieldsIsRejected(t *testing.T) {
	repo, _ := newMockRepo(t)

	game, err := repo.Update(context.Background(), 5, models.GameUpdate{})
	assert.Nil(t, game)
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)
}

func TestUpdateMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE games SET").WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), 99, models.GameUpdate{PlayersNum: models.NewNullable(2)})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestUpdateDuplicateName(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE games SET").WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Update(context.Background(), 1, models.GameUpdate{Name: models.NewNullable("Tetris")})
	assert.ErrorIs(t, err, ErrGameNameConflict)
}

func TestBuildGameUpdateOrdersAllColumns(t *testing.T) {
	update := models.GameUpdate{
		Name:        models.NewNullable("Tetris"),
		ReleaseDate: models.NewNullable("1984-06-06"),
		PlayersNum:  models.NewNullable(1),
		CoverURL:    models.Null[string](),
		Rating:      models.NewNullable(10.0),
		PublisherID: models.NewNullable(4),
	}

	clause, args, err := buildGameUpdate(9, update)
	require.NoError(t, err)
	assert.Equal(t,
		"name = $1, release_date = $2, players_num = $3, cover_url = $4, rating = $5, id_publisher = $6 WHERE id_game = $7",
		clause)
	assert.Equal(t, []any{"Tetris", "1984-06-06", 1, nil, 10.0, 4, 9}, args)
}

func TestDeleteReportsWhetherARowWasRemoved(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM games WHERE id_game = $1")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM games WHERE id_game = $1")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteStorageFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM games").WillReturnError(errors.New("connection refused"))

	deleted, err := repo.Delete(context.Background(), 3)
	assert.False(t, deleted)
	assert.Error(t, err)
}

func TestDatabaseTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT NOW()")).
		WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(now))

	got, err := NewPostgresHealthRepository(db).DatabaseTime(context.Background())
	require.NoError(t, err)
	assert.True(t, now.Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}
