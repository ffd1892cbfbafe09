package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/retro-games/games-api/models"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameNameConflict  = errors.New("game name conflict")
	ErrPublisherNotFound = errors.New("publisher not found")
	ErrGameFieldRequired = errors.New("game required field missing")
	ErrNoFieldsToUpdate  = errors.New("no fields to update")
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetAll(ctx context.Context) ([]models.Game, error)
	GetByID(ctx context.Context, id int) (*models.Game, error)
	SearchByName(ctx context.Context, term string) ([]models.Game, error)
	Update(ctx context.Context, id int, update models.GameUpdate) (*models.Game, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// gameColumns selects a game joined with its publisher. Statements alias the
// games row as g and the publisher as p.
const gameColumns = `
	g.id_game,
	g.name,
	to_char(g.release_date, 'YYYY-MM-DD') AS release_date,
	g.players_num,
	g.cover_url,
	g.rating,
	g.id_publisher,
	p.name AS publisher_name`

const publisherJoin = `LEFT JOIN publishers p ON g.id_publisher = p.id_publisher`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner, game *models.Game) error {
	return row.Scan(
		&game.ID,
		&game.Name,
		&game.ReleaseDate,
		&game.PlayersNum,
		&game.CoverURL,
		&game.Rating,
		&game.PublisherID,
		&game.PublisherName,
	)
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		WITH g AS (
			INSERT INTO games (name, release_date, players_num, cover_url, rating, id_publisher)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + gameColumns + `
		FROM g
		` + publisherJoin

	row := r.db.QueryRowContext(ctx, query,
		game.Name,
		game.ReleaseDate,
		game.PlayersNum,
		game.CoverURL,
		game.Rating,
		game.PublisherID,
	)
	if err := scanGame(row, game); err != nil {
		if sentinel, ok := classifyGameWriteError(err); ok {
			return sentinel
		}
		return fmt.Errorf("failed to insert game %q: %w", game.Name, err)
	}
	return nil
}

func (r *postgresGameRepository) GetAll(ctx context.Context) ([]models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		` + publisherJoin + `
		ORDER BY g.name ASC`

	return r.queryGames(ctx, query)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		` + publisherJoin + `
		WHERE g.id_game = $1`

	var game models.Game
	if err := scanGame(r.db.QueryRowContext(ctx, query, id), &game); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return &game, nil
}

func (r *postgresGameRepository) SearchByName(ctx context.Context, term string) ([]models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		` + publisherJoin + `
		WHERE g.name ILIKE $1
		ORDER BY g.name ASC`

	return r.queryGames(ctx, query, "%"+likeEscaper.Replace(term)+"%")
}

func (r *postgresGameRepository) Update(ctx context.Context, id int, update models.GameUpdate) (*models.Game, error) {
	setClause, args, err := buildGameUpdate(id, update)
	if err != nil {
		return nil, err
	}

	query := `
		WITH g AS (
			UPDATE games SET ` + setClause + `
			RETURNING *
		)
		SELECT ` + gameColumns + `
		FROM g
		` + publisherJoin

	var game models.Game
	if err := scanGame(r.db.QueryRowContext(ctx, query, args...), &game); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		if sentinel, ok := classifyGameWriteError(err); ok {
			return nil, sentinel
		}
		return nil, fmt.Errorf("failed to update game %d: %w", id, err)
	}
	return &game, nil
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) (bool, error) {
	query := `DELETE FROM games WHERE id_game = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return singleRowAffected(result)
}

func (r *postgresGameRepository) queryGames(ctx context.Context, query string, args ...any) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var game models.Game
		if err := scanGame(rows, &game); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}
	return games, nil
}

// buildGameUpdate returns "col = $1, ... WHERE id_game = $n" and its arguments.
// Only fields present in update are assigned; the id is always bound last.
func buildGameUpdate(id int, update models.GameUpdate) (string, []any, error) {
	assignments := make([]string, 0, 6)
	args := make([]any, 0, 7)

	assign := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name.Set {
		assign("name", update.Name.SQLValue())
	}
	if update.ReleaseDate.Set {
		assign("release_date", update.ReleaseDate.SQLValue())
	}
	if update.PlayersNum.Set {
		assign("players_num", update.PlayersNum.SQLValue())
	}
	if update.CoverURL.Set {
		assign("cover_url", update.CoverURL.SQLValue())
	}
	if update.Rating.Set {
		assign("rating", update.Rating.SQLValue())
	}
	if update.PublisherID.Set {
		assign("id_publisher", update.PublisherID.SQLValue())
	}

	if len(assignments) == 0 {
		return "", nil, ErrNoFieldsToUpdate
	}

	args = append(args, id)
	clause := fmt.Sprintf("%s WHERE id_game = $%d", strings.Join(assignments, ", "), len(args))
	return clause, args, nil
}
