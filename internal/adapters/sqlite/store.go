package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates the database file if needed and applies pending migrations.
func Open(ctx context.Context, path string, logger *zap.Logger) (*store, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.WithMessagef(err, "create directory '%s'", dir)
		}
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.WithMessagef(err, "open sqlite database '%s'", path)
	}
	/* one connection: sqlite serializes writers anyway and ":memory:" is per connection */
	db.SetMaxOpenConns(1)
	pragmas := []string{
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA journal_mode = WAL`,
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, errors.WithMessagef(err, "exec '%s'", pragma)
		}
	}
	applied, err := migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "migrate")
	}
	if len(applied) > 0 {
		logger.Info("applied sqlite migrations", zap.Strings("migrations", applied))
	}
	return &store{db: db, logger: logger}, nil
}

func (s *store) Game(ctx context.Context, id uint64) (*domain.Game, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM games WHERE id = ?`, int64(id)).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrGameNotFound
	case err != nil:
		return nil, errors.WithMessagef(err, "select game %d", id)
	}
	return decodeGame(data)
}

func (s *store) Games(ctx context.Context, ids []uint64) ([]*domain.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, int64(id))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM games WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, errors.WithMessage(err, "select games")
	}
	defer func() {
		_ = rows.Close()
	}()
	games := make([]*domain.Game, 0, len(ids))
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.WithMessage(err, "scan game")
		}
		game, err := decodeGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithMessage(err, "iterate games")
	}
	return games, nil
}

func (s *store) PlayerStats(ctx context.Context, address string) (domain.PlayerStats, error) {
	stats := domain.NewPlayerStats(address)
	var gamesCreated, shotsFired, shipsSunk, tokensSpent, tokensWon int64
	err := s.db.QueryRowContext(ctx, `
SELECT games_created, shots_fired, ships_sunk, tokens_spent, tokens_won
FROM player_stats WHERE address = ?`, address).
		Scan(&gamesCreated, &shotsFired, &shipsSunk, &tokensSpent, &tokensWon)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return stats, nil
	case err != nil:
		return domain.PlayerStats{}, errors.WithMessagef(err, "select stats of '%s'", address)
	}
	stats.GamesCreated = uint64(gamesCreated)
	stats.ShotsFired = uint64(shotsFired)
	stats.ShipsSunk = uint64(shipsSunk)
	stats.TokensSpent = domain.Amount(tokensSpent)
	stats.TokensWon = domain.Amount(tokensWon)
	return stats, nil
}

func (s *store) Registry(ctx context.Context) (domain.Registry, error) {
	var nextID, oldestActive, totalGames int64
	err := s.db.QueryRowContext(ctx, `SELECT next_id, oldest_active, total_games FROM registry WHERE id = 1`).
		Scan(&nextID, &oldestActive, &totalGames)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.NewRegistry(), nil
	case err != nil:
		return domain.Registry{}, errors.WithMessage(err, "select registry")
	}
	return domain.Registry{
		NextID:       uint64(nextID),
		OldestActive: uint64(oldestActive),
		TotalGames:   uint64(totalGames),
	}, nil
}

func (s *store) Payouts(ctx context.Context, gameID uint64) ([]domain.Payout, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT tx_id, game_id, recipient, amount, reason
FROM payouts WHERE game_id = ? ORDER BY seq`, int64(gameID))
	if err != nil {
		return nil, errors.WithMessagef(err, "select payouts of game %d", gameID)
	}
	defer func() {
		_ = rows.Close()
	}()
	var payouts []domain.Payout
	for rows.Next() {
		var (
			p          domain.Payout
			id, amount int64
			reason     string
		)
		if err := rows.Scan(&p.TxID, &id, &p.To, &amount, &reason); err != nil {
			return nil, errors.WithMessage(err, "scan payout")
		}
		p.GameID = uint64(id)
		p.Amount = domain.Amount(amount)
		p.Reason = domain.PayoutReason(reason)
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithMessage(err, "iterate payouts")
	}
	return payouts, nil
}

// Commit writes the whole batch in one transaction.
func (s *store) Commit(ctx context.Context, batch domain.Batch) error {
	if batch.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithMessage(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()
	for _, game := range batch.Games {
		if err := upsertGame(ctx, tx, game); err != nil {
			return err
		}
	}
	for _, stats := range batch.Stats {
		if err := upsertStats(ctx, tx, stats); err != nil {
			return err
		}
	}
	if batch.Registry != nil {
		if err := upsertRegistry(ctx, tx, *batch.Registry); err != nil {
			return err
		}
	}
	for _, p := range batch.Payouts {
		_, err := tx.ExecContext(ctx, `
INSERT INTO payouts (tx_id, game_id, recipient, amount, reason) VALUES (?, ?, ?, ?, ?)`,
			p.TxID, int64(p.GameID), p.To, int64(p.Amount), string(p.Reason))
		if err != nil {
			return errors.WithMessagef(err, "insert payout for game %d", p.GameID)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WithMessage(err, "commit transaction")
	}
	return nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func upsertGame(ctx context.Context, tx *sql.Tx, game *domain.Game) error {
	data, err := json.MarshalToString(game)
	if err != nil {
		return errors.WithMessagef(err, "marshal game %d", game.ID)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO games (id, creator, status, created_at, data) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET status = excluded.status, data = excluded.data`,
		int64(game.ID), game.Creator, game.Status.String(), game.CreatedAt.UTC().Unix(), data)
	if err != nil {
		return errors.WithMessagef(err, "upsert game %d", game.ID)
	}
	return nil
}

func upsertStats(ctx context.Context, tx *sql.Tx, stats domain.PlayerStats) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO player_stats (address, games_created, shots_fired, ships_sunk, tokens_spent, tokens_won)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (address) DO UPDATE SET
    games_created = excluded.games_created,
    shots_fired   = excluded.shots_fired,
    ships_sunk    = excluded.ships_sunk,
    tokens_spent  = excluded.tokens_spent,
    tokens_won    = excluded.tokens_won`,
		stats.Address, int64(stats.GamesCreated), int64(stats.ShotsFired), int64(stats.ShipsSunk),
		int64(stats.TokensSpent), int64(stats.TokensWon))
	if err != nil {
		return errors.WithMessagef(err, "upsert stats of '%s'", stats.Address)
	}
	return nil
}

func upsertRegistry(ctx context.Context, tx *sql.Tx, registry domain.Registry) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO registry (id, next_id, oldest_active, total_games) VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    next_id       = excluded.next_id,
    oldest_active = excluded.oldest_active,
    total_games   = excluded.total_games`,
		int64(registry.NextID), int64(registry.OldestActive), int64(registry.TotalGames))
	if err != nil {
		return errors.WithMessage(err, "upsert registry")
	}
	return nil
}

func decodeGame(data string) (*domain.Game, error) {
	game := new(domain.Game)
	if err := json.UnmarshalFromString(data, game); err != nil {
		return nil, errors.WithMessage(err, "unmarshal game")
	}
	return game, nil
}
