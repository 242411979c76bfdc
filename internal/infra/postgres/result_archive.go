package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-client/internal/domain"
)

// ResultArchive stores finished game results in the game_results table.
// A repeated save for the same room and participant overwrites the row.
type ResultArchive struct {
	pool *pgxpool.Pool
}

// NewResultArchive needs the game_results migration applied.
func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

func (a *ResultArchive) SaveResult(ctx context.Context, result domain.GameResult) error {
	board, err := json.Marshal(result.Leaderboard)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO game_results (room_code, participant_id, display_name, role, score, answered, leaderboard, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (room_code, participant_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			role = EXCLUDED.role,
			score = EXCLUDED.score,
			answered = EXCLUDED.answered,
			leaderboard = EXCLUDED.leaderboard,
			finished_at = EXCLUDED.finished_at`,
		result.RoomCode, result.ParticipantID, result.DisplayName, string(result.Role),
		result.Score, result.Answered, board, result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// ListResults returns up to limit results, newest first.
func (a *ResultArchive) ListResults(ctx context.Context, limit int) ([]domain.GameResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.pool.Query(ctx, `
		SELECT room_code, participant_id, display_name, role, score, answered, leaderboard, finished_at
		FROM game_results
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []domain.GameResult
	for rows.Next() {
		var (
			r     domain.GameResult
			role  string
			board []byte
		)
		if err := rows.Scan(&r.RoomCode, &r.ParticipantID, &r.DisplayName, &role, &r.Score, &r.Answered, &board, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Role = domain.Role(role)
		if err := json.Unmarshal(board, &r.Leaderboard); err != nil {
			return nil, fmt.Errorf("unmarshal leaderboard: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
