package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
)

// Store keeps a history of analysis results in PostgreSQL.
type Store struct {
	conn *pgx.Conn
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS video_metadata (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			indexed_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS analyses (
			id BIGSERIAL PRIMARY KEY,
			video_id TEXT NOT NULL REFERENCES video_metadata(id),
			probability DOUBLE PRECISION NOT NULL,
			is_deepfake BOOLEAN NOT NULL,
			confidence INT NOT NULL,
			method TEXT NOT NULL,
			details JSONB NOT NULL,
			analyzed_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS analyses_video_id_idx ON analyses (video_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// EnsureVideoMetadata registers the video in the database. If it exists, it updates the timestamp.
func (s *Store) EnsureVideoMetadata(ctx context.Context, videoID, path string) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO video_metadata (id, path, indexed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET indexed_at = NOW(), path = EXCLUDED.path
	`, videoID, path)
	return err
}

// SaveAnalysis records one result for a registered video and returns its row ID.
func (s *Store) SaveAnalysis(ctx context.Context, videoID string, res *types.AnalysisResult) (int64, error) {
	details, err := json.Marshal(res.Details)
	if err != nil {
		return 0, fmt.Errorf("encode details: %w", err)
	}

	var id int64
	err = s.conn.QueryRow(ctx, `
		INSERT INTO analyses (video_id, probability, is_deepfake, confidence, method, details)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING id
	`, videoID, res.Probability, res.IsDeepfake, res.Confidence, res.Method, string(details)).Scan(&id)
	return id, err
}

// AnalysisRecord is a persisted analysis joined with its video.
type AnalysisRecord struct {
	ID          int64
	VideoID     string
	Path        string
	Probability float64
	IsDeepfake  bool
	Confidence  int
	Method      string
	Details     types.Details
	AnalyzedAt  time.Time
}

// ListAnalyses returns the most recent analyses, newest first.
func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(ctx, `
		SELECT a.id, a.video_id, v.path, a.probability, a.is_deepfake, a.confidence, a.method, a.details::text, a.analyzed_at
		FROM analyses a
		JOIN video_metadata v ON v.id = a.video_id
		ORDER BY a.analyzed_at DESC, a.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var r AnalysisRecord
		var details string
		if err := rows.Scan(&r.ID, &r.VideoID, &r.Path, &r.Probability, &r.IsDeepfake, &r.Confidence, &r.Method, &details, &r.AnalyzedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &r.Details); err != nil {
			return nil, fmt.Errorf("decode details of analysis %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestAnalysis returns the newest analysis for a video, or nil if there is none.
func (s *Store) LatestAnalysis(ctx context.Context, videoID string) (*AnalysisRecord, error) {
	var r AnalysisRecord
	var details string
	err := s.conn.QueryRow(ctx, `
		SELECT a.id, a.video_id, v.path, a.probability, a.is_deepfake, a.confidence, a.method, a.details::text, a.analyzed_at
		FROM analyses a
		JOIN video_metadata v ON v.id = a.video_id
		WHERE a.video_id = $1
		ORDER BY a.analyzed_at DESC, a.id DESC
		LIMIT 1
	`, videoID).Scan(&r.ID, &r.VideoID, &r.Path, &r.Probability, &r.IsDeepfake, &r.Confidence, &r.Method, &details, &r.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(details), &r.Details); err != nil {
		return nil, fmt.Errorf("decode details of analysis %d: %w", r.ID, err)
	}
	return &r, nil
}

// Reset drops all application tables to clear the history.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS analyses CASCADE;
		DROP TABLE IF EXISTS video_metadata CASCADE;
	`)
	return err
}
