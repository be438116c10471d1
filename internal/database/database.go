package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"checkin-offers-api/internal/models"
)

// ErrOfferNotFound is returned when no offer has the requested id.
var ErrOfferNotFound = errors.New("offer not found")

// DB wraps the database connection and provides methods for data access.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initSchema creates the necessary tables if they don't exist.
func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS offers (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category INTEGER NOT NULL,
			valid_to TEXT NOT NULL,
			merchants TEXT NOT NULL,
			gender_scores TEXT NOT NULL,
			age_scores TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_valid_to ON offers(valid_to)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

const upsertOfferQuery = `INSERT INTO offers (
		id, title, description, category, valid_to,
		merchants, gender_scores, age_scores, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		category = excluded.category,
		valid_to = excluded.valid_to,
		merchants = excluded.merchants,
		gender_scores = excluded.gender_scores,
		age_scores = excluded.age_scores,
		updated_at = excluded.updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertOffer(ctx context.Context, ex execer, offer models.Offer) error {
	merchants, err := json.Marshal(offer.Merchants)
	if err != nil {
		return fmt.Errorf("failed to encode merchants: %w", err)
	}
	genderScores, err := json.Marshal(offer.GenderScores)
	if err != nil {
		return fmt.Errorf("failed to encode gender scores: %w", err)
	}
	ageScores, err := json.Marshal(offer.AgeScores)
	if err != nil {
		return fmt.Errorf("failed to encode age scores: %w", err)
	}

	_, err = ex.ExecContext(ctx, upsertOfferQuery,
		offer.ID,
		offer.Title,
		offer.Description,
		int(offer.Category),
		offer.ValidTo,
		string(merchants),
		string(genderScores),
		string(ageScores),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert offer %d: %w", offer.ID, err)
	}

	return nil
}

// UpsertOffer creates or updates an offer.
func (db *DB) UpsertOffer(ctx context.Context, offer models.Offer) error {
	return upsertOffer(ctx, db.conn, offer)
}

// UpsertOffers stores multiple offers in a single transaction.
func (db *DB) UpsertOffers(ctx context.Context, offers []models.Offer) (int, error) {
	if len(offers) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, offer := range offers {
		if err := upsertOffer(ctx, tx, offer); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(offers), nil
}

const selectOfferColumns = `SELECT id, title, description, category, valid_to,
		merchants, gender_scores, age_scores
		FROM offers`

type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(row scanner) (models.Offer, error) {
	var offer models.Offer
	var category int
	var merchants, genderScores, ageScores string

	err := row.Scan(
		&offer.ID,
		&offer.Title,
		&offer.Description,
		&category,
		&offer.ValidTo,
		&merchants,
		&genderScores,
		&ageScores,
	)
	if err != nil {
		return models.Offer{}, err
	}
	offer.Category = models.Category(category)

	if err := json.Unmarshal([]byte(merchants), &offer.Merchants); err != nil {
		return models.Offer{}, fmt.Errorf("failed to decode merchants of offer %d: %w", offer.ID, err)
	}
	if err := json.Unmarshal([]byte(genderScores), &offer.GenderScores); err != nil {
		return models.Offer{}, fmt.Errorf("failed to decode gender scores of offer %d: %w", offer.ID, err)
	}
	if err := json.Unmarshal([]byte(ageScores), &offer.AgeScores); err != nil {
		return models.Offer{}, fmt.Errorf("failed to decode age scores of offer %d: %w", offer.ID, err)
	}

	return offer, nil
}

// GetOffer returns the offer with the given id.
func (db *DB) GetOffer(ctx context.Context, id int) (models.Offer, error) {
	row := db.conn.QueryRowContext(ctx, selectOfferColumns+` WHERE id = ?`, id)

	offer, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Offer{}, fmt.Errorf("%w: %d", ErrOfferNotFound, id)
	}
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to get offer: %w", err)
	}

	return offer, nil
}

// ListOffers returns the whole catalog ordered by id. The order is the
// catalog order seen by the selection pipeline.
func (db *DB) ListOffers(ctx context.Context) ([]models.Offer, error) {
	rows, err := db.conn.QueryContext(ctx, selectOfferColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []models.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// DeleteOffer removes an offer from the catalog.
func (db *DB) DeleteOffer(ctx context.Context, id int) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrOfferNotFound, id)
	}

	return nil
}

// CountOffers returns the number of offers in the catalog.
func (db *DB) CountOffers(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return count, nil
}
