// Package store is the embedded product catalog: parts, installation
// guides, compatibility facts, and the semantic document index, all in one
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"

	"github.com/partpilot/server/internal/agent/model"
	errx "github.com/partpilot/server/internal/core/error"
)

// Config locates the catalog database.
type Config struct {
	Path string `envconfig:"CATALOG_DB_PATH" default:"data/partpilot.db"`
	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int `envconfig:"CATALOG_MAX_OPEN_CONNS" default:"4"`
}

// Catalog implements model.CatalogStore over SQLite.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database and applies the
// schema.
func Open(cfg Config) (*Catalog, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// DB exposes the underlying handle for the semantic index sharing this
// database file.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Ping verifies the catalog is reachable.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

const partColumns = `part_number, name, description, category, brand, price,
	in_stock, rating, reviews_count, image_urls, specifications`

// SearchParts runs a ranked keyword search over name and description. Name
// hits outrank description hits; rating breaks ties. Ordering is stable so
// callers can filter without losing relevance order.
func (c *Catalog) SearchParts(ctx context.Context, query, category string, limit int) ([]model.Part, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	sqlText := `SELECT ` + partColumns + `,
		(CASE WHEN LOWER(name) LIKE ?1 THEN 2 ELSE 0 END +
		 CASE WHEN LOWER(description) LIKE ?1 THEN 1 ELSE 0 END) AS score
	FROM products
	WHERE (LOWER(name) LIKE ?1 OR LOWER(description) LIKE ?1)`
	args := []any{pattern}

	if category != "" {
		sqlText += ` AND LOWER(category) = ?2`
		args = append(args, strings.ToLower(category))
	}

	sqlText += ` ORDER BY score DESC, rating DESC, part_number ASC LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	defer rows.Close()

	var parts []model.Part
	for rows.Next() {
		part, err := scanPart(rows, true)
		if err != nil {
			return nil, errx.WrapCatalog(err)
		}
		parts = append(parts, *part)
	}
	return parts, errx.WrapCatalog(rows.Err())
}

// GetPart fetches one part by its exact part number. A miss is (nil, nil).
func (c *Catalog) GetPart(ctx context.Context, partNumber string) (*model.Part, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+partColumns+` FROM products WHERE part_number = ?`, partNumber)

	part, err := scanPart(row, false)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	return part, nil
}

// GetInstallationGuide fetches the guide for a part. A miss is (nil, nil).
func (c *Catalog) GetInstallationGuide(ctx context.Context, partNumber string) (*model.InstallationGuide, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT part_number, difficulty, estimated_time_minutes, tools_required, video_url, pdf_url
		FROM installation_guides WHERE part_number = ?`, partNumber)

	var guide model.InstallationGuide
	var toolsJSON string
	err := row.Scan(&guide.PartNumber, &guide.Difficulty, &guide.EstimatedTimeMinutes,
		&toolsJSON, &guide.VideoURL, &guide.PDFURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	if toolsJSON != "" {
		if err := sonic.UnmarshalString(toolsJSON, &guide.ToolsRequired); err != nil {
			return nil, errx.WrapCatalog(fmt.Errorf("decode tools_required for %s: %w", partNumber, err))
		}
	}
	return &guide, nil
}

// GetCompatibility fetches the curated fact for a part/model pair. A miss is
// (nil, nil).
func (c *Catalog) GetCompatibility(ctx context.Context, partNumber, modelNumber string) (*model.CompatibilityFact, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT part_number, model_number, compatible, confidence_score, notes
		FROM compatibility WHERE part_number = ? AND model_number = ?`,
		partNumber, modelNumber)

	var fact model.CompatibilityFact
	err := row.Scan(&fact.PartNumber, &fact.ModelNumber, &fact.Compatible,
		&fact.ConfidenceScore, &fact.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	return &fact, nil
}

// UpsertPart inserts or replaces a catalog row. Used by seeding and the
// ingestion tool.
func (c *Catalog) UpsertPart(ctx context.Context, part *model.Part) error {
	imagesJSON, err := sonic.MarshalString(part.ImageURLs)
	if err != nil {
		return errx.WrapCatalog(err)
	}
	specsJSON, err := sonic.MarshalString(part.Specifications)
	if err != nil {
		return errx.WrapCatalog(err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO products
		(part_number, name, description, category, brand, price, in_stock, rating, reviews_count, image_urls, specifications)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		part.PartNumber, part.Name, part.Description, part.Category, part.Brand,
		part.Price, part.InStock, part.Rating, part.ReviewsCount, imagesJSON, specsJSON)
	return errx.WrapCatalog(err)
}

// UpsertInstallationGuide inserts or replaces a guide row.
func (c *Catalog) UpsertInstallationGuide(ctx context.Context, guide *model.InstallationGuide) error {
	toolsJSON, err := sonic.MarshalString(guide.ToolsRequired)
	if err != nil {
		return errx.WrapCatalog(err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO installation_guides
		(part_number, difficulty, estimated_time_minutes, tools_required, video_url, pdf_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		guide.PartNumber, guide.Difficulty, guide.EstimatedTimeMinutes,
		toolsJSON, guide.VideoURL, guide.PDFURL)
	return errx.WrapCatalog(err)
}

// UpsertCompatibility inserts or replaces a compatibility fact.
func (c *Catalog) UpsertCompatibility(ctx context.Context, fact *model.CompatibilityFact) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO compatibility
		(part_number, model_number, compatible, confidence_score, notes)
		VALUES (?, ?, ?, ?, ?)`,
		fact.PartNumber, fact.ModelNumber, fact.Compatible, fact.ConfidenceScore, fact.Notes)
	return errx.WrapCatalog(err)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPart(r rowScanner, withScore bool) (*model.Part, error) {
	var part model.Part
	var imagesJSON, specsJSON string

	dest := []any{
		&part.PartNumber, &part.Name, &part.Description, &part.Category,
		&part.Brand, &part.Price, &part.InStock, &part.Rating,
		&part.ReviewsCount, &imagesJSON, &specsJSON,
	}
	if withScore {
		var score int
		dest = append(dest, &score)
	}
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}

	if imagesJSON != "" && imagesJSON != "[]" {
		if err := sonic.UnmarshalString(imagesJSON, &part.ImageURLs); err != nil {
			return nil, fmt.Errorf("decode image_urls for %s: %w", part.PartNumber, err)
		}
	}
	if specsJSON != "" && specsJSON != "{}" {
		if err := sonic.UnmarshalString(specsJSON, &part.Specifications); err != nil {
			return nil, fmt.Errorf("decode specifications for %s: %w", part.PartNumber, err)
		}
	}
	return &part, nil
}

var _ model.CatalogStore = (*Catalog)(nil)
