//go:build !sqlite_vec || !cgo

package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/embedding"
	errx "github.com/partpilot/server/internal/core/error"
)

// NewSemanticStore builds the keyword-overlap index used when the sqlite-vec
// extension is not compiled in. Same interface, coarser ranking: documents
// are ordered by how many query terms they contain. The engine is accepted
// for signature parity and left unused.
func NewSemanticStore(db *sql.DB, engine embedding.Engine) (*SemanticStore, error) {
	return &SemanticStore{db: db, engine: engine}, nil
}

// IndexDoc stores the document row. No vector is computed in this variant.
func (s *SemanticStore) IndexDoc(ctx context.Context, doc model.SemanticDoc) error {
	docType, partNumber, metaJSON, err := docColumns(doc)
	if err != nil {
		return errx.WrapCatalog(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO semantic_docs (id, content, doc_type, part_number, metadata)
		VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Content, docType, partNumber, metaJSON)
	return errx.WrapCatalog(err)
}

// Query ranks documents by keyword overlap with the query text. Distance is
// derived from the hit ratio so callers still see increasing-distance order.
func (s *SemanticStore) Query(ctx context.Context, text, docType string, limit int) ([]model.SemanticDoc, error) {
	if limit <= 0 {
		limit = 5
	}

	keywords := strings.Fields(strings.ToLower(text))
	if len(keywords) == 0 {
		return nil, nil
	}

	var hits, matches []string
	var args []any
	for _, kw := range keywords {
		hits = append(hits, "(CASE WHEN LOWER(content) LIKE ? THEN 1 ELSE 0 END)")
		matches = append(matches, "LOWER(content) LIKE ?")
		args = append(args, "%"+kw+"%")
	}
	// The score CASEs and the WHERE LIKEs bind the same patterns twice.
	patterns := make([]any, len(args))
	copy(patterns, args)
	args = append(args, patterns...)

	sqlText := `SELECT id, content, doc_type, part_number, metadata, ` +
		strings.Join(hits, " + ") + ` AS score
	FROM semantic_docs
	WHERE (` + strings.Join(matches, " OR ") + `)`

	if docType != "" {
		sqlText += ` AND doc_type = ?`
		args = append(args, docType)
	}

	sqlText += ` ORDER BY score DESC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	defer rows.Close()

	var docs []model.SemanticDoc
	for rows.Next() {
		var row docRow
		var score int
		if err := rows.Scan(&row.id, &row.content, &row.docType, &row.partNumber,
			&row.metaJSON, &score); err != nil {
			return nil, errx.WrapCatalog(err)
		}
		doc, err := row.toDoc(1 - float64(score)/float64(len(keywords)))
		if err != nil {
			return nil, errx.WrapCatalog(err)
		}
		docs = append(docs, doc)
	}
	return docs, errx.WrapCatalog(rows.Err())
}
