//go:build sqlite_vec && cgo

package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/embedding"
	errx "github.com/partpilot/server/internal/core/error"
)

// NewSemanticStore builds the embedding-backed index. The vec_docs virtual
// table is keyed by the semantic_docs rowid so document columns stay in the
// plain table.
func NewSemanticStore(db *sql.DB, engine embedding.Engine) (*SemanticStore, error) {
	ddl := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS vec_docs USING vec0(embedding float[%d])",
		engine.Dimensions())
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create vec_docs table: %w", err)
	}
	return &SemanticStore{db: db, engine: engine}, nil
}

// IndexDoc embeds the document content and stores both the row and its
// vector. Re-indexing the same id replaces the previous vector.
func (s *SemanticStore) IndexDoc(ctx context.Context, doc model.SemanticDoc) error {
	docType, partNumber, metaJSON, err := docColumns(doc)
	if err != nil {
		return errx.WrapCatalog(err)
	}

	vector, err := s.engine.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embed doc %s: %w", doc.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errx.WrapCatalog(err)
	}
	defer tx.Rollback()

	// INSERT OR REPLACE allocates a fresh rowid, so drop the stale vector
	// keyed by the old one first.
	var oldRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM semantic_docs WHERE id = ?`, doc.ID).Scan(&oldRowID)
	if err == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_docs WHERE rowid = ?`, oldRowID); err != nil {
			return errx.WrapCatalog(err)
		}
	} else if err != sql.ErrNoRows {
		return errx.WrapCatalog(err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO semantic_docs (id, content, doc_type, part_number, metadata)
		VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Content, docType, partNumber, metaJSON)
	if err != nil {
		return errx.WrapCatalog(err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return errx.WrapCatalog(err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_docs (rowid, embedding) VALUES (?, ?)`,
		rowID, encodeFloat32SliceToBlob(vector)); err != nil {
		return errx.WrapCatalog(err)
	}

	return errx.WrapCatalog(tx.Commit())
}

// Query embeds the text and ranks documents by cosine distance.
func (s *SemanticStore) Query(ctx context.Context, text, docType string, limit int) ([]model.SemanticDoc, error) {
	if limit <= 0 {
		limit = 5
	}

	vector, err := s.engine.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryBlob := encodeFloat32SliceToBlob(vector)

	sqlText := `SELECT d.id, d.content, d.doc_type, d.part_number, d.metadata,
		vec_distance_cosine(v.embedding, ?) AS distance
	FROM vec_docs v
	JOIN semantic_docs d ON d.rowid = v.rowid`
	args := []any{queryBlob}

	if docType != "" {
		sqlText += ` WHERE d.doc_type = ?`
		args = append(args, docType)
	}

	sqlText += ` ORDER BY distance ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	defer rows.Close()

	var docs []model.SemanticDoc
	for rows.Next() {
		var row docRow
		var distance float64
		if err := rows.Scan(&row.id, &row.content, &row.docType, &row.partNumber,
			&row.metaJSON, &distance); err != nil {
			return nil, errx.WrapCatalog(err)
		}
		doc, err := row.toDoc(distance)
		if err != nil {
			return nil, errx.WrapCatalog(err)
		}
		docs = append(docs, doc)
	}
	return docs, errx.WrapCatalog(rows.Err())
}

// encodeFloat32SliceToBlob encodes a float32 slice as a binary blob for
// sqlite-vec. Little-endian, as the extension expects.
func encodeFloat32SliceToBlob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		// Should never happen with bytes.Buffer
		return nil
	}
	return buf.Bytes()
}
