package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/embedding"
)

// SemanticStore implements model.SemanticIndex over the semantic_docs table.
// With the sqlite_vec build tag it ranks by embedding cosine distance; without
// it, by keyword overlap. Both variants share this struct and the row codec.
type SemanticStore struct {
	db     *sql.DB
	engine embedding.Engine
}

// Ping verifies the index is reachable.
func (s *SemanticStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// docRow is the semantic_docs row shape shared by both query variants.
type docRow struct {
	id         string
	content    string
	docType    string
	partNumber string
	metaJSON   string
}

// toDoc merges the typed columns into the metadata map. Columns win over
// whatever the stored JSON carried.
func (r *docRow) toDoc(distance float64) (model.SemanticDoc, error) {
	doc := model.SemanticDoc{
		ID:       r.id,
		Content:  r.content,
		Distance: distance,
	}
	if r.metaJSON != "" && r.metaJSON != "{}" {
		if err := sonic.UnmarshalString(r.metaJSON, &doc.Metadata); err != nil {
			return doc, err
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string, 2)
	}
	if r.docType != "" {
		doc.Metadata["doc_type"] = r.docType
	}
	if r.partNumber != "" {
		doc.Metadata["part_number"] = r.partNumber
	}
	return doc, nil
}

// docColumns splits a document into its table columns. doc_type and
// part_number are promoted out of the metadata map so they can be indexed.
func docColumns(doc model.SemanticDoc) (docType, partNumber, metaJSON string, err error) {
	docType = doc.DocType()
	if doc.Metadata != nil {
		partNumber = doc.Metadata["part_number"]
	}
	metaJSON, err = sonic.MarshalString(doc.Metadata)
	return docType, partNumber, metaJSON, err
}

// listDocs reads every stored document. The cursor is fully drained before
// returning so callers can write without tripping over an open read.
func (s *SemanticStore) listDocs(ctx context.Context) ([]model.SemanticDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, doc_type, part_number, metadata FROM semantic_docs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list semantic docs: %w", err)
	}
	defer rows.Close()

	var docs []model.SemanticDoc
	for rows.Next() {
		var r docRow
		if err := rows.Scan(&r.id, &r.content, &r.docType, &r.partNumber, &r.metaJSON); err != nil {
			return nil, fmt.Errorf("scan semantic doc: %w", err)
		}
		doc, err := r.toDoc(0)
		if err != nil {
			return nil, fmt.Errorf("decode semantic doc %s: %w", r.id, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Reindex re-embeds every stored document with the current engine. Run it
// after switching embedding models or dimensions.
func (s *SemanticStore) Reindex(ctx context.Context) (int, error) {
	docs, err := s.listDocs(ctx)
	if err != nil {
		return 0, err
	}
	for i := range docs {
		if err := s.IndexDoc(ctx, docs[i]); err != nil {
			return i, fmt.Errorf("reindex doc %s: %w", docs[i].ID, err)
		}
	}
	return len(docs), nil
}

var _ model.SemanticIndex = (*SemanticStore)(nil)
