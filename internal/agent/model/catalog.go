package model

import (
	"context"
)

// CatalogStore is the read surface over the product catalog.
// Search results come back in relevance order, best match first; that order
// must be preserved through any downstream filtering.
type CatalogStore interface {
	// SearchParts runs a ranked keyword search, optionally restricted to a
	// category. limit caps the result count.
	SearchParts(ctx context.Context, query, category string, limit int) ([]Part, error)

	// GetPart fetches one part by its exact part number. A miss returns
	// (nil, nil).
	GetPart(ctx context.Context, partNumber string) (*Part, error)

	// GetInstallationGuide fetches the guide for a part. A miss returns
	// (nil, nil).
	GetInstallationGuide(ctx context.Context, partNumber string) (*InstallationGuide, error)

	// GetCompatibility fetches the curated fact for a part/model pair.
	// A miss returns (nil, nil).
	GetCompatibility(ctx context.Context, partNumber, modelNumber string) (*CompatibilityFact, error)

	// Ping verifies the catalog is reachable.
	Ping(ctx context.Context) error
}

// SemanticIndex answers nearest-neighbor queries over the document
// embeddings. Results come back in increasing-distance order.
type SemanticIndex interface {
	// Query returns up to limit documents relevant to text. A non-empty
	// docType restricts matches to documents tagged with that type. No
	// matches is (nil, nil), not an error.
	Query(ctx context.Context, text, docType string, limit int) ([]SemanticDoc, error)

	// Ping verifies the index is reachable.
	Ping(ctx context.Context) error
}

// GuideLookup is the single synchronous fetch the renderer needs while
// formatting a product-details reply.
type GuideLookup func(ctx context.Context, partNumber string) (*InstallationGuide, error)
