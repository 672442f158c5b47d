package model

import "strings"

// Specifications carries the structured extras embedded with a catalog row.
// Stored as a JSON column and decoded on read.
type Specifications struct {
	ProductURL   string   `json:"product_url,omitempty"`
	ReplaceParts []string `json:"replace_parts,omitempty"`
	Symptoms     []string `json:"symptoms,omitempty"`
}

// Part is a read-only catalog record for one replacement part.
type Part struct {
	PartNumber     string         `json:"part_number"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Category       string         `json:"category,omitempty"`
	Brand          string         `json:"brand,omitempty"`
	Price          float64        `json:"price"`
	InStock        bool           `json:"in_stock"`
	Rating         float64        `json:"rating,omitempty"`
	ReviewsCount   int            `json:"reviews_count,omitempty"`
	ImageURLs      []string       `json:"image_urls,omitempty"`
	Specifications Specifications `json:"specifications,omitempty"`
}

// ProductURL returns the part's product page link, empty when unknown.
func (p *Part) ProductURL() string {
	return p.Specifications.ProductURL
}

// Replaces reports whether code appears in the part's declared
// replace-parts list. Codes compare case-insensitively.
func (p *Part) Replaces(code string) bool {
	for _, rp := range p.Specifications.ReplaceParts {
		if strings.EqualFold(rp, code) {
			return true
		}
	}
	return false
}

// RecommendedPart is a ranked candidate: the part plus the ranker's score
// and justification for picking it.
type RecommendedPart struct {
	Part
	RelevanceScore float64 `json:"relevance_score,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// InstallationGuide describes how to install one part.
type InstallationGuide struct {
	PartNumber           string   `json:"part_number"`
	Difficulty           string   `json:"difficulty,omitempty"`
	EstimatedTimeMinutes int      `json:"estimated_time_minutes,omitempty"`
	ToolsRequired        []string `json:"tools_required,omitempty"`
	VideoURL             string   `json:"video_url,omitempty"`
	PDFURL               string   `json:"pdf_url,omitempty"`
}

// CompatibilityFact is a curated part/model compatibility row.
type CompatibilityFact struct {
	PartNumber      string  `json:"part_number"`
	ModelNumber     string  `json:"model_number"`
	Compatible      bool    `json:"compatible"`
	ConfidenceScore float64 `json:"confidence_score"`
	Notes           string  `json:"notes,omitempty"`
}

// SemanticDoc is one retrieved document from the semantic index.
type SemanticDoc struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float64           `json:"distance"`
}

// DocType returns the document-type tag ("installation", "troubleshooting",
// ...) or empty when untagged.
func (d *SemanticDoc) DocType() string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata["doc_type"]
}
