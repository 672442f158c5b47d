package store

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/partpilot/server/internal/agent/model"
	logx "github.com/partpilot/server/pkg/logger"
)

// SeedFile is the on-disk ingestion format. Each section is optional.
type SeedFile struct {
	Products           []model.Part              `json:"products"`
	InstallationGuides []model.InstallationGuide `json:"installation_guides"`
	Compatibility      []model.CompatibilityFact `json:"compatibility"`
	Documents          []model.SemanticDoc       `json:"documents"`
}

// SeedCounts reports how many rows each section loaded.
type SeedCounts struct {
	Products int
	Guides   int
	Facts    int
	Docs     int
	Skipped  int
}

// LoadSeedFile reads and decodes a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := sonic.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Seed loads a seed file into the catalog and, when an index is given, the
// semantic index. Guides, facts and documents referencing part numbers absent
// from the products section are skipped rather than failing the run.
func Seed(ctx context.Context, catalog *Catalog, index *SemanticStore, seed *SeedFile) (SeedCounts, error) {
	var counts SeedCounts

	known := make(map[string]bool, len(seed.Products))
	for i := range seed.Products {
		part := &seed.Products[i]
		if err := catalog.UpsertPart(ctx, part); err != nil {
			return counts, fmt.Errorf("seed product %s: %w", part.PartNumber, err)
		}
		known[part.PartNumber] = true
		counts.Products++
	}

	for i := range seed.InstallationGuides {
		guide := &seed.InstallationGuides[i]
		if !known[guide.PartNumber] {
			logx.Warn().Str("part_number", guide.PartNumber).Msg("skipping guide for unknown part")
			counts.Skipped++
			continue
		}
		if err := catalog.UpsertInstallationGuide(ctx, guide); err != nil {
			return counts, fmt.Errorf("seed guide %s: %w", guide.PartNumber, err)
		}
		counts.Guides++
	}

	for i := range seed.Compatibility {
		fact := &seed.Compatibility[i]
		if !known[fact.PartNumber] {
			logx.Warn().Str("part_number", fact.PartNumber).Msg("skipping compatibility fact for unknown part")
			counts.Skipped++
			continue
		}
		if err := catalog.UpsertCompatibility(ctx, fact); err != nil {
			return counts, fmt.Errorf("seed compatibility %s/%s: %w", fact.PartNumber, fact.ModelNumber, err)
		}
		counts.Facts++
	}

	if index == nil {
		return counts, nil
	}

	for i := range seed.Documents {
		doc := seed.Documents[i]
		if pn := doc.Metadata["part_number"]; pn != "" && !known[pn] {
			logx.Warn().Str("doc_id", doc.ID).Str("part_number", pn).Msg("skipping document for unknown part")
			counts.Skipped++
			continue
		}
		if err := index.IndexDoc(ctx, doc); err != nil {
			return counts, fmt.Errorf("seed document %s: %w", doc.ID, err)
		}
		counts.Docs++
	}

	return counts, nil
}
