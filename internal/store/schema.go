package store

// Catalog schema. Specifications, tools and image lists are JSON columns
// decoded on read; the vec_docs virtual table is created separately because
// it only exists when the sqlite-vec extension is compiled in.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
    part_number   TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT '',
    brand         TEXT NOT NULL DEFAULT '',
    price         REAL NOT NULL DEFAULT 0,
    in_stock      INTEGER NOT NULL DEFAULT 1,
    rating        REAL NOT NULL DEFAULT 0,
    reviews_count INTEGER NOT NULL DEFAULT 0,
    image_urls    TEXT NOT NULL DEFAULT '[]',
    specifications TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);

CREATE TABLE IF NOT EXISTS installation_guides (
    part_number            TEXT PRIMARY KEY,
    difficulty             TEXT NOT NULL DEFAULT '',
    estimated_time_minutes INTEGER NOT NULL DEFAULT 0,
    tools_required         TEXT NOT NULL DEFAULT '[]',
    video_url              TEXT NOT NULL DEFAULT '',
    pdf_url                TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS compatibility (
    part_number      TEXT NOT NULL,
    model_number     TEXT NOT NULL,
    compatible       INTEGER NOT NULL DEFAULT 0,
    confidence_score REAL NOT NULL DEFAULT 0,
    notes            TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (part_number, model_number)
);

CREATE TABLE IF NOT EXISTS semantic_docs (
    id          TEXT PRIMARY KEY,
    content     TEXT NOT NULL,
    doc_type    TEXT NOT NULL DEFAULT '',
    part_number TEXT NOT NULL DEFAULT '',
    metadata    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_semantic_docs_type ON semantic_docs(doc_type);
`
