package history

// Schema defines the SQLite database schema for the build ledger.
// Every build gets one row in builds and one row per signed file in build_payloads.
const Schema = `
CREATE TABLE IF NOT EXISTS builds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    output TEXT NOT NULL,
    stub_path TEXT NOT NULL,
    stub_size INTEGER NOT NULL,
    table_size INTEGER NOT NULL,
    file_count INTEGER NOT NULL CHECK(file_count BETWEEN 1 AND 6),
    image_size INTEGER NOT NULL,
    sha512 TEXT,
    status TEXT NOT NULL CHECK(status IN ('complete', 'partial')),
    errors TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_builds_output ON builds(output);
CREATE INDEX IF NOT EXISTS idx_builds_created_at ON builds(created_at);

CREATE TABLE IF NOT EXISTS build_payloads (
    build_id INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
    slot INTEGER NOT NULL CHECK(slot BETWEEN 1 AND 6),
    path TEXT NOT NULL,
    size INTEGER NOT NULL,
    PRIMARY KEY (build_id, slot)
);
`

// Status constants
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

// Build represents one recorded autoloader build
type Build struct {
	ID        int64
	Output    string
	StubPath  string
	StubSize  int64
	TableSize int64
	FileCount int
	ImageSize int64
	SHA512    string
	Status    string
	Errors    string
	CreatedAt string
	Payloads  []Payload
}

// Payload is a signed file that went into a build
type Payload struct {
	Slot int
	Path string
	Size int64
}
