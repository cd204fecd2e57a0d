package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

// Index is the SQLite-backed document index. Every processing outcome is
// recorded, including unclear and duplicate ones; rows are never deleted by
// the pipeline. Full statistics are cached in memory and the cache is
// invalidated on every write, never on reads.
type Index struct {
	db     *sql.DB
	logger *slog.Logger

	statsMu    sync.Mutex
	statsCache *domain.Statistics
}

func NewIndex(db *sql.DB, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{db: db, logger: logger}
}

func (i *Index) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	original_path TEXT,
	target_path TEXT NOT NULL,
	order_nr TEXT,
	order_date TEXT,
	document_type TEXT,
	year INTEGER,
	customer_nr TEXT,
	customer_name TEXT,
	vin TEXT,
	license_plate TEXT,
	odometer INTEGER,
	is_legacy INTEGER NOT NULL DEFAULT 0,
	match_reason TEXT,
	confidence REAL,
	status TEXT NOT NULL,
	hint TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS unclear_legacy (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	file_path TEXT NOT NULL,
	order_nr TEXT,
	order_date TEXT,
	customer_name TEXT,
	vin TEXT,
	license_plate TEXT,
	year INTEGER,
	document_type TEXT,
	match_reason TEXT NOT NULL,
	hint TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	assigned_at TEXT,
	assigned_to_customer_nr TEXT,
	status TEXT NOT NULL DEFAULT 'open'
);

CREATE INDEX IF NOT EXISTS idx_documents_order_nr ON documents(order_nr);
CREATE INDEX IF NOT EXISTS idx_documents_customer_nr ON documents(customer_nr);
CREATE INDEX IF NOT EXISTS idx_documents_year ON documents(year);
CREATE INDEX IF NOT EXISTS idx_documents_document_type ON documents(document_type);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_is_legacy ON documents(is_legacy);
CREATE INDEX IF NOT EXISTS idx_documents_vin ON documents(vin);
CREATE INDEX IF NOT EXISTS idx_documents_license_plate ON documents(license_plate);
CREATE INDEX IF NOT EXISTS idx_documents_customer_year ON documents(customer_nr, year);
CREATE INDEX IF NOT EXISTS idx_documents_processed_at ON documents(processed_at DESC);
CREATE INDEX IF NOT EXISTS idx_unclear_legacy_status ON unclear_legacy(status);
CREATE INDEX IF NOT EXISTS idx_unclear_legacy_vin ON unclear_legacy(vin);
CREATE INDEX IF NOT EXISTS idx_unclear_legacy_order_nr ON unclear_legacy(order_nr);
CREATE INDEX IF NOT EXISTS idx_unclear_legacy_license_plate ON unclear_legacy(license_plate);
`
	if _, err := i.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := i.migrate(ctx); err != nil {
		return err
	}
	return nil
}

// migrate adds columns introduced after the first release to databases created
// by older versions. Additions only, no drops or rewrites, and running it
// twice is harmless. SQLite cannot add a column with a non-constant default,
// so timestamp columns are added without one.
func (i *Index) migrate(ctx context.Context) error {
	wanted := []struct {
		table, column, ddl string
	}{
		{"documents", "odometer", "ALTER TABLE documents ADD COLUMN odometer INTEGER"},
		{"documents", "match_reason", "ALTER TABLE documents ADD COLUMN match_reason TEXT"},
		{"documents", "is_legacy", "ALTER TABLE documents ADD COLUMN is_legacy INTEGER NOT NULL DEFAULT 0"},
		{"documents", "order_date", "ALTER TABLE documents ADD COLUMN order_date TEXT"},
		{"documents", "last_update", "ALTER TABLE documents ADD COLUMN last_update TIMESTAMP"},
		{"unclear_legacy", "assigned_at", "ALTER TABLE unclear_legacy ADD COLUMN assigned_at TEXT"},
		{"unclear_legacy", "assigned_to_customer_nr", "ALTER TABLE unclear_legacy ADD COLUMN assigned_to_customer_nr TEXT"},
	}

	for _, w := range wanted {
		have, err := i.tableColumns(ctx, w.table)
		if err != nil {
			return err
		}
		if _, ok := have[w.column]; ok {
			continue
		}
		if _, err := i.db.ExecContext(ctx, w.ddl); err != nil {
			return fmt.Errorf("add column %s.%s: %w", w.table, w.column, err)
		}
		i.logger.Info("index schema migrated", "table", w.table, "column", w.column)
	}
	return nil
}

func (i *Index) tableColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}

const insertDocumentSQL = `
INSERT INTO documents (
	filename, original_path, target_path, order_nr, order_date, document_type,
	year, customer_nr, customer_name, vin, license_plate, odometer,
	is_legacy, match_reason, confidence, status, hint,
	created_at, last_update, processed_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`

func documentArgs(doc domain.IndexedDocument, now time.Time) []any {
	return []any{
		doc.Filename, doc.OriginalPath, doc.TargetPath, doc.OrderNr, doc.OrderDate, doc.DocumentType,
		doc.Year, doc.CustomerNr, doc.CustomerName, doc.VIN, doc.LicensePlate, doc.Odometer,
		doc.IsLegacy, doc.MatchReason, doc.Confidence, string(doc.Status), doc.Hint,
		now, now, now,
	}
}

func (i *Index) Add(ctx context.Context, doc domain.IndexedDocument) (int64, error) {
	res, err := i.db.ExecContext(ctx, insertDocumentSQL, documentArgs(doc, time.Now().UTC())...)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	i.invalidateStats()
	return id, nil
}

// AddBatch inserts all rows in one transaction so a batch run is recorded
// completely or not at all.
func (i *Index) AddBatch(ctx context.Context, docs []domain.IndexedDocument) ([]int64, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		res, err := tx.ExecContext(ctx, insertDocumentSQL, documentArgs(doc, now)...)
		if err != nil {
			return nil, fmt.Errorf("insert document %s: %w", doc.Filename, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch tx: %w", err)
	}
	i.invalidateStats()
	return ids, nil
}

const selectDocumentSQL = `
SELECT id, filename, original_path, target_path, order_nr, order_date, document_type,
	year, customer_nr, customer_name, vin, license_plate, odometer,
	is_legacy, match_reason, confidence, status, hint,
	created_at, last_update, processed_at
FROM documents
`

// CheckDuplicate reports the newest previously indexed document with the same
// order number, or nil when there is none. A non-empty documentType narrows
// the check to that type. Rows already filed as duplicates do not count, so a
// duplicate of a duplicate still points at the original.
func (i *Index) CheckDuplicate(ctx context.Context, orderNr, documentType string) (*domain.IndexedDocument, error) {
	where := `WHERE order_nr = ? AND status != ?`
	args := []any{orderNr, string(domain.StatusDuplicate)}
	if documentType != "" {
		where = `WHERE order_nr = ? AND document_type = ? AND status != ?`
		args = []any{orderNr, documentType, string(domain.StatusDuplicate)}
	}
	row := i.db.QueryRowContext(ctx, selectDocumentSQL+where+`
ORDER BY processed_at DESC, id DESC
LIMIT 1
`, args...)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	return doc, nil
}

func (i *Index) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.IndexedDocument, error) {
	var conds []string
	var args []any

	addEq := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	addLike := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" LIKE ?")
			args = append(args, "%"+v+"%")
		}
	}

	addEq("customer_nr", filter.CustomerNr)
	addEq("order_nr", filter.OrderNr)
	addEq("document_type", filter.DocumentType)
	addEq("status", string(filter.Status))
	addLike("customer_name", filter.CustomerName)
	addLike("filename", filter.Filename)
	addLike("vin", filter.VIN)
	addLike("license_plate", filter.LicensePlate)
	if filter.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, filter.Year)
	}
	if filter.Month != 0 {
		conds = append(conds, "CAST(strftime('%m', processed_at) AS INTEGER) = ?")
		args = append(args, filter.Month)
	}
	if filter.LegacyOnly {
		conds = append(conds, "is_legacy = 1")
	}

	query := selectDocumentSQL
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	query += "ORDER BY processed_at DESC, id DESC"

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.IndexedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (i *Index) UpdateTargetPath(ctx context.Context, id int64, newPath string) error {
	res, err := i.db.ExecContext(ctx, `
UPDATE documents
SET target_path = ?, last_update = ?
WHERE id = ?
`, newPath, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update target path: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrNotFound, "update target path", fmt.Errorf("document %d", id))
	}
	i.invalidateStats()
	return nil
}

func (i *Index) AddUnclearLegacy(ctx context.Context, entry domain.UnclearLegacyEntry) (int64, error) {
	status := entry.Status
	if status == "" {
		status = domain.UnclearOpen
	}
	res, err := i.db.ExecContext(ctx, `
INSERT INTO unclear_legacy (
	filename, file_path, order_nr, order_date, customer_name, vin, license_plate,
	year, document_type, match_reason, hint, created_at, status
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
`,
		entry.Filename, entry.FilePath, entry.OrderNr, entry.OrderDate, entry.CustomerName,
		entry.VIN, entry.LicensePlate, entry.Year, entry.DocumentType, entry.MatchReason,
		entry.Hint, time.Now().UTC(), status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert unclear legacy: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	i.invalidateStats()
	return id, nil
}

func (i *Index) ListUnclearLegacy(ctx context.Context, status string) ([]domain.UnclearLegacyEntry, error) {
	query := `
SELECT id, filename, file_path, order_nr, order_date, customer_name, vin, license_plate,
	year, document_type, match_reason, hint, created_at, assigned_at, assigned_to_customer_nr, status
FROM unclear_legacy
`
	var args []any
	if status != "" {
		query += "WHERE status = ?\n"
		args = append(args, status)
	}
	query += "ORDER BY created_at DESC, id DESC"

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unclear legacy: %w", err)
	}
	defer rows.Close()

	var entries []domain.UnclearLegacyEntry
	for rows.Next() {
		var e domain.UnclearLegacyEntry
		if err := rows.Scan(
			&e.ID, &e.Filename, &e.FilePath, &e.OrderNr, &e.OrderDate, &e.CustomerName,
			&e.VIN, &e.LicensePlate, &e.Year, &e.DocumentType, &e.MatchReason, &e.Hint,
			&e.CreatedAt, &e.AssignedAt, &e.AssignedTo, &e.Status,
		); err != nil {
			return nil, fmt.Errorf("scan unclear legacy: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (i *Index) AssignUnclearLegacy(ctx context.Context, id int64, customerNr string) error {
	res, err := i.db.ExecContext(ctx, `
UPDATE unclear_legacy
SET status = ?, assigned_to_customer_nr = ?, assigned_at = ?
WHERE id = ? AND status = ?
`, domain.UnclearAssigned, customerNr, time.Now().UTC().Format("2006-01-02 15:04:05"), id, domain.UnclearOpen)
	if err != nil {
		return fmt.Errorf("assign unclear legacy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrNotFound, "assign unclear legacy", fmt.Errorf("open entry %d", id))
	}
	i.invalidateStats()
	return nil
}

func (i *Index) DeleteUnclearLegacy(ctx context.Context, id int64) error {
	res, err := i.db.ExecContext(ctx, `DELETE FROM unclear_legacy WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete unclear legacy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete unclear legacy", fmt.Errorf("entry %d", id))
	}
	i.invalidateStats()
	return nil
}

// GetStatistics serves the cached view when present; the cache lives until the
// next write.
func (i *Index) GetStatistics(ctx context.Context) (domain.Statistics, error) {
	i.statsMu.Lock()
	if i.statsCache != nil {
		stats := *i.statsCache
		i.statsMu.Unlock()
		return stats, nil
	}
	i.statsMu.Unlock()

	stats, err := i.computeStatistics(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}

	i.statsMu.Lock()
	i.statsCache = &stats
	i.statsMu.Unlock()
	return stats, nil
}

func (i *Index) computeStatistics(ctx context.Context) (domain.Statistics, error) {
	stats := domain.Statistics{
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
		ByYear:   make(map[int]int),
	}

	err := i.db.QueryRowContext(ctx, `
SELECT COUNT(*),
	COALESCE(SUM(is_legacy), 0),
	COUNT(DISTINCT customer_nr),
	COUNT(DISTINCT vin),
	COALESCE(AVG(confidence), 0)
FROM documents
`).Scan(&stats.Total, &stats.LegacyCount, &stats.UniqueCustomers, &stats.UniqueVehicles, &stats.AverageConfidence)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("aggregate statistics: %w", err)
	}

	if err := i.countGroups(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`, func(key string, n int) {
		stats.ByStatus[key] = n
	}); err != nil {
		return domain.Statistics{}, err
	}
	if err := i.countGroups(ctx, `SELECT COALESCE(document_type, ''), COUNT(*) FROM documents GROUP BY document_type`, func(key string, n int) {
		if key != "" {
			stats.ByType[key] = n
		}
	}); err != nil {
		return domain.Statistics{}, err
	}

	rows, err := i.db.QueryContext(ctx, `SELECT year, COUNT(*) FROM documents WHERE year IS NOT NULL GROUP BY year`)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("statistics by year: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var year, n int
		if err := rows.Scan(&year, &n); err != nil {
			return domain.Statistics{}, fmt.Errorf("scan year group: %w", err)
		}
		stats.ByYear[year] = n
	}
	if err := rows.Err(); err != nil {
		return domain.Statistics{}, err
	}

	err = i.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM unclear_legacy WHERE status = ?`, domain.UnclearOpen,
	).Scan(&stats.UnclearLegacyOpen)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("count open unclear legacy: %w", err)
	}
	return stats, nil
}

func (i *Index) countGroups(ctx context.Context, query string, add func(key string, n int)) error {
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("statistics group: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan group: %w", err)
		}
		add(key, n)
	}
	return rows.Err()
}

// GetQuickStatistics runs a single aggregate query and bypasses the cache.
func (i *Index) GetQuickStatistics(ctx context.Context) (domain.QuickStatistics, error) {
	var q domain.QuickStatistics
	err := i.db.QueryRowContext(ctx, `
SELECT COUNT(*),
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
	COALESCE(AVG(confidence), 0),
	(SELECT COUNT(*) FROM unclear_legacy WHERE status = ?)
FROM documents
`, string(domain.StatusSuccess), string(domain.StatusUnclear), domain.UnclearOpen).
		Scan(&q.Total, &q.SuccessCount, &q.UnclearCount, &q.AverageConfidence, &q.UnclearLegacyOpen)
	if err != nil {
		return domain.QuickStatistics{}, fmt.Errorf("quick statistics: %w", err)
	}
	return q, nil
}

func (i *Index) invalidateStats() {
	i.statsMu.Lock()
	i.statsCache = nil
	i.statsMu.Unlock()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.IndexedDocument, error) {
	var doc domain.IndexedDocument
	var status string
	var originalPath sql.NullString
	err := row.Scan(
		&doc.ID, &doc.Filename, &originalPath, &doc.TargetPath, &doc.OrderNr, &doc.OrderDate,
		&doc.DocumentType, &doc.Year, &doc.CustomerNr, &doc.CustomerName, &doc.VIN,
		&doc.LicensePlate, &doc.Odometer, &doc.IsLegacy, &doc.MatchReason, &doc.Confidence,
		&status, &doc.Hint, &doc.CreatedAt, &doc.LastUpdate, &doc.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.OriginalPath = originalPath.String
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}
