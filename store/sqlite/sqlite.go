/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements lease.ContractStore plus the auxiliary partner, calendar
  event, and settlement round tables. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  contracts:          One row per lease contract. The daily deduction
                      schedule is stored inline as a JSON column
                      (daily_deductions); it is a sparse record of
                      payment history, re-materialized on every load.
  partners:           Pricing sources; price_list is a JSON column.
  events:             Plain calendar events.
  settlement_rounds:  Creditor settlement rounds.

CONTRACT NUMBER ALLOCATION:
  The human-facing contract number is allocated inside the insert
  transaction (max + 1) and guarded by a UNIQUE index. A concurrent
  creation that loses the race gets lease.ErrDuplicateContractNumber -
  a loud, retryable conflict instead of a silent duplicate. Numbers are
  monotonic; a failed retry may leave a gap.

MONEY AND DATES:
  Money is stored as exact decimal text, never floating point. Dates are
  stored as YYYY-MM-DD text and parsed strictly on load; a malformed date
  in storage is an error, not a silently shifted schedule.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time.

SEE ALSO:
  - lease/store.go: interface definition
  - lease/store/memory.go: in-memory implementation for pure-core tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/pricing"
)

// Store implements lease.ContractStore and the auxiliary CRUD tables.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		contract_number INTEGER NOT NULL,
		partner_id TEXT,
		device_name TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		contract_date TEXT NOT NULL,
		execution_date TEXT,
		expiry_date TEXT,
		duration_days INTEGER NOT NULL DEFAULT 0,
		total_amount TEXT NOT NULL DEFAULT '0',
		daily_deduction TEXT NOT NULL DEFAULT '0',
		units_required INTEGER NOT NULL DEFAULT 1,
		units_secured INTEGER NOT NULL DEFAULT 0,
		daily_deductions TEXT,
		status TEXT NOT NULL,
		shipping_status TEXT NOT NULL DEFAULT 'preparing',
		shipping_date TEXT,
		shipping_company TEXT NOT NULL DEFAULT '',
		tracking_number TEXT NOT NULL DEFAULT '',
		procurement_status TEXT NOT NULL DEFAULT 'unsecured',
		procurement_source TEXT NOT NULL DEFAULT '',
		procurement_cost TEXT NOT NULL DEFAULT '0',
		lessee_name TEXT NOT NULL DEFAULT '',
		lessee_contact TEXT NOT NULL DEFAULT '',
		lessee_business_number TEXT NOT NULL DEFAULT '',
		distributor_name TEXT NOT NULL DEFAULT '',
		distributor_contact TEXT NOT NULL DEFAULT '',
		manager_name TEXT NOT NULL DEFAULT '',
		settlement_round INTEGER NOT NULL DEFAULT 0,
		settlement_status TEXT NOT NULL,
		is_lessee_contract_signed INTEGER NOT NULL DEFAULT 0,
		settlement_request_date TEXT,
		settlement_date TEXT,
		settlement_document_url TEXT NOT NULL DEFAULT '',
		contract_file_url TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Loud conflict on concurrent number allocation instead of a silent
	-- duplicate.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_contracts_number
		ON contracts(contract_number);
	CREATE INDEX IF NOT EXISTS idx_contracts_partner
		ON contracts(partner_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_settlement_round
		ON contracts(settlement_round);

	CREATE TABLE IF NOT EXISTS partners (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		business_number TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		price_list TEXT,
		is_template INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		user TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);

	CREATE TABLE IF NOT EXISTS settlement_rounds (
		id TEXT PRIMARY KEY,
		round_number INTEGER NOT NULL UNIQUE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACTS - lease.ContractStore
// =============================================================================

const contractColumns = `id, contract_number, partner_id, device_name, color,
	contract_date, execution_date, expiry_date, duration_days,
	total_amount, daily_deduction, units_required, units_secured,
	daily_deductions, status,
	shipping_status, shipping_date, shipping_company, tracking_number,
	procurement_status, procurement_source, procurement_cost,
	lessee_name, lessee_contact, lessee_business_number,
	distributor_name, distributor_contact, manager_name,
	settlement_round, settlement_status, is_lessee_contract_signed,
	settlement_request_date, settlement_date, settlement_document_url,
	contract_file_url`

func (s *Store) ListContracts(ctx context.Context) ([]lease.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contractColumns+` FROM contracts
		 ORDER BY contract_date DESC, contract_number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lease.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetContract(ctx context.Context, id string) (*lease.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	c, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, lease.ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertContract allocates contract_number = max + 1 inside the insert
// transaction. The unique index turns a lost race into a retryable
// conflict.
func (s *Store) InsertContract(ctx context.Context, c lease.Contract) (lease.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lease.Contract{}, err
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(contract_number), 0) + 1 FROM contracts`).Scan(&next); err != nil {
		return lease.Contract{}, err
	}
	c.ContractNumber = next

	schedule, err := marshalSchedule(c.Deductions)
	if err != nil {
		return lease.Contract{}, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contracts (`+contractColumns+`, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.ContractNumber, c.PartnerID, c.DeviceName, c.Color,
		c.ContractDate.String(), nullDate(c.ExecutionDate), nullDate(c.ExpiryDate), c.DurationDays,
		c.TotalAmount.String(), c.DailyDeduction.String(), c.UnitsRequired, c.UnitsSecured,
		schedule, string(c.Status),
		string(c.ShippingStatus), nullDate(c.ShippingDate), c.ShippingCompany, c.TrackingNumber,
		string(c.ProcurementStatus), c.ProcurementSource, c.ProcurementCost.String(),
		c.LesseeName, c.LesseeContact, c.LesseeBusinessNumber,
		c.DistributorName, c.DistributorContact, c.ManagerName,
		c.SettlementRound, string(c.SettlementStatus), boolToInt(c.IsLesseeContractSigned),
		nullDate(c.SettlementRequestDate), nullDate(c.SettlementDate), c.SettlementDocumentURL,
		c.ContractFileURL,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "contracts.contract_number") ||
			strings.Contains(err.Error(), "idx_contracts_number") {
			return lease.Contract{}, lease.ErrDuplicateContractNumber
		}
		return lease.Contract{}, err
	}

	if err := tx.Commit(); err != nil {
		return lease.Contract{}, err
	}
	return c, nil
}

func (s *Store) UpdateContract(ctx context.Context, c lease.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := marshalSchedule(c.Deductions)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE contracts SET
			partner_id = ?, device_name = ?, color = ?,
			contract_date = ?, execution_date = ?, expiry_date = ?, duration_days = ?,
			total_amount = ?, daily_deduction = ?, units_required = ?, units_secured = ?,
			daily_deductions = ?, status = ?,
			shipping_status = ?, shipping_date = ?, shipping_company = ?, tracking_number = ?,
			procurement_status = ?, procurement_source = ?, procurement_cost = ?,
			lessee_name = ?, lessee_contact = ?, lessee_business_number = ?,
			distributor_name = ?, distributor_contact = ?, manager_name = ?,
			settlement_round = ?, settlement_status = ?, is_lessee_contract_signed = ?,
			settlement_request_date = ?, settlement_date = ?, settlement_document_url = ?,
			contract_file_url = ?
		 WHERE id = ?`,
		c.PartnerID, c.DeviceName, c.Color,
		c.ContractDate.String(), nullDate(c.ExecutionDate), nullDate(c.ExpiryDate), c.DurationDays,
		c.TotalAmount.String(), c.DailyDeduction.String(), c.UnitsRequired, c.UnitsSecured,
		schedule, string(c.Status),
		string(c.ShippingStatus), nullDate(c.ShippingDate), c.ShippingCompany, c.TrackingNumber,
		string(c.ProcurementStatus), c.ProcurementSource, c.ProcurementCost.String(),
		c.LesseeName, c.LesseeContact, c.LesseeBusinessNumber,
		c.DistributorName, c.DistributorContact, c.ManagerName,
		c.SettlementRound, string(c.SettlementStatus), boolToInt(c.IsLesseeContractSigned),
		nullDate(c.SettlementRequestDate), nullDate(c.SettlementDate), c.SettlementDocumentURL,
		c.ContractFileURL,
		c.ID)
	if err != nil {
		return err
	}
	return checkAffected(res, lease.ErrContractNotFound)
}

func (s *Store) DeleteContract(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, lease.ErrContractNotFound)
}

func (s *Store) SaveDeductions(ctx context.Context, contractID string, schedule []lease.DeductionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := marshalSchedule(schedule)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE contracts SET daily_deductions = ? WHERE id = ?`, blob, contractID)
	if err != nil {
		return err
	}
	return checkAffected(res, lease.ErrContractNotFound)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (lease.Contract, error) {
	var (
		c                                     lease.Contract
		partnerID                             sql.NullString
		contractDate                          string
		executionDate, expiryDate             sql.NullString
		totalAmount, dailyDeduction, procCost string
		scheduleJSON                          sql.NullString
		status, shippingStatus, procStatus    string
		shippingDate                          sql.NullString
		settlementStatus                      string
		signed                                int
		requestDate, settleDate               sql.NullString
	)

	err := row.Scan(
		&c.ID, &c.ContractNumber, &partnerID, &c.DeviceName, &c.Color,
		&contractDate, &executionDate, &expiryDate, &c.DurationDays,
		&totalAmount, &dailyDeduction, &c.UnitsRequired, &c.UnitsSecured,
		&scheduleJSON, &status,
		&shippingStatus, &shippingDate, &c.ShippingCompany, &c.TrackingNumber,
		&procStatus, &c.ProcurementSource, &procCost,
		&c.LesseeName, &c.LesseeContact, &c.LesseeBusinessNumber,
		&c.DistributorName, &c.DistributorContact, &c.ManagerName,
		&c.SettlementRound, &settlementStatus, &signed,
		&requestDate, &settleDate, &c.SettlementDocumentURL,
		&c.ContractFileURL)
	if err != nil {
		return lease.Contract{}, err
	}

	c.PartnerID = partnerID.String
	c.Status = lease.ContractStatus(status)
	c.ShippingStatus = lease.ShippingStatus(shippingStatus)
	c.ProcurementStatus = lease.ProcurementStatus(procStatus)
	c.SettlementStatus = lease.SettlementStatus(settlementStatus)
	c.IsLesseeContractSigned = signed != 0

	if c.ContractDate, err = lease.ParseDate(contractDate); err != nil {
		return lease.Contract{}, err
	}
	if c.ExecutionDate, err = parseNullDate(executionDate); err != nil {
		return lease.Contract{}, err
	}
	if c.ExpiryDate, err = parseNullDate(expiryDate); err != nil {
		return lease.Contract{}, err
	}
	if c.ShippingDate, err = parseNullDate(shippingDate); err != nil {
		return lease.Contract{}, err
	}
	if c.SettlementRequestDate, err = parseNullDate(requestDate); err != nil {
		return lease.Contract{}, err
	}
	if c.SettlementDate, err = parseNullDate(settleDate); err != nil {
		return lease.Contract{}, err
	}

	if c.TotalAmount, err = parseMoney(totalAmount); err != nil {
		return lease.Contract{}, err
	}
	if c.DailyDeduction, err = parseMoney(dailyDeduction); err != nil {
		return lease.Contract{}, err
	}
	if c.ProcurementCost, err = parseMoney(procCost); err != nil {
		return lease.Contract{}, err
	}

	if scheduleJSON.Valid && scheduleJSON.String != "" {
		if err := json.Unmarshal([]byte(scheduleJSON.String), &c.Deductions); err != nil {
			return lease.Contract{}, fmt.Errorf("malformed deduction schedule for contract %s: %w", c.ID, err)
		}
	}

	return c, nil
}

// =============================================================================
// PARTNERS
// =============================================================================

func (s *Store) ListPartners(ctx context.Context) ([]pricing.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, business_number, address, price_list, is_template
		 FROM partners ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPartner(ctx context.Context, id string) (*pricing.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, business_number, address, price_list, is_template
		 FROM partners WHERE id = ?`, id)
	p, err := scanPartner(row)
	if err == sql.ErrNoRows {
		return nil, lease.ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SavePartner(ctx context.Context, p pricing.Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	priceList, err := json.Marshal(p.PriceList)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO partners (id, name, business_number, address, price_list, is_template, created_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			business_number = excluded.business_number,
			address = excluded.address,
			price_list = excluded.price_list,
			is_template = excluded.is_template`,
		p.ID, p.Name, p.BusinessNumber, p.Address, string(priceList),
		boolToInt(p.IsTemplate), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeletePartner(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM partners WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, lease.ErrPartnerNotFound)
}

func scanPartner(row scanner) (pricing.Partner, error) {
	var (
		p          pricing.Partner
		priceList  sql.NullString
		isTemplate int
	)
	if err := row.Scan(&p.ID, &p.Name, &p.BusinessNumber, &p.Address, &priceList, &isTemplate); err != nil {
		return pricing.Partner{}, err
	}
	p.IsTemplate = isTemplate != 0
	if priceList.Valid && priceList.String != "" {
		if err := json.Unmarshal([]byte(priceList.String), &p.PriceList); err != nil {
			return pricing.Partner{}, fmt.Errorf("malformed price list for partner %s: %w", p.ID, err)
		}
	}
	return p, nil
}

// =============================================================================
// CALENDAR EVENTS
// =============================================================================

// Event is a plain calendar entry. No computed state.
type Event struct {
	ID    string
	Title string
	Date  lease.Date
	User  string
	Color string
}

func (s *Store) ListEvents(ctx context.Context, from, to *lease.Date) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, title, date, user, color FROM events`
	var args []any
	if from != nil && to != nil {
		query += ` WHERE date >= ? AND date <= ?`
		args = append(args, from.String(), to.String())
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e    Event
			date string
		)
		if err := rows.Scan(&e.ID, &e.Title, &date, &e.User, &e.Color); err != nil {
			return nil, err
		}
		if e.Date, err = lease.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SaveEvent(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, date, user, color, created_at)
		 VALUES (?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			user = excluded.user,
			color = excluded.color`,
		e.ID, e.Title, e.Date.String(), e.User, e.Color,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, lease.ErrEventNotFound)
}

// =============================================================================
// SETTLEMENT ROUNDS
// =============================================================================

// SettlementRound groups contracts for creditor settlement by round
// number. The round's daily total is computed live from its contracts,
// never stored.
type SettlementRound struct {
	ID          string
	RoundNumber int
	StartDate   lease.Date
	EndDate     lease.Date
}

func (s *Store) ListSettlementRounds(ctx context.Context) ([]SettlementRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, round_number, start_date, end_date
		 FROM settlement_rounds ORDER BY round_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SettlementRound
	for rows.Next() {
		var (
			r          SettlementRound
			start, end string
		)
		if err := rows.Scan(&r.ID, &r.RoundNumber, &start, &end); err != nil {
			return nil, err
		}
		if r.StartDate, err = lease.ParseDate(start); err != nil {
			return nil, err
		}
		if r.EndDate, err = lease.ParseDate(end); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SaveSettlementRound(ctx context.Context, r SettlementRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlement_rounds (id, round_number, start_date, end_date, created_at)
		 VALUES (?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
			round_number = excluded.round_number,
			start_date = excluded.start_date,
			end_date = excluded.end_date`,
		r.ID, r.RoundNumber, r.StartDate.String(), r.EndDate.String(),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteSettlementRound(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM settlement_rounds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, lease.ErrRoundNotFound)
}

// =============================================================================
// HELPERS
// =============================================================================

func marshalSchedule(schedule []lease.DeductionLog) (string, error) {
	if schedule == nil {
		return "[]", nil
	}
	b, err := json.Marshal(schedule)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullDate(d *lease.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNullDate(ns sql.NullString) (*lease.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := lease.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseMoney(s string) (lease.Money, error) {
	if s == "" {
		return lease.Zero(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return lease.Money{}, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	return lease.Money{Value: d}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
