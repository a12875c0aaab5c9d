package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/outbox"
	"caseprocessor/pkg/platform/sentinel"
	txcontext "caseprocessor/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PostgresStore persists cases, links and audit events. Every method joins the
// transaction carried in ctx, if any.
type PostgresStore struct {
	db     *sql.DB
	outbox *outbox.PostgresStore
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, outbox: outbox.NewPostgresStore(db)}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

// translate maps driver errors onto sentinels.
func translate(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

const caseColumns = `
	case_id, case_ref, case_type, address_level, address_type, survey, treatment_code,
	collection_exercise_id, action_plan_id, address_line1, address_line2, address_line3,
	town_name, postcode, latitude, longitude, estab_type, organisation_name, uprn,
	estab_uprn, abp_code, arid, estab_arid, region, oa, lsoa, msoa, lad,
	htc_willingness, htc_digital, receipt_received, refusal_received, address_invalid,
	survey_launched, hand_delivery, skeleton, ccs_case, ce_expected_capacity,
	ce_actual_responses, field_coordinator_id, field_officer_id, created_at, last_updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	c := &models.Case{}
	err := row.Scan(
		&c.CaseID, &c.CaseRef, &c.CaseType, &c.AddressLevel, &c.AddressType, &c.Survey, &c.TreatmentCode,
		&c.CollectionExerciseID, &c.ActionPlanID, &c.AddressLine1, &c.AddressLine2, &c.AddressLine3,
		&c.TownName, &c.Postcode, &c.Latitude, &c.Longitude, &c.EstabType, &c.OrganisationName, &c.UPRN,
		&c.EstabUPRN, &c.AbpCode, &c.ARID, &c.EstabARID, &c.Region, &c.OA, &c.LSOA, &c.MSOA, &c.LAD,
		&c.HTCWillingness, &c.HTCDigital, &c.ReceiptReceived, &c.RefusalReceived, &c.AddressInvalid,
		&c.SurveyLaunched, &c.HandDelivery, &c.Skeleton, &c.CCSCase, &c.CeExpectedCapacity,
		&c.CeActualResponses, &c.FieldCoordinatorID, &c.FieldOfficerID, &c.CreatedAt, &c.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func caseArgs(c *models.Case) []any {
	return []any{
		c.CaseID, c.CaseRef, c.CaseType, c.AddressLevel, c.AddressType, c.Survey, c.TreatmentCode,
		c.CollectionExerciseID, c.ActionPlanID, c.AddressLine1, c.AddressLine2, c.AddressLine3,
		c.TownName, c.Postcode, c.Latitude, c.Longitude, c.EstabType, c.OrganisationName, c.UPRN,
		c.EstabUPRN, c.AbpCode, c.ARID, c.EstabARID, c.Region, c.OA, c.LSOA, c.MSOA, c.LAD,
		c.HTCWillingness, c.HTCDigital, c.ReceiptReceived, c.RefusalReceived, c.AddressInvalid,
		c.SurveyLaunched, c.HandDelivery, c.Skeleton, c.CCSCase, c.CeExpectedCapacity,
		c.CeActualResponses, c.FieldCoordinatorID, c.FieldOfficerID, c.CreatedAt, c.LastUpdated,
	}
}

func (s *PostgresStore) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_id = $1`, id)
	c, err := scanCase(row)
	if err != nil {
		return nil, translate(err, "get case "+id.String())
	}
	return c, nil
}

// LockCase reads the case with SELECT ... FOR UPDATE. Call it inside a transaction;
// the lock is held until commit or rollback.
func (s *PostgresStore) LockCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	if _, ok := txcontext.From(ctx); !ok {
		return nil, fmt.Errorf("lock case %s outside a transaction: %w", id, sentinel.ErrInvalidState)
	}
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_id = $1 FOR UPDATE`, id)
	c, err := scanCase(row)
	if err != nil {
		return nil, translate(err, "lock case "+id.String())
	}
	return c, nil
}

func (s *PostgresStore) CaseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE case_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, translate(err, "check case "+id.String())
	}
	return exists, nil
}

func (s *PostgresStore) InsertCase(ctx context.Context, c *models.Case) error {
	query := `INSERT INTO cases (` + caseColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38,
		$39, $40, $41, $42, $43)`
	if _, err := s.execer(ctx).ExecContext(ctx, query, caseArgs(c)...); err != nil {
		return translate(err, "insert case "+c.CaseID.String())
	}
	return nil
}

func (s *PostgresStore) UpdateCase(ctx context.Context, c *models.Case) error {
	query := `
		UPDATE cases SET
			case_ref = $2, case_type = $3, address_level = $4, address_type = $5, survey = $6,
			treatment_code = $7, collection_exercise_id = $8, action_plan_id = $9,
			address_line1 = $10, address_line2 = $11, address_line3 = $12, town_name = $13,
			postcode = $14, latitude = $15, longitude = $16, estab_type = $17,
			organisation_name = $18, uprn = $19, estab_uprn = $20, abp_code = $21, arid = $22,
			estab_arid = $23, region = $24, oa = $25, lsoa = $26, msoa = $27, lad = $28,
			htc_willingness = $29, htc_digital = $30, receipt_received = $31,
			refusal_received = $32, address_invalid = $33, survey_launched = $34,
			hand_delivery = $35, skeleton = $36, ccs_case = $37, ce_expected_capacity = $38,
			ce_actual_responses = $39, field_coordinator_id = $40, field_officer_id = $41,
			created_at = $42, last_updated = $43
		WHERE case_id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, caseArgs(c)...)
	if err != nil {
		return translate(err, "update case "+c.CaseID.String())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case %s: %w", c.CaseID, err)
	}
	if n == 0 {
		return fmt.Errorf("update case %s: %w", c.CaseID, sentinel.ErrNotFound)
	}
	return nil
}

const linkColumns = `id, uac, qid, case_id, active, receipted, blank_questionnaire, ccs_case, created_at, last_updated`

func scanLink(row rowScanner) (*models.UacQidLink, error) {
	l := &models.UacQidLink{}
	err := row.Scan(&l.ID, &l.UAC, &l.QID, &l.CaseID, &l.Active, &l.Receipted,
		&l.BlankQuestionnaire, &l.CCSCase, &l.CreatedAt, &l.LastUpdated)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *PostgresStore) GetLinkByQID(ctx context.Context, qid string) (*models.UacQidLink, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+linkColumns+` FROM uac_qid_link WHERE qid = $1`, qid)
	l, err := scanLink(row)
	if err != nil {
		return nil, translate(err, "get questionnaire "+qid)
	}
	return l, nil
}

func (s *PostgresStore) ListLinksByCase(ctx context.Context, caseID uuid.UUID) ([]*models.UacQidLink, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+linkColumns+` FROM uac_qid_link WHERE case_id = $1 ORDER BY qid`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list questionnaires for case %s: %w", caseID, err)
	}
	defer rows.Close()

	var out []*models.UacQidLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan questionnaire: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questionnaires: %w", err)
	}
	return out, nil
}

// SaveLink inserts the link or updates it by id.
func (s *PostgresStore) SaveLink(ctx context.Context, l *models.UacQidLink) error {
	query := `
		INSERT INTO uac_qid_link (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			uac = EXCLUDED.uac,
			case_id = EXCLUDED.case_id,
			active = EXCLUDED.active,
			receipted = EXCLUDED.receipted,
			blank_questionnaire = EXCLUDED.blank_questionnaire,
			ccs_case = EXCLUDED.ccs_case,
			last_updated = EXCLUDED.last_updated
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		l.ID, l.UAC, l.QID, l.CaseID, l.Active, l.Receipted, l.BlankQuestionnaire, l.CCSCase, l.CreatedAt, l.LastUpdated)
	if err != nil {
		return translate(err, "save questionnaire "+l.QID)
	}
	return nil
}

func (s *PostgresStore) InsertEvent(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO event (
			id, case_id, uac_qid_link_id, event_date, processed_at, event_type,
			event_description, event_channel, event_source, event_transaction_id, event_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		e.ID, e.CaseID, e.UacQidLinkID, e.EventDate, e.ProcessedAt, e.Type,
		e.Description, e.Channel, e.Source, e.TransactionID, string(e.Payload))
	if err != nil {
		return translate(err, "insert event "+e.ID.String())
	}
	return nil
}

// ListEvents returns the audit trail of a case or link, oldest first.
func (s *PostgresStore) ListEvents(ctx context.Context, targetID uuid.UUID) ([]*models.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, case_id, uac_qid_link_id, event_date, processed_at, event_type,
			event_description, event_channel, event_source, event_transaction_id, event_payload
		FROM event
		WHERE case_id = $1 OR uac_qid_link_id = $1
		ORDER BY processed_at, id
	`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", targetID, err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		e := &models.Event{}
		var payload string
		if err := rows.Scan(&e.ID, &e.CaseID, &e.UacQidLinkID, &e.EventDate, &e.ProcessedAt, &e.Type,
			&e.Description, &e.Channel, &e.Source, &e.TransactionID, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendOutbox(ctx context.Context, msg *outbox.Message) error {
	return s.outbox.Append(ctx, msg)
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MaxCaseRef returns the highest case reference issued so far, or 0.
func (s *PostgresStore) MaxCaseRef(ctx context.Context) (int64, error) {
	var ref sql.NullInt64
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT MAX(case_ref) FROM cases`).Scan(&ref); err != nil {
		return 0, fmt.Errorf("read max case reference: %w", err)
	}
	return ref.Int64, nil
}
