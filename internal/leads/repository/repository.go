package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	budgetrepo "homni_backend/internal/budget/repository"
	"homni_backend/internal/leads/domain"
	"homni_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrLeadTaken means another distributor assigned the lead first.
	ErrLeadTaken = errors.New("lead already assigned")
	// ErrBudgetExhausted means the company budget cannot cover the cost.
	ErrBudgetExhausted = budgetrepo.ErrBudgetExhausted
	// ErrStatusConflict means the lead no longer has the status the caller saw.
	ErrStatusConflict = errors.New("lead status changed concurrently")
)

type Repository struct {
	pool       *pgxpool.Pool
	normalizer *domain.Normalizer
}

// New creates the repository. Stored statuses pass through normalizer, so
// legacy rows surface as canonical statuses.
func New(pool *pgxpool.Pool, normalizer *domain.Normalizer) *Repository {
	return &Repository{pool: pool, normalizer: normalizer}
}

const leadColumns = `id, title, description, category, lead_type, status, customer_name, customer_email,
	customer_phone, service_type, submitted_by, company_id, metadata, created_at, updated_at`

func (r *Repository) scanLead(row pgx.Row) (Lead, error) {
	var (
		lead      Lead
		rawStatus string
		metadata  []byte
	)
	err := row.Scan(&lead.ID, &lead.Title, &lead.Description, &lead.Category, &lead.LeadType, &rawStatus,
		&lead.CustomerName, &lead.CustomerEmail, &lead.CustomerPhone, &lead.ServiceType, &lead.SubmittedBy,
		&lead.CompanyID, &metadata, &lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	lead.Status = r.normalizer.Normalize(rawStatus)
	lead.PipelineStage = domain.StatusToPipeline(lead.Status)
	lead.Metadata = map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
			return Lead{}, fmt.Errorf("decode lead metadata: %w", err)
		}
	}
	return lead, nil
}

func (r *Repository) scanLeads(rows pgx.Rows) ([]Lead, error) {
	defer rows.Close()
	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := r.scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	status := params.Status
	if !status.IsCanonical() {
		status = r.normalizer.Normalize(string(status))
	}
	metadata, err := json.Marshal(nonNilMetadata(params.Metadata))
	if err != nil {
		return Lead{}, err
	}

	return r.scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			title, description, category, lead_type, status, pipeline_stage,
			customer_name, customer_email, customer_phone, service_type, submitted_by, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+leadColumns,
		params.Title, params.Description, params.Category, params.LeadType, status, domain.StatusToPipeline(status),
		params.CustomerName, params.CustomerEmail, params.CustomerPhone, params.ServiceType, params.SubmittedBy, metadata,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return r.scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if params.Status != nil {
		add("status = $%d", string(*params.Status))
	}
	if params.Category != "" {
		add("lower(category) = lower($%d)", params.Category)
	}
	if params.CompanyID != nil {
		add("company_id = $%d", *params.CompanyID)
	}
	if params.SubmittedBy != nil {
		add("submitted_by = $%d", *params.SubmittedBy)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, whereSQL, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListUnassigned returns the oldest new leads without a company.
func (r *Repository) ListUnassigned(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = 'new' AND company_id IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return r.scanLeads(rows)
}

// ListCandidates returns companies tagged with the category, in selection
// order: never-assigned first, then least recently assigned, then by id.
func (r *Repository) ListCandidates(ctx context.Context, category string) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, status, tags, contact_email, distribution_paused, last_assigned_at
		FROM company_profiles
		WHERE EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = lower($1))
		ORDER BY last_assigned_at ASC NULLS FIRST, id ASC
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Candidate, 0)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.CompanyID, &c.Name, &c.Status, &c.Tags, &c.ContactEmail, &c.DistributionPaused, &c.LastAssignedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *Repository) ListAssignedCompanyIDs(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT company_id FROM lead_assignments WHERE lead_id = $1`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AssignToCompany assigns a new, unassigned lead and debits the company in
// one transaction. ErrLeadTaken and ErrBudgetExhausted leave nothing behind.
func (r *Repository) AssignToCompany(ctx context.Context, params AssignParams) (Lead, error) {
	var lead Lead
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		lead, err = r.scanLead(tx.QueryRow(ctx, `
			UPDATE leads SET status = $3, pipeline_stage = $4, company_id = $2, updated_at = now()
			WHERE id = $1 AND status = 'new' AND company_id IS NULL
			RETURNING `+leadColumns,
			params.LeadID, params.CompanyID, domain.StatusAssigned, domain.StatusToPipeline(domain.StatusAssigned)))
		if errors.Is(err, ErrNotFound) {
			return ErrLeadTaken
		}
		if err != nil {
			return err
		}

		leadID := params.LeadID
		if err := budgetrepo.Debit(ctx, tx, budgetrepo.SpendParams{
			CompanyID: params.CompanyID,
			LeadID:    &leadID,
			Amount:    params.Cost,
			Kind:      budgetrepo.KindLeadAssignment,
			Today:     params.Today,
		}); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_assignments (lead_id, company_id, cost) VALUES ($1, $2, $3)
		`, params.LeadID, params.CompanyID, params.Cost); err != nil {
			return err
		}

		if err := insertStatusChange(ctx, tx, params.LeadID, domain.StatusNew, domain.StatusAssigned, nil); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE company_profiles SET last_assigned_at = now() WHERE id = $1`, params.CompanyID)
		return err
	})
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// UpdateStatus moves a lead from params.From to params.To. The write only
// applies if the lead still has the status the caller observed.
func (r *Repository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (Lead, error) {
	var lead Lead
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		lead, err = r.scanLead(tx.QueryRow(ctx, `
			UPDATE leads SET status = $3, pipeline_stage = $4, updated_at = now()
			WHERE id = $1 AND status = $2
			RETURNING `+leadColumns,
			params.LeadID, params.From, params.To, domain.StatusToPipeline(params.To)))
		if errors.Is(err, ErrNotFound) {
			return ErrStatusConflict
		}
		if err != nil {
			return err
		}

		actorID := params.ActorID
		return insertStatusChange(ctx, tx, params.LeadID, params.From, params.To, &actorID)
	})
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func insertStatusChange(ctx context.Context, q db.Querier, leadID uuid.UUID, from, to domain.Status, actorID *uuid.UUID) error {
	_, err := q.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status, actor_id)
		VALUES ($1, $2, $3, $4)
	`, leadID, from, to, actorID)
	return err
}

func (r *Repository) ListStatusHistory(ctx context.Context, leadID uuid.UUID) ([]StatusChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, from_status, to_status, actor_id, created_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StatusChange, 0)
	for rows.Next() {
		var (
			c        StatusChange
			from, to string
		)
		if err := rows.Scan(&c.ID, &c.LeadID, &from, &to, &c.ActorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.FromStatus = r.normalizer.Normalize(from)
		c.ToStatus = r.normalizer.Normalize(to)
		items = append(items, c)
	}
	return items, rows.Err()
}

// GetContactGrant returns the stored grant, or nil when none exists.
func (r *Repository) GetContactGrant(ctx context.Context, leadID, companyID uuid.UUID) (*ContactGrant, error) {
	var (
		g     ContactGrant
		level string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT lead_id, company_id, level, purchased_at, expires_at
		FROM lead_contact_grants
		WHERE lead_id = $1 AND company_id = $2
	`, leadID, companyID).Scan(&g.LeadID, &g.CompanyID, &level, &g.PurchasedAt, &g.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	g.Level, err = domain.ParseAccessLevel(level)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// PurchaseContactAccess debits the price and upserts the grant together.
func (r *Repository) PurchaseContactAccess(ctx context.Context, params PurchaseParams) (ContactGrant, error) {
	var g ContactGrant
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		leadID := params.LeadID
		if err := budgetrepo.Debit(ctx, tx, budgetrepo.SpendParams{
			CompanyID: params.CompanyID,
			LeadID:    &leadID,
			Amount:    params.Price,
			Kind:      budgetrepo.KindContactPurchase,
			Today:     params.Today,
		}); err != nil {
			return err
		}

		var level string
		err := tx.QueryRow(ctx, `
			INSERT INTO lead_contact_grants (lead_id, company_id, level, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (lead_id, company_id) DO UPDATE SET
				level = EXCLUDED.level,
				purchased_at = now(),
				expires_at = EXCLUDED.expires_at
			RETURNING lead_id, company_id, level, purchased_at, expires_at
		`, params.LeadID, params.CompanyID, params.Level, params.ExpiresAt).
			Scan(&g.LeadID, &g.CompanyID, &level, &g.PurchasedAt, &g.ExpiresAt)
		if err != nil {
			return err
		}
		g.Level = domain.AccessLevel(level)
		return nil
	})
	if err != nil {
		return ContactGrant{}, err
	}
	return g, nil
}

// CompanyMatchesCategory reports whether an active company carries the tag.
func (r *Repository) CompanyMatchesCategory(ctx context.Context, companyID uuid.UUID, category string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM company_profiles
			WHERE id = $1 AND status = 'active'
				AND EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = lower($2))
		)
	`, companyID, category).Scan(&ok)
	return ok, err
}

// LinkAnonymousLeads attaches leads submitted without an account to the user
// owning the e-mail address. Returns the number of linked leads.
func (r *Repository) LinkAnonymousLeads(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET submitted_by = $1, updated_at = now()
		WHERE submitted_by IS NULL AND lower(customer_email) = lower($2)
	`, userID, email)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func nonNilMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// ListNonCanonicalStatuses returns the distinct stored status values, in leads
// and in the status history, that are outside the canonical set.
func (r *Repository) ListNonCanonicalStatuses(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status FROM leads WHERE status <> ALL($1::text[])
		UNION
		SELECT from_status FROM lead_status_history WHERE from_status <> ALL($1::text[])
		UNION
		SELECT to_status FROM lead_status_history WHERE to_status <> ALL($1::text[])
	`, canonicalStatusValues())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// RewriteStatus replaces every stored occurrence of raw with status and
// returns the number of leads changed.
func (r *Repository) RewriteStatus(ctx context.Context, raw string, status domain.Status) (int64, error) {
	var changed int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE leads SET status = $2, pipeline_stage = $3 WHERE status = $1
		`, raw, status, domain.StatusToPipeline(status))
		if err != nil {
			return err
		}
		changed = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `UPDATE lead_status_history SET from_status = $2 WHERE from_status = $1`, raw, status); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE lead_status_history SET to_status = $2 WHERE to_status = $1`, raw, status)
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func canonicalStatusValues() []string {
	values := make([]string, len(domain.AllStatuses))
	for i, s := range domain.AllStatuses {
		values[i] = string(s)
	}
	return values
}
