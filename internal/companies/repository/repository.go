package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	budgetrepo "homni_backend/internal/budget/repository"
	"homni_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("company not found")
	// ErrAlreadyMember means the user already belongs to a company.
	ErrAlreadyMember = errors.New("user already belongs to a company")
)

const uniqueViolation = "23505"

type Company struct {
	ID                 uuid.UUID
	Name               string
	Status             string
	UserID             uuid.UUID
	Tags               []string
	ContactName        *string
	ContactEmail       *string
	ContactPhone       *string
	Industry           *string
	SubscriptionPlan   string
	ModulesAccess      []string
	Metadata           map[string]any
	DistributionPaused bool
	LastAssignedAt     *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CreateParams struct {
	Name         string
	UserID       uuid.UUID
	Tags         []string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Industry     *string
	Metadata     map[string]any
}

// UpdateParams holds optional changes; nil fields keep the stored value.
type UpdateParams struct {
	Name         *string
	Tags         []string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Industry     *string
	Metadata     map[string]any
}

type ListParams struct {
	Status string
	Tag    string
	Search string
	Offset int
	Limit  int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyColumns = `c.id, c.name, c.status, c.user_id, c.tags, c.contact_name, c.contact_email, c.contact_phone,
	c.industry, c.subscription_plan, c.modules_access, c.metadata, c.distribution_paused, c.last_assigned_at,
	c.created_at, c.updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var (
		c        Company
		metadata []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.UserID, &c.Tags, &c.ContactName, &c.ContactEmail, &c.ContactPhone,
		&c.Industry, &c.SubscriptionPlan, &c.ModulesAccess, &metadata, &c.DistributionPaused, &c.LastAssignedAt,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	if err != nil {
		return Company{}, err
	}
	c.Metadata = map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return Company{}, fmt.Errorf("decode company metadata: %w", err)
		}
	}
	return c, nil
}

// Create registers a company owned by params.UserID. The owner becomes the
// first member and an empty budget row is created in the same transaction.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Company, error) {
	metadata, err := json.Marshal(nonNil(params.Metadata))
	if err != nil {
		return Company{}, err
	}

	var company Company
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := scanCompany(tx.QueryRow(ctx, `
			INSERT INTO company_profiles AS c (name, user_id, tags, contact_name, contact_email, contact_phone, industry, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+companyColumns,
			params.Name, params.UserID, params.Tags, params.ContactName, params.ContactEmail, params.ContactPhone,
			params.Industry, metadata))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO company_members (company_id, user_id) VALUES ($1, $2)`, c.ID, params.UserID); err != nil {
			return err
		}
		if err := budgetrepo.Ensure(ctx, tx, c.ID); err != nil {
			return err
		}
		company = c
		return nil
	})
	if isUniqueViolation(err) {
		return Company{}, ErrAlreadyMember
	}
	return company, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Company, error) {
	return scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM company_profiles c WHERE c.id = $1`, id))
}

// GetByMember returns the company userID belongs to.
func (r *Repository) GetByMember(ctx context.Context, userID uuid.UUID) (Company, error) {
	return scanCompany(r.pool.QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM company_profiles c
		JOIN company_members m ON m.company_id = c.id
		WHERE m.user_id = $1`, userID))
}

// CompanyIDForUser returns nil when the user is not a member of any company.
func (r *Repository) CompanyIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT company_id FROM company_members WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *Repository) AddMember(ctx context.Context, companyID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO company_members (company_id, user_id) VALUES ($1, $2)`, companyID, userID)
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	return err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Company, error) {
	var metadata []byte
	if params.Metadata != nil {
		encoded, err := json.Marshal(params.Metadata)
		if err != nil {
			return Company{}, err
		}
		metadata = encoded
	}

	return scanCompany(r.pool.QueryRow(ctx, `
		UPDATE company_profiles AS c SET
			name = COALESCE($2, name),
			tags = COALESCE($3, tags),
			contact_name = COALESCE($4, contact_name),
			contact_email = COALESCE($5, contact_email),
			contact_phone = COALESCE($6, contact_phone),
			industry = COALESCE($7, industry),
			metadata = COALESCE($8::jsonb, metadata),
			updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns,
		id, params.Name, params.Tags, params.ContactName, params.ContactEmail, params.ContactPhone, params.Industry, metadata))
}

func (r *Repository) SetDistributionPaused(ctx context.Context, id uuid.UUID, paused bool) (Company, error) {
	return scanCompany(r.pool.QueryRow(ctx, `
		UPDATE company_profiles AS c SET distribution_paused = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns, id, paused))
}

func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) (Company, error) {
	return scanCompany(r.pool.QueryRow(ctx, `
		UPDATE company_profiles AS c SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns, id, status))
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Company, int, error) {
	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if params.Status != "" {
		add("c.status = $%d", params.Status)
	}
	if params.Tag != "" {
		add("EXISTS (SELECT 1 FROM unnest(c.tags) t WHERE lower(t) = lower($%d))", params.Tag)
	}
	if params.Search != "" {
		add("c.name ILIKE '%%' || $%d || '%%'", params.Search)
	}
	filter := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM company_profiles c WHERE `+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM company_profiles c
		WHERE %s
		ORDER BY c.name, c.id
		LIMIT $%d OFFSET $%d`, companyColumns, filter, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
