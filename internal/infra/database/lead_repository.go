package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/leadfeed/internal/entity"
)

const leadColumns = `id, first_name, last_name, email, phone, title, company,
	linkedin_url, company_website, stage, snoozed_until, source, campaign_name,
	getsales_uuid, created_at, updated_at, last_activity`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, first_name, last_name, email, phone, title, company,
			linkedin_url, company_website, stage, snoozed_until, source, campaign_name,
			getsales_uuid, created_at, updated_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.FirstName,
		lead.LastName,
		nullString(lead.Email),
		nullString(lead.Phone),
		nullString(lead.Title),
		nullString(lead.Company),
		nullString(lead.LinkedInURL),
		nullString(lead.CompanyWebsite),
		string(lead.Stage),
		nullTime(lead.SnoozedUntil),
		nullString(lead.Source),
		nullString(lead.CampaignName),
		nullString(lead.GetSalesUUID),
		lead.CreatedAt,
		lead.UpdatedAt,
		lead.LastActivity,
	)
	return err
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	return r.findOne(ctx, "SELECT "+leadColumns+" FROM leads WHERE id = $1", id)
}

func (r *LeadRepository) FindByLinkedInURL(ctx context.Context, url string) (*entity.Lead, error) {
	return r.findOne(ctx, "SELECT "+leadColumns+" FROM leads WHERE linkedin_url = $1 LIMIT 1", url)
}

func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	return r.findOne(ctx, "SELECT "+leadColumns+" FROM leads WHERE email = $1 LIMIT 1", email)
}

func (r *LeadRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Lead, error) {
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// List applies the stage filter with view-time snooze reclassification:
// lead_feed includes expired snoozes, snoozed excludes them. Ordering
// follows the dashboard: snoozed by wake time, the feed by recency of
// activity, everything else by update time.
func (r *LeadRepository) List(ctx context.Context, stage *entity.LeadStage, now time.Time) ([]*entity.Lead, error) {
	query := "SELECT " + leadColumns + " FROM leads"
	var args []any

	if stage != nil {
		switch *stage {
		case entity.StageLeadFeed:
			query += ` WHERE stage = 'lead_feed'
				OR (stage = 'snoozed' AND snoozed_until IS NOT NULL AND snoozed_until <= $1)
				ORDER BY last_activity DESC`
			args = append(args, now)
		case entity.StageSnoozed:
			query += ` WHERE stage = 'snoozed' AND snoozed_until > $1 ORDER BY snoozed_until ASC`
			args = append(args, now)
		default:
			query += ` WHERE stage = $1 ORDER BY updated_at DESC`
			args = append(args, string(*stage))
		}
	} else {
		query += ` ORDER BY updated_at DESC`
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// CountByStage counts leads per effective stage: an expired snooze counts
// toward lead_feed without being rewritten.
func (r *LeadRepository) CountByStage(ctx context.Context, now time.Time) (map[entity.LeadStage]int, error) {
	query := `
		SELECT
			CASE WHEN stage = 'snoozed' AND snoozed_until IS NOT NULL AND snoozed_until <= $1
				THEN 'lead_feed' ELSE stage END AS effective_stage,
			COUNT(*)
		FROM leads
		GROUP BY 1
	`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[entity.LeadStage]int{
		entity.StageLeadFeed:      0,
		entity.StageSnoozed:       0,
		entity.StageMeetingBooked: 0,
		entity.StageClosedWon:     0,
		entity.StageClosedLost:    0,
	}
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		if s := entity.LeadStage(stage); s.Valid() {
			counts[s] += n
		}
	}
	return counts, rows.Err()
}

// Update applies a partial update and returns the fresh row. updated_at is
// always refreshed.
func (r *LeadRepository) Update(ctx context.Context, id string, update entity.LeadUpdate) (*entity.Lead, error) {
	sets := []string{"updated_at = NOW()"}
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.Phone != nil {
		add("phone", *update.Phone)
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Company != nil {
		add("company", *update.Company)
	}
	if update.LinkedInURL != nil {
		add("linkedin_url", *update.LinkedInURL)
	}
	if update.CompanyWebsite != nil {
		add("company_website", *update.CompanyWebsite)
	}
	if update.CampaignName != nil {
		add("campaign_name", *update.CampaignName)
	}
	if update.GetSalesUUID != nil {
		add("getsales_uuid", *update.GetSalesUUID)
	}
	if update.LastActivity != nil {
		add("last_activity", *update.LastActivity)
	}
	if update.Stage != nil {
		add("stage", string(*update.Stage))
	}
	if update.SnoozedUntil != nil {
		add("snoozed_until", *update.SnoozedUntil)
	} else if update.ClearSnooze {
		sets = append(sets, "snoozed_until = NULL")
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE leads SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), leadColumns,
	)

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// PromoteExpired opportunistically persists the view-time promotion of
// expired snoozes so it is not recomputed forever.
func (r *LeadRepository) PromoteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads
		SET stage = 'lead_feed', snoozed_until = NULL, updated_at = NOW()
		WHERE stage = 'snoozed' AND snoozed_until IS NOT NULL AND snoozed_until <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *LeadRepository) TouchActivity(ctx context.Context, id string, activity time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE leads SET last_activity = $1, updated_at = NOW() WHERE id = $2
	`, activity, id)
	return err
}

func (r *LeadRepository) SetGetSalesUUID(ctx context.Context, id, uuid string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE leads SET getsales_uuid = $1, updated_at = NOW() WHERE id = $2
	`, uuid, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead         entity.Lead
		email        sql.NullString
		phone        sql.NullString
		title        sql.NullString
		company      sql.NullString
		linkedinURL  sql.NullString
		website      sql.NullString
		snoozedUntil sql.NullTime
		source       sql.NullString
		campaign     sql.NullString
		getsalesUUID sql.NullString
		stage        string
	)

	err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &email, &phone, &title,
		&company, &linkedinURL, &website, &stage, &snoozedUntil, &source,
		&campaign, &getsalesUUID, &lead.CreatedAt, &lead.UpdatedAt, &lead.LastActivity,
	)
	if err != nil {
		return nil, err
	}

	lead.Stage = entity.LeadStage(stage)
	lead.Email = fromNullString(email)
	lead.Phone = fromNullString(phone)
	lead.Title = fromNullString(title)
	lead.Company = fromNullString(company)
	lead.LinkedInURL = fromNullString(linkedinURL)
	lead.CompanyWebsite = fromNullString(website)
	lead.Source = fromNullString(source)
	lead.CampaignName = fromNullString(campaign)
	lead.GetSalesUUID = fromNullString(getsalesUUID)
	if snoozedUntil.Valid {
		t := snoozedUntil.Time
		lead.SnoozedUntil = &t
	}
	return &lead, nil
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
