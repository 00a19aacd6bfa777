// Package org handles persistence of connected org records.
package org

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/database"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

var orgColumns = []string{
	"id", "name", "org_type", "instance_url", "access_token", "refresh_token",
	"api_version", "created_at", "updated_at", "deleted_at",
}

// Repository handles org persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new org repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create registers a new org connection
func (r *Repository) Create(ctx context.Context, req models.CreateOrgRequest) (*models.Org, error) {
	ctx, span := tracing.StartSpan(ctx, "org.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":   "Create",
		"name":     req.Name,
		"org_type": req.OrgType,
	})

	now := time.Now().UTC()
	org := &models.Org{
		ID:           uuid.New().String(),
		Name:         req.Name,
		OrgType:      req.OrgType,
		InstanceURL:  req.InstanceURL,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		APIVersion:   req.APIVersion,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if org.APIVersion == "" {
		org.APIVersion = "v59.0"
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("orgs")
	sb.Cols("id", "name", "org_type", "instance_url", "access_token", "refresh_token", "api_version", "created_at", "updated_at")
	sb.Values(org.ID, org.Name, org.OrgType, org.InstanceURL, org.AccessToken, org.RefreshToken, org.APIVersion, org.CreatedAt, org.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create org")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create org")
	}

	log.WithFields(map[string]any{"id": org.ID}).Info("Created org")
	return org, nil
}

// Get retrieves an org by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Org, error) {
	ctx, span := tracing.StartSpan(ctx, "org.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(orgColumns...)
	sb.From("orgs")
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var org models.Org
	if err := r.db.GetContext(ctx, &org, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("org %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get org")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get org")
	}

	return &org, nil
}

// List retrieves orgs, optionally filtered by type
func (r *Repository) List(ctx context.Context, orgType *string, page, pageSize int) (*models.OrgListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "org.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("orgs")
	countWhere := []string{countSb.IsNull("deleted_at")}
	if orgType != nil {
		countWhere = append(countWhere, countSb.Equal("org_type", *orgType))
	}
	countSb.Where(countWhere...)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count orgs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count orgs")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(orgColumns...)
	sb.From("orgs")
	where := []string{sb.IsNull("deleted_at")}
	if orgType != nil {
		where = append(where, sb.Equal("org_type", *orgType))
	}
	sb.Where(where...)
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var orgs []models.Org
	if err := r.db.SelectContext(ctx, &orgs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list orgs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list orgs")
	}

	return &models.OrgListResponse{
		Items:      orgs,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// UpdateTokens replaces an org's stored credentials after a token refresh
func (r *Repository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	ctx, span := tracing.StartSpan(ctx, "org.Repository.UpdateTokens")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("orgs")
	sb.Set(
		sb.Assign("access_token", accessToken),
		sb.Assign("refresh_token", refreshToken),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update org tokens")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update org tokens")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("org %s not found", id))
	}
	return nil
}

// Delete soft deletes an org
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "org.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("orgs")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete org")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete org")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("org %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted org")
	return nil
}
