// Package org exposes the org connection management endpoints.
package org

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	orgrepo "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/internal/repositories/org"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/utils"
)

// Register registers org routes
func Register(g *echo.Group) {
	g.POST("", CreateOrg)
	g.GET("", ListOrgs)
	g.GET("/:id", GetOrg)
	g.DELETE("/:id", DeleteOrg)
	g.POST("/:id/ping", PingOrg)
}

// CreateOrg registers a new org connection
func CreateOrg(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.CreateOrgRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*orgrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "org repository not available")
	}

	org, err := repo.Create(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, org)
}

// ListOrgs returns connected orgs, optionally filtered by type
func ListOrgs(c echo.Context) error {
	ctx := c.Request().Context()

	var orgType *string
	if t := c.QueryParam("org_type"); t != "" {
		if t != models.OrgTypeSource && t != models.OrgTypeTarget {
			return httperror.NewHTTPError(http.StatusBadRequest, "org_type must be source or target")
		}
		orgType = &t
	}

	page := 1
	pageSize := 20
	echo.QueryParamsBinder(c).Int("page", &page).Int("page_size", &pageSize)

	ctx, repo, err := ectoinject.GetContext[*orgrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "org repository not available")
	}

	resp, err := repo.List(ctx, orgType, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetOrg returns one org by id
func GetOrg(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*orgrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "org repository not available")
	}

	org, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, org)
}

// DeleteOrg disconnects an org
func DeleteOrg(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*orgrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "org repository not available")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	ctx, manager, err := ectoinject.GetContext[*salesforce.Manager](ctx)
	if err == nil {
		manager.Evict(id)
	}

	return c.NoContent(http.StatusNoContent)
}

// PingOrg verifies an org is reachable with a valid session
func PingOrg(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, manager, err := ectoinject.GetContext[*salesforce.Manager](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "org manager not available")
	}

	client, err := manager.ClientFor(ctx, id)
	if err != nil {
		return err
	}

	if err := client.Ping(ctx); err != nil {
		return c.JSON(http.StatusOK, map[string]any{"healthy": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"healthy": true})
}
