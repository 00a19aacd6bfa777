// Package template exposes the migration template catalogue.
package template

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/templates"
)

// Register registers template routes
func Register(g *echo.Group) {
	g.GET("", ListTemplates)
	g.GET("/:id", GetTemplate)
}

// ListTemplates returns every registered migration template
func ListTemplates(c echo.Context) error {
	ctx := c.Request().Context()

	_, registry, err := ectoinject.GetContext[*templates.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "template registry not available")
	}

	return c.JSON(http.StatusOK, registry.List())
}

// GetTemplate returns one template by id
func GetTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	_, registry, err := ectoinject.GetContext[*templates.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "template registry not available")
	}

	template, err := registry.Get(id)
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			return httperror.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, template)
}
