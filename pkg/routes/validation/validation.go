// Package validation exposes the pre-flight validation endpoint.
package validation

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	orgrepo "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/internal/repositories/org"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/events"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/metrics"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/templates"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/utils"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/validation"
)

// RunRequest identifies the template and org pair to validate
type RunRequest struct {
	TemplateID        string   `json:"template_id" validate:"required"`
	SourceOrgID       string   `json:"source_org_id" validate:"required"`
	TargetOrgID       string   `json:"target_org_id" validate:"required"`
	SelectedRecordIDs []string `json:"selected_record_ids"`
}

// RunResponse carries the formatted result plus per-check groupings
type RunResponse struct {
	RunID  string                   `json:"run_id"`
	Result *models.ValidationResult `json:"result"`
	Groups []validation.IssueGroup  `json:"groups"`
}

// Register registers validation routes
func Register(g *echo.Group) {
	g.POST("/run", RunValidation)
}

// RunValidation runs every pre-flight check a template declares against an
// org pair and returns the formatted findings
func RunValidation(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[RunRequest](c)
	if err != nil {
		return err
	}

	ctx, registry, err := ectoinject.GetContext[*templates.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "template registry not available")
	}
	template, err := registry.Get(req.TemplateID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusNotFound, err.Error())
	}

	ctx, manager, err := ectoinject.GetContext[*salesforce.Manager](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "org manager not available")
	}
	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)

	// instance URL for record deep links; validation proceeds without it
	sourceInstanceURL := ""
	if ctx2, repo, err := ectoinject.GetContext[*orgrepo.Repository](ctx); err == nil {
		if org, err := repo.Get(ctx2, req.SourceOrgID); err == nil {
			sourceInstanceURL = org.InstanceURL
		}
	}

	var emitter *events.Emitter
	if ctx2, e, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		ctx = ctx2
		emitter = e
	}

	runID := ""
	if emitter != nil {
		runID = emitter.EmitRunStarted(ctx, req.TemplateID, req.SourceOrgID, req.TargetOrgID)
	}

	engine := validation.NewEngine(logger, manager)
	params := validation.RunParams{
		SourceOrgID:       req.SourceOrgID,
		TargetOrgID:       req.TargetOrgID,
		SelectedRecordIDs: req.SelectedRecordIDs,
		SourceInstanceURL: sourceInstanceURL,
	}

	start := time.Now()
	result := engine.ValidateTemplate(ctx, template, params)
	duration := time.Since(start)

	outcome := "valid"
	if !result.IsValid {
		outcome = "invalid"
	}
	metrics.RecordValidationRun(req.TemplateID, outcome, duration.Seconds())
	metrics.RecordValidationIssues(req.TemplateID, len(result.Errors), len(result.Warnings))

	if emitter != nil {
		emitter.EmitRunCompleted(ctx, runID, req.TemplateID, req.SourceOrgID, req.TargetOrgID, result, duration)
	}

	formatter := validation.NewFormatter(sourceInstanceURL)
	formatter.Format(result)

	return c.JSON(http.StatusOK, RunResponse{
		RunID:  runID,
		Result: result,
		Groups: validation.GroupIssues(result),
	})
}
