// Package validation implements the pre-flight validation engine: it caches
// target-side reference data, extracts source records, and cross-checks
// every reference, assertion, and picklist value a template declares before
// any record is loaded.
package validation

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/externalid"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/soql"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

// extractionCap bounds source extraction when a template query carries no
// LIMIT of its own.
const extractionCap = 1000

// RunParams identifies the org pair and record selection for one run.
type RunParams struct {
	SourceOrgID       string
	TargetOrgID       string
	SelectedRecordIDs []string
	SourceInstanceURL string
}

// Engine validates one template run. An engine instance owns run-scoped
// state (the pre-validation cache and picklist dedupe set) and must not be
// shared between concurrent runs: create one per run, or call ClearCache
// between sequential runs.
type Engine struct {
	logger   ectologger.Logger
	orgs     salesforce.ClientProvider
	resolver *externalid.Resolver

	// run-scoped state
	cache         map[string][]salesforce.Record
	params        RunParams
	sourceClient  salesforce.Client
	targetClient  salesforce.Client
	sourceIDField string
	picklistSeen  map[string]struct{}
	checksRun     int
}

// NewEngine creates an engine bound to an org client provider.
func NewEngine(logger ectologger.Logger, orgs salesforce.ClientProvider) *Engine {
	return &Engine{
		logger:       logger,
		orgs:         orgs,
		resolver:     externalid.NewResolver(logger),
		cache:        make(map[string][]salesforce.Record),
		picklistSeen: make(map[string]struct{}),
	}
}

// ClearCache resets all run-scoped state, allowing the engine to be reused
// for a subsequent run.
func (e *Engine) ClearCache() {
	e.cache = make(map[string][]salesforce.Record)
	e.picklistSeen = make(map[string]struct{})
	e.checksRun = 0
	e.params = RunParams{}
	e.sourceClient = nil
	e.targetClient = nil
	e.sourceIDField = ""
}

// ValidateTemplate runs every validation step a template declares, in the
// template's stated execution order. It never returns an error: every
// failure mode materializes as an issue in the returned result.
func (e *Engine) ValidateTemplate(ctx context.Context, template *models.MigrationTemplate, params RunParams) (result *models.ValidationResult) {
	ctx, span := tracing.StartSpan(ctx, "validation.Engine.ValidateTemplate")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"template_id":   template.ID,
		"source_org_id": params.SourceOrgID,
		"target_org_id": params.TargetOrgID,
	})

	result = models.NewValidationResult()
	e.params = params

	// An exception escaping the per-step boundary means the run itself is
	// broken; convert it to a single run-level error and stop.
	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Sprintf("Validation run aborted: %v", r))
			result.AddIssue(models.ValidationIssue{
				CheckName:       "validationRun",
				Message:         fmt.Sprintf("validation run aborted unexpectedly: %v", r),
				Severity:        models.SeverityError,
				SuggestedAction: "Retry the validation; if the failure persists, review the template configuration",
			})
			e.checksRun++
			result.Finalize(e.checksRun)
		}
	}()

	if !e.orgs.AreAllOrgsHealthy(ctx, []string{params.SourceOrgID, params.TargetOrgID}) {
		log.Warn("Org connectivity check failed")
		result.AddIssue(models.ValidationIssue{
			CheckName:       "orgConnectivity",
			Message:         "one or both orgs are not reachable; reconnect the orgs and try again",
			Severity:        models.SeverityError,
			SuggestedAction: "Reconnect both orgs before validating",
		})
		result.Finalize(1)
		return result
	}

	var err error
	if e.sourceClient, err = e.orgs.ClientFor(ctx, params.SourceOrgID); err == nil {
		e.targetClient, err = e.orgs.ClientFor(ctx, params.TargetOrgID)
	}
	if err != nil {
		result.AddIssue(models.ValidationIssue{
			CheckName:       "orgConnectivity",
			Message:         fmt.Sprintf("failed to obtain org client: %v", err),
			Severity:        models.SeverityError,
			SuggestedAction: "Reconnect both orgs before validating",
		})
		result.Finalize(1)
		return result
	}

	for _, step := range e.orderedSteps(template, result) {
		if step.ValidationConfig == nil {
			log.WithFields(map[string]any{"step": step.StepName}).Debug("Step declares no validation config, skipping")
			continue
		}
		stepResult := e.validateStep(ctx, step)
		result.Merge(stepResult)
	}

	result.Finalize(e.checksRun)
	log.WithFields(map[string]any{
		"is_valid": result.IsValid,
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
	}).Info("Validation run complete")

	return result
}

// orderedSteps resolves the template's stored execution order into steps.
// The engine trusts executionOrder rather than recomputing a topological
// sort; an order entry naming no step is reported as an error issue.
func (e *Engine) orderedSteps(template *models.MigrationTemplate, result *models.ValidationResult) []*models.ETLStep {
	if len(template.ExecutionOrder) == 0 {
		steps := make([]*models.ETLStep, len(template.Steps))
		for i := range template.Steps {
			steps[i] = &template.Steps[i]
		}
		return steps
	}

	byName := make(map[string]*models.ETLStep, len(template.Steps))
	for i := range template.Steps {
		byName[template.Steps[i].StepName] = &template.Steps[i]
	}

	var ordered []*models.ETLStep
	for _, name := range template.ExecutionOrder {
		step, ok := byName[name]
		if !ok {
			result.AddIssue(models.ValidationIssue{
				CheckName: "executionOrder",
				Message:   fmt.Sprintf("execution order names step %q which does not exist in the template", name),
				Severity:  models.SeverityError,
			})
			e.checksRun++
			continue
		}
		ordered = append(ordered, step)
	}
	return ordered
}

// validateStep runs one step's validation phases in order: pre-validation
// caching, source extraction, dependency checks, data-integrity checks, and
// picklist checks. A panic inside the step is converted to one error issue
// so subsequent steps still run.
func (e *Engine) validateStep(ctx context.Context, step *models.ETLStep) (result *models.ValidationResult) {
	ctx, span := tracing.StartSpan(ctx, "validation.Engine.validateStep")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{"step": step.StepName})
	result = models.NewValidationResult()

	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Sprintf("Step validation aborted: %v", r))
			result.AddIssue(models.ValidationIssue{
				CheckName: "stepValidation",
				Message:   fmt.Sprintf("validation of step %q failed unexpectedly: %v", step.StepName, r),
				Severity:  models.SeverityError,
			})
			e.checksRun++
		}
	}()

	cfg := step.ValidationConfig

	e.runPreValidationQueries(ctx, step, cfg.PreValidationQueries, result)

	sourceRecords, ok := e.extractSourceRecords(ctx, step, result)
	if ok {
		e.runDependencyChecks(ctx, step, cfg.DependencyChecks, sourceRecords, result)
	}

	e.runDataIntegrityChecks(ctx, cfg.DataIntegrityChecks, result)
	e.runPicklistChecks(ctx, step, cfg.PicklistChecks, result)

	return result
}

// runPreValidationQueries populates the run cache from the target org. A
// failed query is non-fatal: its cache key is populated with an empty slice
// so later dependency checks report missing references instead of crashing.
func (e *Engine) runPreValidationQueries(ctx context.Context, step *models.ETLStep, queries []models.PreValidationQuery, result *models.ValidationResult) {
	for _, pq := range queries {
		query, err := e.resolveTargetQuery(ctx, pq.SoqlQuery)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"step":      step.StepName,
				"cache_key": pq.CacheKey,
			}).Warn("Failed to build pre-validation query, caching empty result")
			e.cache[pq.CacheKey] = []salesforce.Record{}
			continue
		}

		res, err := e.targetClient.Query(ctx, query)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"step":      step.StepName,
				"cache_key": pq.CacheKey,
			}).Warn("Pre-validation query failed, caching empty result")
			e.cache[pq.CacheKey] = []salesforce.Record{}
			continue
		}

		rows := res.Records
		if rows == nil {
			rows = []salesforce.Record{}
		}
		e.cache[pq.CacheKey] = rows
	}
}

// extractSourceRecords builds and runs the step's extraction query against
// the source org. The result is always a row slice; a failure emits one
// error issue for the step and skips the dependency phase.
func (e *Engine) extractSourceRecords(ctx context.Context, step *models.ETLStep, result *models.ValidationResult) ([]salesforce.Record, bool) {
	info, err := e.resolver.DetectEnvironmentInfo(ctx, e.sourceClient, step.ExtractConfig.ObjectAPIName)
	if err != nil {
		e.checksRun++
		result.AddIssue(models.ValidationIssue{
			CheckName: "sourceExtraction",
			Message:   fmt.Sprintf("failed to resolve the external id field for %s: %v", step.ExtractConfig.ObjectAPIName, err),
			Severity:  models.SeverityError,
		})
		return nil, false
	}
	e.sourceIDField = info.ExternalIDField

	query, err := soql.BuildQuery(step.ExtractConfig, info.ExternalIDField, e.params.SelectedRecordIDs)
	if err != nil {
		e.checksRun++
		result.AddIssue(models.ValidationIssue{
			CheckName: "sourceExtraction",
			Message:   fmt.Sprintf("failed to build extraction query for step %q: %v", step.StepName, err),
			Severity:  models.SeverityError,
		})
		return nil, false
	}
	query = soql.OptimizeForBatch(query, extractionCap)

	res, err := e.sourceClient.Query(ctx, query)
	if err != nil {
		e.checksRun++
		result.AddIssue(models.ValidationIssue{
			CheckName: "sourceExtraction",
			Message:   fmt.Sprintf("source extraction for step %q failed: %v", step.StepName, err),
			Severity:  models.SeverityError,
		})
		return nil, false
	}

	if res.Records == nil {
		return []salesforce.Record{}, true
	}
	return res.Records, true
}

// resolveTargetQuery rewrites the {externalIdField} placeholder in a
// target-side query using the target org's detected field for the query's
// object.
func (e *Engine) resolveTargetQuery(ctx context.Context, query string) (string, error) {
	object, err := soql.ExtractObject(query)
	if err != nil {
		return "", err
	}
	info, err := e.resolver.DetectEnvironmentInfo(ctx, e.targetClient, object)
	if err != nil {
		return "", err
	}
	return soql.ReplaceExternalIDField(query, info.ExternalIDField)
}

// resolveTargetField substitutes the {externalIdField} placeholder in a
// dependency check's target field with the target org's detected field for
// the check's object.
func (e *Engine) resolveTargetField(ctx context.Context, check models.DependencyCheck) string {
	if check.TargetField != soql.PlaceholderExternalIDField {
		return check.TargetField
	}
	info, err := e.resolver.DetectEnvironmentInfo(ctx, e.targetClient, check.TargetObject)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"target_object": check.TargetObject,
		}).Warn("Failed to resolve target external id field, using fallback")
		return externalid.FallbackExternalIDField
	}
	return info.ExternalIDField
}
