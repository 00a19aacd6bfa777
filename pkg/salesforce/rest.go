package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/oauth2"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/metrics"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

const defaultAPIVersion = "v59.0"

// RestClient talks to one org through the REST query and describe endpoints.
type RestClient struct {
	httpClient  *http.Client
	logger      ectologger.Logger
	instanceURL string
	apiVersion  string
}

// NewRestClient builds a client for a connected org, authorizing requests
// with the org's stored access token.
func NewRestClient(org models.Org, logger ectologger.Logger) *RestClient {
	apiVersion := org.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: org.AccessToken})
	httpClient := oauth2.NewClient(context.Background(), source)
	httpClient.Timeout = 120 * time.Second

	return &RestClient{
		httpClient:  httpClient,
		logger:      logger,
		instanceURL: strings.TrimRight(org.InstanceURL, "/"),
		apiVersion:  apiVersion,
	}
}

// InstanceURL returns the org's instance URL, used for record deep links.
func (c *RestClient) InstanceURL() string {
	return c.instanceURL
}

type queryResponse struct {
	TotalSize int              `json:"totalSize"`
	Done      bool             `json:"done"`
	Records   []map[string]any `json:"records"`
	NextURL   string           `json:"nextRecordsUrl"`
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// Query executes a SOQL query, following nextRecordsUrl pages. A projection
// that is a single row-count aggregate returns AggregateCount instead of
// rows.
func (c *RestClient) Query(ctx context.Context, soql string) (*QueryResult, error) {
	ctx, span := tracing.StartSpan(ctx, "salesforce.RestClient.Query")
	defer span.End()

	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.instanceURL, c.apiVersion, url.QueryEscape(soql))

	result := &QueryResult{}
	for endpoint != "" {
		var page queryResponse
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		result.TotalSize = page.TotalSize
		for _, raw := range page.Records {
			result.Records = append(result.Records, normalizeRecord(raw))
		}

		endpoint = ""
		if !page.Done && page.NextURL != "" {
			endpoint = c.instanceURL + page.NextURL
		}
	}

	if count, ok := aggregateCount(soql, result.Records, result.TotalSize); ok {
		result.AggregateCount = &count
		result.Records = nil
	}
	return result, nil
}

// GetObjectMetadata describes an object's fields, including picklist values.
func (c *RestClient) GetObjectMetadata(ctx context.Context, objectName string) (*ObjectMetadata, error) {
	ctx, span := tracing.StartSpan(ctx, "salesforce.RestClient.GetObjectMetadata")
	defer span.End()

	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s/describe", c.instanceURL, c.apiVersion, url.PathEscape(objectName))

	var described struct {
		Name   string `json:"name"`
		Fields []struct {
			Name           string `json:"name"`
			Type           string `json:"type"`
			PicklistValues []struct {
				Value  string `json:"value"`
				Label  string `json:"label"`
				Active bool   `json:"active"`
			} `json:"picklistValues"`
		} `json:"fields"`
	}
	if err := c.getJSON(ctx, endpoint, &described); err != nil {
		return nil, err
	}

	metadata := &ObjectMetadata{Name: described.Name}
	for _, f := range described.Fields {
		field := FieldMetadata{Name: f.Name, Type: f.Type}
		for _, pv := range f.PicklistValues {
			field.PicklistValues = append(field.PicklistValues, PicklistValue(pv))
		}
		metadata.Fields = append(metadata.Fields, field)
	}
	return metadata, nil
}

// GetPicklistValues returns the live allowed-value set for one field.
func (c *RestClient) GetPicklistValues(ctx context.Context, objectName, fieldName string) (*PicklistInfo, error) {
	ctx, span := tracing.StartSpan(ctx, "salesforce.RestClient.GetPicklistValues")
	defer span.End()

	metadata, err := c.GetObjectMetadata(ctx, objectName)
	if err != nil {
		return nil, err
	}

	for _, field := range metadata.Fields {
		if strings.EqualFold(field.Name, fieldName) {
			return &PicklistInfo{
				Values:     field.PicklistValues,
				Restricted: field.Type == "picklist" || field.Type == "multipicklist",
			}, nil
		}
	}
	return nil, fmt.Errorf("field %s not found on %s", fieldName, objectName)
}

// Ping verifies the org is reachable and the session is valid.
func (c *RestClient) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/services/data/%s/limits", c.instanceURL, c.apiVersion)
	var limits map[string]any
	return c.getJSON(ctx, endpoint, &limits)
}

func (c *RestClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	operation := restOperation(endpoint)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordSalesforceRequest(operation, "error", time.Since(start).Seconds())
		return fmt.Errorf("request to org failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordSalesforceRequest(operation, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErrs []apiError
		if err := json.Unmarshal(body, &apiErrs); err == nil && len(apiErrs) > 0 {
			return fmt.Errorf("org returned %s: %s", apiErrs[0].ErrorCode, apiErrs[0].Message)
		}
		return fmt.Errorf("org returned status %d", resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

// restOperation classifies an endpoint for metric labels.
func restOperation(endpoint string) string {
	switch {
	case strings.Contains(endpoint, "/query"):
		return "query"
	case strings.Contains(endpoint, "/describe"):
		return "describe"
	case strings.Contains(endpoint, "/limits"):
		return "limits"
	default:
		return "other"
	}
}

// normalizeRecord strips the attributes envelope from a record and from any
// nested relationship sub-objects.
func normalizeRecord(raw map[string]any) Record {
	record := make(Record, len(raw))
	for key, value := range raw {
		if key == "attributes" {
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			record[key] = map[string]any(normalizeRecord(nested))
			continue
		}
		record[key] = value
	}
	return record
}

// aggregateCount detects a bare row-count projection and extracts its value.
func aggregateCount(soql string, records []Record, totalSize int) (int, bool) {
	upper := strings.ToUpper(strings.TrimSpace(soql))
	if !strings.HasPrefix(upper, "SELECT COUNT(") {
		return 0, false
	}
	// COUNT() without a field returns no rows, only totalSize
	if len(records) == 0 {
		return totalSize, true
	}
	for _, key := range []string{"recordCount", "expr0"} {
		if v, ok := records[0][key]; ok {
			if f, ok := v.(float64); ok {
				return int(f), true
			}
		}
	}
	return 0, false
}
