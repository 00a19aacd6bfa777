package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orgPairRequest struct {
	TemplateID  string `json:"template_id" validate:"required"`
	SourceOrgID string `json:"source_org_id" validate:"required"`
	TargetOrgID string `json:"target_org_id" validate:"required"`
}

func bindContext(body string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindRequest(t *testing.T) {
	t.Run("binds a valid payload", func(t *testing.T) {
		c := bindContext(`{"template_id": "t1", "source_org_id": "s1", "target_org_id": "t2"}`)
		req, err := BindRequest[orgPairRequest](c)
		require.NoError(t, err)
		assert.Equal(t, "t1", req.TemplateID)
		assert.Equal(t, "s1", req.SourceOrgID)
	})

	t.Run("a missing required field is a 400", func(t *testing.T) {
		c := bindContext(`{"template_id": "t1", "source_org_id": "s1"}`)
		_, err := BindRequest[orgPairRequest](c)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		assert.Contains(t, err.Error(), "TargetOrgID")
	})

	t.Run("a malformed body is a 400", func(t *testing.T) {
		c := bindContext(`{"template_id": `)
		_, err := BindRequest[orgPairRequest](c)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}
