package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

func TestErrMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", apperr.Validation("FILE_TOO_LARGE", "file too large"), http.StatusBadRequest, "FILE_TOO_LARGE"},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("project")), http.StatusNotFound, "not_found"},
		{"conflict", apperr.Conflict("PROJECT_SEALED", "sealed"), http.StatusConflict, "PROJECT_SEALED"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(resp)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
			Err(c, tc.err)

			if resp.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, resp.Code)
			}
			var body ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tc.wantBody {
				t.Fatalf("expected code %s, got %s", tc.wantBody, body.Error.Code)
			}
			if tc.wantCode == http.StatusInternalServerError && body.Error.Message != "Unexpected server error" {
				t.Fatalf("internal message leaked: %s", body.Error.Message)
			}
		})
	}
}
