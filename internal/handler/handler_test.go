package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIngestRequestShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"array", `[{"txHash":"0x1","amount":1},{"txHash":"0x2","amount":"2"}]`, []string{"0x1", "0x2"}},
		{"wrapped", `{"donations":[{"txHash":"0x3","amount":"1"}]}`, []string{"0x3"}},
		{"single", ` {"txHash":"0x4","amount":"0.5"}`, []string{"0x4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req IngestRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			var got []string
			for _, d := range req.Donations {
				got = append(got, d.TxHash)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	var req IngestRequest
	assert.Error(t, json.Unmarshal([]byte(`{"txHash":`), &req))
}

func TestHandleErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&logic.ValidationError{Field: "amount", Reason: "is required"}, http.StatusBadRequest},
		{fmt.Errorf("campaign %q: %w", "c1", logic.ErrNotFound), http.StatusNotFound},
		{logic.ErrForbidden, http.StatusForbidden},
		{logic.ErrInvalidTransition, http.StatusConflict},
		{logic.ErrDuplicate, http.StatusConflict},
		{logic.ErrInvalidLogin, http.StatusUnauthorized},
		{&logic.WithdrawalBlockedError{Violations: []ledger.Violation{{CampaignId: "c1"}}}, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
			HandleError(c, tt.err)

			assert.Equal(t, tt.want, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestHandleErrorBlockedListsViolations(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)
	HandleError(c, fmt.Errorf("record: %w", &logic.WithdrawalBlockedError{
		Violations: []ledger.Violation{{CampaignId: "c1", Title: "Wells", DaysSinceCreation: 9}},
	}))

	var resp struct {
		Data struct {
			CanWithdraw        bool               `json:"canWithdraw"`
			ViolatingCampaigns []ledger.Violation `json:"violatingCampaigns"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.CanWithdraw)
	require.Len(t, resp.Data.ViolatingCampaigns, 1)
	assert.Equal(t, 9, resp.Data.ViolatingCampaigns[0].DaysSinceCreation)
}

func TestETagResponse(t *testing.T) {
	r := gin.New()
	r.GET("/doc", func(c *gin.Context) {
		ETagResponse(c, gin.H{"title": "Wells"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Contains(t, w.Body.String(), `"Wells"`)

	req := httptest.NewRequest(http.MethodGet, "/doc", nil)
	req.Header.Set("If-None-Match", tag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/doc", nil)
	req.Header.Set("If-None-Match", `"stale"`)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
