package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"datastory/adapters/llm"
	"datastory/ai"
	"datastory/app"
	"datastory/internal/chart"
	"datastory/internal/config"
	"datastory/models"
	"datastory/ui/templates/fragments"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storyJSON = `{"key_insights": [{"title": "West leads", "description": "West sells **most**.",
  "chart_recommendation": {"type": "bar", "x_column": "region", "y_column": "sales_amount"}}],
  "narrative": "Sales *grew* steadily.", "recommended_actions": [{"title": "Expand", "description": "Grow West."}]}`

type fakeUsage struct{ summary *models.UsageSummary }

func (f fakeUsage) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	return f.summary, nil
}

func newTestServer(t *testing.T, response string, mutate func(*Deps)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Metrics = false
	client := ai.NewStoryClient(cfg.AI, ai.WithLLMClient(&llm.MockLLMClient{Response: response}))
	binder := chart.NewBinder(cfg.Chart, func(string) bool { return false })

	deps := Deps{
		Config:  cfg,
		Stories: app.NewStoryService(ai.NewPromptCompiler(""), client, binder),
	}
	if mutate != nil {
		mutate(&deps)
	}
	s, err := NewServer(deps)
	require.NoError(t, err)
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAllTemplatesRegistered(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)
	for _, name := range fragments.GetAllTemplatePaths() {
		assert.NotNil(t, s.templates.Lookup(name), name)
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Create a data story")
	assert.Contains(t, body, "Customer satisfaction survey")
	assert.Contains(t, body, "OPENAI_API_KEY is not set")
	assert.Contains(t, body, `<option value="general" selected>`)
}

func TestStoryPageFromSample(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)
	rec := do(s, formRequest("/story", url.Values{"sample": {"sales_data"}, "audience": {"executive"}}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "West leads")
	assert.Contains(t, body, "<em>grew</em>")
	assert.Contains(t, body, "<strong>most</strong>")
	assert.Contains(t, body, "data-chart=")
	assert.Contains(t, body, "Total sales")
	assert.Contains(t, body, `name="sample" value="sales_data"`)
	assert.Contains(t, body, "</html>")
}

func TestStoryPageFromUpload(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "tiny.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("region,sales_amount\nEast,1\nWest,2\nWest,3\n"))
	require.NoError(t, w.WriteField("length", "brief"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/story", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "tiny")
	assert.Contains(t, body, "Re-attach the file")
}

func TestStoryPageWithoutDataShowsForm(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)
	rec := do(s, formRequest("/story", url.Values{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "choose a sample dataset")
	assert.Contains(t, rec.Body.String(), "Create a data story")
}

func TestSampleEndpoints(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/samples", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["samples"], 3)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/samples/marketing_campaign", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 200, decode(t, rec)["rows"])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/samples/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}

func TestAnalyzeAndPrompt(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)

	rec := do(s, jsonRequest(http.MethodPost, "/api/analyze", map[string]interface{}{"sample": "sales_data"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	info := out["analysis"].(map[string]interface{})["basic_info"].(map[string]interface{})
	assert.EqualValues(t, 365, info["rows"])
	assert.NotNil(t, out["key_metrics"].(map[string]interface{})["total_sales"])

	rec = do(s, jsonRequest(http.MethodPost, "/api/prompt", map[string]interface{}{"sample": "sales_data", "focus": "anomalies"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["prompt"], "outliers")
}

func TestStoryAPI(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)
	rec := do(s, jsonRequest(http.MethodPost, "/api/story", map[string]interface{}{"sample": "sales_data", "handle_missing": true}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, false, out["fallback"])
	insights := out["insights"].([]interface{})
	require.Len(t, insights, 1)
	assert.NotNil(t, insights[0].(map[string]interface{})["chart"])
	assert.NotEmpty(t, out["charts"])
}

func TestStoryAPIFallsBackOnBadContent(t *testing.T) {
	s := newTestServer(t, "<html>oops</html>", nil)
	rec := do(s, jsonRequest(http.MethodPost, "/api/story", map[string]interface{}{"sample": "sales_data"}))

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, true, out["fallback"])
	assert.NotEmpty(t, out["warning"])
}

func TestChartAPI(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)

	rec := do(s, jsonRequest(http.MethodPost, "/api/chart", map[string]interface{}{
		"sample": "sales_data", "type": "pie", "x_column": "region", "y_column": "sales_amount",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pie", decode(t, rec)["chartType"])

	rec = do(s, jsonRequest(http.MethodPost, "/api/chart", map[string]interface{}{
		"sample": "sales_data", "type": "unknown_type", "x_column": "region", "y_column": "sales_amount",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "CHART_BINDING_ERROR", decode(t, rec)["code"])
}

func TestInsightAPI(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)

	tests := []struct {
		kind   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{"trend", map[string]interface{}{"date_column": "date", "value_column": "sales_amount"}, http.StatusOK, ""},
		{"anomalies", map[string]interface{}{"column": "sales_amount", "method": "zscore", "threshold": 3}, http.StatusOK, ""},
		{"anomalies", map[string]interface{}{"column": "region"}, http.StatusUnprocessableEntity, "ANALYSIS_ERROR"},
		{"correlations", map[string]interface{}{"threshold": 0.1}, http.StatusOK, ""},
		{"bogus", map[string]interface{}{}, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			tt.body["sample"] = "sales_data"
			rec := do(s, jsonRequest(http.MethodPost, "/api/insights/"+tt.kind, tt.body))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode(t, rec)["code"])
			}
		})
	}
}

func TestQuestionFragment(t *testing.T) {
	s := newTestServer(t, `{"answer": "West sells the most", "data_points": ["West: 40%"], "limitations": "One year only."}`, nil)
	rec := do(s, formRequest("/question", url.Values{"sample": {"sales_data"}, "question": {"Which region?"}}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "West sells the most")
	assert.Contains(t, body, "West: 40%")
	assert.Contains(t, body, "One year only.")

	rec = do(s, formRequest("/question", url.Values{"sample": {"sales_data"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is empty")
}

func TestUsageEndpoint(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s = newTestServer(t, storyJSON, func(d *Deps) {
		d.Usage = fakeUsage{summary: &models.UsageSummary{TotalTokens: 42, RequestCount: 2}}
	})
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/usage?days=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 42, decode(t, rec)["total_tokens"])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/usage?days=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadLimit(t *testing.T) {
	s := newTestServer(t, storyJSON, func(d *Deps) { d.Config.Server.MaxUploadMB = 1 })

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "big.csv")
	_, _ = part.Write([]byte("a\n" + strings.Repeat("1\n", 1<<20)))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/story", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(s, req).Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, storyJSON, nil)
	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}
