package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/autotransfer/backend-go/internal/cache"
	"github.com/andresuchdata/autotransfer/backend-go/internal/export"
	"github.com/andresuchdata/autotransfer/backend-go/internal/pipeline"
	"github.com/andresuchdata/autotransfer/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryCSV = "仓库,SKU,FNSKU,可用库存,库区\n" +
	"外协West,A1,F1,6,W-01\n" +
	"外协East,A1,F2,20,E-01\n"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orch, err := pipeline.New(pipeline.DefaultConfig())
	require.NoError(t, err)
	svc := service.NewTransferService(orch, cache.NewMemoryArtifactCache(16, time.Minute), nil, nil)
	return NewRouter(&Services{TransferService: svc}, nil, 8)
}

type part struct {
	field, file, body string
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.file == "" {
			require.NoError(t, w.WriteField(p.field, p.body))
			continue
		}
		fw, err := w.CreateFormFile(p.field, p.file)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, TransfersPath, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type createResponse struct {
	RunID     string   `json:"run_id"`
	Shortages []string `json:"shortages"`
	Groups    []struct {
		Key      string `json:"key"`
		FileName string `json:"file_name"`
		Rows     int    `json:"rows"`
		Download string `json:"download"`
	} `json:"groups"`
	AllDownload      string `json:"all_download"`
	ShortageDownload string `json:"shortage_download"`
}

// =============================================================================
// POST /api/v1/transfers
// =============================================================================

func TestCreateTransfer_Success(t *testing.T) {
	router := newTestRouter(t)

	// GIVEN an inventory upload and a JSON demand
	req := multipartRequest(t,
		part{field: "inventory", file: "在库库存.csv", body: inventoryCSV},
		part{field: "demand_json", body: `[{"sku":"A1","fnsku":"F1","qty":10},{"sku":"ZZ","qty":2}]`},
	)

	// WHEN the transfer is created
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN the summary links every staged file
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "W-01", resp.Groups[0].Key)
	assert.Equal(t, TransfersPath+"/"+resp.RunID+"/files/0", resp.Groups[0].Download)
	assert.Equal(t, TransfersPath+"/"+resp.RunID+"/files/all", resp.AllDownload)
	assert.Equal(t, []string{"SKU ZZ (FnSKU: ) 缺货: 2"}, resp.Shortages)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// AND the workbook can be downloaded
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.Groups[1].Download, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "E-01.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())

	// AND the shortage log is plain text
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.ShortageDownload, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SKU ZZ (FnSKU: ) 缺货: 2\n", rec.Body.String())
}

func TestCreateTransfer_DemandText(t *testing.T) {
	router := newTestRouter(t)

	req := multipartRequest(t,
		part{field: "inventory", file: "inv.csv", body: inventoryCSV},
		part{field: "demand_text", body: "SKU\tFNSKU\tQty\nA1\tF2\t3\n"},
		part{field: "partition_by", body: "warehouse"},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "外协East", resp.Groups[0].Key)
	assert.Equal(t, 1, resp.Groups[0].Rows)
}

func TestCreateTransfer_BadRequests(t *testing.T) {
	tests := []struct {
		name  string
		parts []part
	}{
		{
			name:  "missing demand",
			parts: []part{{field: "inventory", file: "inv.csv", body: inventoryCSV}},
		},
		{
			name:  "missing inventory",
			parts: []part{{field: "demand_json", body: `[{"sku":"A1","qty":1}]`}},
		},
		{
			name: "drive disabled",
			parts: []part{
				{field: "inventory_drive_id", body: "1AbC"},
				{field: "demand_json", body: `[{"sku":"A1","qty":1}]`},
			},
		},
		{
			name: "malformed demand json",
			parts: []part{
				{field: "inventory", file: "inv.csv", body: inventoryCSV},
				{field: "demand_json", body: `[{"sku":"A1","amount":1}]`},
			},
		},
		{
			name: "unknown partition",
			parts: []part{
				{field: "inventory", file: "inv.csv", body: inventoryCSV},
				{field: "demand_json", body: `[{"sku":"A1","qty":1}]`},
				{field: "partition_by", body: "sku"},
			},
		},
	}

	router := newTestRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, tt.parts...))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateTransfer_TerminalErrorKind(t *testing.T) {
	router := newTestRouter(t)

	// GIVEN inventory that holds no target warehouse
	req := multipartRequest(t,
		part{field: "inventory", file: "inv.csv", body: "仓库,SKU,FNSKU,可用\n本地仓,A1,F1,3\n"},
		part{field: "demand_json", body: `[{"sku":"A1","qty":1}]`},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN the error kind and its details are reported
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no_target_inventory", body["kind"])
	assert.NotEmpty(t, body["error"])
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "inventory", details["source"])
}

func TestCreateTransfer_CorruptWorkbook(t *testing.T) {
	router := newTestRouter(t)

	// GIVEN an inventory named .xlsx that is not a workbook
	req := multipartRequest(t,
		part{field: "inventory", file: "inventory.xlsx", body: "not really a zip"},
		part{field: "demand_json", body: `[{"sku":"A1","qty":1}]`},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN it is reported as unreadable input, not a server fault
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	var body struct {
		Kind    string                 `json:"kind"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unreadable_file", body.Kind)
	assert.Equal(t, "inventory.xlsx", body.Details["file"])
	assert.Equal(t, "xlsx", body.Details["format"])
	assert.Equal(t, "inventory", body.Details["source"])
}

func TestCreateTransfer_DemandErrorNamesItsSource(t *testing.T) {
	router := newTestRouter(t)

	// GIVEN a demand sheet without a SKU header
	req := multipartRequest(t,
		part{field: "inventory", file: "inv.csv", body: inventoryCSV},
		part{field: "demand", file: "demand.csv", body: "编号,数量\nA1,2\n"},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN the error points at the demand upload
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	var body struct {
		Error   string                 `json:"error"`
		Kind    string                 `json:"kind"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "schema_not_found", body.Kind)
	assert.Equal(t, "demand", body.Details["source"])
	assert.True(t, strings.HasPrefix(body.Error, "demand: "))
}

// =============================================================================
// Downloads
// =============================================================================

func TestGetFile_NotFoundAndInvalidIndex(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, TransfersPath+"/missing/files/0", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, TransfersPath+"/missing/files/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, TransfersPath+"/missing/shortages", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
