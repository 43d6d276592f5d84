package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/auth"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	"github.com/ekaya-inc/ekaya-bi/pkg/services"
	"github.com/ekaya-inc/ekaya-bi/pkg/testhelpers"
)

// mockConnectionService resolves a fixed set of definitions.
type mockConnectionService struct {
	defs      map[string]*models.ConnectionDefinition
	list      []models.ConnectionDto
	created   *models.ConnectionDto
	createErr error
	listErr   error

	createdName     string
	createdProvider models.Provider
}

func (m *mockConnectionService) List(ctx context.Context) ([]models.ConnectionDto, error) {
	return m.list, m.listErr
}

func (m *mockConnectionService) Create(ctx context.Context, name string, provider models.Provider, connectionString string) (*models.ConnectionDto, error) {
	m.createdName = name
	m.createdProvider = provider
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.created, nil
}

func (m *mockConnectionService) Get(ctx context.Context, id string) (*models.ConnectionDefinition, error) {
	if def, ok := m.defs[id]; ok {
		return def, nil
	}
	return nil, apperrors.ErrNotFound
}

// mockQueryService returns canned results and records the last request.
type mockQueryService struct {
	err error

	executeResp  *models.ExecuteQueryResponse
	chartResp    *models.ExecuteQueryResponse
	distinctResp *models.DistinctValuesResponse
	kpiResp      *models.KpiQueryResponse

	lastDef      *models.ConnectionDefinition
	lastSQL      string
	lastChart    *models.ChartQueryRequest
	lastDistinct *models.DistinctValuesRequest
	lastKpi      *models.KpiQueryRequest
	testedConn   string
}

func (m *mockQueryService) TestConnection(ctx context.Context, provider models.Provider, connectionString string) error {
	m.testedConn = connectionString
	return m.err
}

func (m *mockQueryService) ExecuteSelect(ctx context.Context, def *models.ConnectionDefinition, sql string) (*models.ExecuteQueryResponse, error) {
	m.lastDef, m.lastSQL = def, sql
	return m.executeResp, m.err
}

func (m *mockQueryService) Chart(ctx context.Context, def *models.ConnectionDefinition, req *models.ChartQueryRequest) (*models.ExecuteQueryResponse, error) {
	m.lastDef, m.lastChart = def, req
	return m.chartResp, m.err
}

func (m *mockQueryService) DistinctValues(ctx context.Context, def *models.ConnectionDefinition, req *models.DistinctValuesRequest) (*models.DistinctValuesResponse, error) {
	m.lastDef, m.lastDistinct = def, req
	return m.distinctResp, m.err
}

func (m *mockQueryService) Kpi(ctx context.Context, def *models.ConnectionDefinition, req *models.KpiQueryRequest) (*models.KpiQueryResponse, error) {
	m.lastDef, m.lastKpi = def, req
	return m.kpiResp, m.err
}

func (m *mockQueryService) SampleTable(ctx context.Context, def *models.ConnectionDefinition, table string, columns []string, limit int) ([]*models.Row, error) {
	return []*models.Row{}, m.err
}

type mockSchemaService struct {
	tables    []string
	columns   []models.ColumnInfo
	err       error
	lastTable string
}

func (m *mockSchemaService) ListTables(ctx context.Context, def *models.ConnectionDefinition) ([]string, error) {
	return m.tables, m.err
}

func (m *mockSchemaService) ListColumns(ctx context.Context, def *models.ConnectionDefinition, table string) ([]models.ColumnInfo, error) {
	m.lastTable = table
	return m.columns, m.err
}

type mockTableContextService struct {
	contexts  []models.TableContext
	mentioned []string
}

func (m *mockTableContextService) BuildContext(ctx context.Context, def *models.ConnectionDefinition, mentioned []string) ([]models.TableContext, error) {
	m.mentioned = mentioned
	return m.contexts, nil
}

var (
	_ services.ConnectionService   = (*mockConnectionService)(nil)
	_ services.QueryService        = (*mockQueryService)(nil)
	_ services.SchemaService       = (*mockSchemaService)(nil)
	_ services.TableContextService = (*mockTableContextService)(nil)
)

const testConnectionID = "0f8fad5bd9cb469fa16570867728950e"

func newMockConnections() *mockConnectionService {
	return &mockConnectionService{defs: map[string]*models.ConnectionDefinition{
		testConnectionID: {
			ID:               testConnectionID,
			Name:             "Warehouse",
			Provider:         models.ProviderPostgres,
			ConnectionString: "host=db password=secret",
		},
	}}
}

// noAuth is a pass-through middleware.
func noAuth() *auth.Middleware {
	return auth.NewMiddleware(nil, nil, zap.NewNop())
}

// serve routes one request through mux.
func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func newAuthorizedRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(t, "analyst-1"))
	return req
}

func recordRequest(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
