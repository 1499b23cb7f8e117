package table

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/csvio"
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/iancoleman/orderedmap"
)

type fakeTableService struct {
	createIn    CreateTableInput
	createOwner uint
	createErr   error

	filter   TableFilter
	rowsIDs  []uint
	rowsErr  error
	readPath string

	tagCalls []string
	tagErr   error
	sumIDs   []uint
}

func (f *fakeTableService) CreateTable(_ context.Context, ownerID uint, in CreateTableInput, upload *multipart.FileHeader) (*Table, error) {
	f.createOwner, f.createIn = ownerID, in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &Table{ID: 7, Name: in.TableName, File: TablesDir + "/1_" + upload.Filename, Leads: 2, ColumnCount: 1}, nil
}

func (f *fakeTableService) ListTables(filter TableFilter) (*TablePage, error) {
	f.filter = filter
	return &TablePage{Tables: []Table{{ID: 1, Name: "a"}}, TotalPages: 1, CurrentPage: filter.Page}, nil
}

func (f *fakeTableService) AllTables() ([]Table, error) {
	return []Table{{ID: 1}, {ID: 2}}, nil
}

func (f *fakeTableService) FetchTableRows(_ context.Context, ids []uint) ([]TableRows, error) {
	f.rowsIDs = ids
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	rec := orderedmap.New()
	rec.Set("b", "2")
	rec.Set("a", "1")
	return []TableRows{{ID: ids[0], TableName: "t", Columns: []string{"b", "a"}, Data: []csvio.Record{rec}}}, nil
}

func (f *fakeTableService) ReadFile(_ context.Context, p, _ string) ([]csvio.Record, error) {
	f.readPath = p
	return nil, apperr.NotFound("file")
}

func (f *fakeTableService) RenameTable(id uint, name string) (*Table, error) {
	return &Table{ID: id, Name: name}, nil
}

func (f *fakeTableService) DeleteTable(_ context.Context, id uint) error {
	if id == 404 {
		return apperr.NotFound("table 404")
	}
	return nil
}

func (f *fakeTableService) AddTag(id uint, name string) (*Table, error) {
	f.tagCalls = append(f.tagCalls, "add:"+name)
	if f.tagErr != nil {
		return nil, f.tagErr
	}
	return &Table{ID: id, Tags: []string{name}}, nil
}

func (f *fakeTableService) RenameTag(id uint, oldName, newName string) (*Table, error) {
	f.tagCalls = append(f.tagCalls, "rename:"+oldName+">"+newName)
	return &Table{ID: id, Tags: []string{newName}}, nil
}

func (f *fakeTableService) RemoveTag(id uint, name string) (*Table, error) {
	f.tagCalls = append(f.tagCalls, "remove:"+name)
	return &Table{ID: id}, nil
}

func (f *fakeTableService) SumLeads(ids []uint) (int64, error) {
	f.sumIDs = ids
	return 42, nil
}

func setupRouter(svc TableServiceAPI, rec *fakeLogService, authed bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authed {
		r.Use(func(c *gin.Context) {
			c.Set(middlewares.ContextUserID, uint(3))
			c.Next()
		})
	}
	tc := &TableController{TableService: svc, LogService: rec}
	r.POST("/api/table/create", tc.CreateTable)
	r.GET("/api/table", tc.ListTables)
	r.GET("/api/table/all", tc.AllTables)
	r.POST("/api/table/tables", tc.FetchTableRows)
	r.POST("/api/table/file", tc.ReadFile)
	r.PUT("/api/table/update/:id", tc.RenameTable)
	r.DELETE("/api/table/delete/:id", tc.DeleteTable)
	r.POST("/api/table/addTag/:id", tc.AddTag)
	r.PUT("/api/table/updateTag/:id", tc.RenameTag)
	r.DELETE("/api/table/deleteTag/:id", tc.RemoveTag)
	r.POST("/api/table/total-leads", tc.SumLeads)
	return r
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonReq(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, w.Body.String())
	}
	return out
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d got %d body=%s", want, w.Code, w.Body.String())
	}
}

func TestCreateTableHandler_Success(t *testing.T) {
	svc := &fakeTableService{}
	rec := &fakeLogService{}
	r := setupRouter(svc, rec, true)

	req := newMultipartReq(http.MethodPost, "/api/table/create",
		map[string]string{"tableName": "Leads", "delimiter": "semicolon", "tags": `["b2b","fr"]`},
		"file", "leads.csv", []byte("a\n1\n"))
	w := do(r, req)

	assertStatus(t, w, http.StatusCreated)
	if svc.createOwner != 3 || svc.createIn.Delimiter != "semicolon" || strings.Join(svc.createIn.Tags, ",") != "b2b,fr" {
		t.Fatalf("unexpected call: owner=%d in=%+v", svc.createOwner, svc.createIn)
	}
	body := decode(t, w)
	table := body["table"].(map[string]any)
	if table["tableName"] != "Leads" {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(rec.Calls) != 1 || rec.Calls[0].Action != "CREATE_TABLE" || *rec.Calls[0].UserID != 3 {
		t.Fatalf("audit not recorded: %+v", rec.Calls)
	}
}

func TestCreateTableHandler_Errors(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		r := setupRouter(&fakeTableService{}, &fakeLogService{}, false)
		w := do(r, newMultipartReq(http.MethodPost, "/api/table/create", nil, "file", "a.csv", []byte("a\n1\n")))
		assertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("missing file", func(t *testing.T) {
		r := setupRouter(&fakeTableService{}, &fakeLogService{}, true)
		w := do(r, newMultipartReq(http.MethodPost, "/api/table/create", map[string]string{"tableName": "x"}, "", "", nil))
		assertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("service kinds map to status", func(t *testing.T) {
		cases := []struct {
			err  error
			code int
			kind string
		}{
			{&csvio.InvalidDelimiterError{Delimiter: "colon"}, http.StatusBadRequest, "invalid_delimiter"},
			{&csvio.EmptyDatasetError{}, http.StatusBadRequest, "empty_dataset"},
			{&csvio.ParseError{Line: 3, Err: errors.New("bare quote")}, http.StatusBadRequest, "parse_error"},
			{apperr.Wrap(apperr.KindStorage, errors.New("bucket gone"), "failed to store upload"), http.StatusBadGateway, "storage_error"},
			{errors.New("db down"), http.StatusInternalServerError, "internal"},
		}
		for _, tc := range cases {
			rec := &fakeLogService{}
			r := setupRouter(&fakeTableService{createErr: tc.err}, rec, true)
			w := do(r, newMultipartReq(http.MethodPost, "/api/table/create", map[string]string{"tableName": "x"}, "file", "a.csv", []byte("a\n")))
			assertStatus(t, w, tc.code)
			if got := decode(t, w)["kind"]; got != tc.kind {
				t.Fatalf("kind=%v want %s", got, tc.kind)
			}
			if len(rec.Calls) != 0 {
				t.Fatalf("failed ingest should not be audited")
			}
		}
	})
}

func TestCreateTableHandler_AuditFailureDoesNotFailRequest(t *testing.T) {
	r := setupRouter(&fakeTableService{}, &fakeLogService{Err: errors.New("logs table gone")}, true)
	w := do(r, newMultipartReq(http.MethodPost, "/api/table/create", map[string]string{"tableName": "x"}, "file", "a.csv", []byte("a\n1\n")))
	assertStatus(t, w, http.StatusCreated)
}

func TestListTablesHandler(t *testing.T) {
	svc := &fakeTableService{}
	r := setupRouter(svc, &fakeLogService{}, true)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/table?minColumns=2&maxLeads=10&page=2&limit=3&startDate=2025-01-01", nil))
	assertStatus(t, w, http.StatusOK)
	if svc.filter.MinColumns == nil || *svc.filter.MinColumns != 2 || svc.filter.MaxColumns != nil {
		t.Fatalf("unexpected filter: %+v", svc.filter)
	}
	if *svc.filter.MaxLeads != 10 || svc.filter.Page != 2 || svc.filter.Limit != 3 || svc.filter.StartDate != "2025-01-01" {
		t.Fatalf("unexpected filter: %+v", svc.filter)
	}
	body := decode(t, w)
	if body["currentPage"] != float64(2) {
		t.Fatalf("unexpected body: %v", body)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/table?minLeads=abc", nil))
	assertStatus(t, w, http.StatusBadRequest)
}

func TestAllTablesHandler(t *testing.T) {
	r := setupRouter(&fakeTableService{}, &fakeLogService{}, true)
	w := do(r, httptest.NewRequest(http.MethodGet, "/api/table/all", nil))
	assertStatus(t, w, http.StatusOK)
	if tables := decode(t, w)["tables"].([]any); len(tables) != 2 {
		t.Fatalf("tables=%v", tables)
	}
}

func TestFetchTableRowsHandler(t *testing.T) {
	svc := &fakeTableService{}
	r := setupRouter(svc, &fakeLogService{}, true)

	w := do(r, jsonReq(http.MethodPost, "/api/table/tables", `{"tableIds":[5,6]}`))
	assertStatus(t, w, http.StatusOK)
	if len(svc.rowsIDs) != 2 || svc.rowsIDs[1] != 6 {
		t.Fatalf("ids=%v", svc.rowsIDs)
	}
	if !strings.Contains(w.Body.String(), `"data":[{"b":"2","a":"1"}]`) {
		t.Fatalf("row key order not preserved: %s", w.Body.String())
	}

	svc.rowsErr = apperr.NotFound("table 6")
	w = do(r, jsonReq(http.MethodPost, "/api/table/tables", `{"tableIds":[5,6]}`))
	assertStatus(t, w, http.StatusNotFound)

	w = do(r, jsonReq(http.MethodPost, "/api/table/tables", `{"tableIds":"x"}`))
	assertStatus(t, w, http.StatusBadRequest)
}

func TestReadFileHandler(t *testing.T) {
	svc := &fakeTableService{}
	r := setupRouter(svc, &fakeLogService{}, true)

	w := do(r, jsonReq(http.MethodPost, "/api/table/file", `{"path":"uploads/x.csv","delimiter":"comma"}`))
	assertStatus(t, w, http.StatusNotFound)
	if svc.readPath != "uploads/x.csv" {
		t.Fatalf("path=%s", svc.readPath)
	}

	w = do(r, jsonReq(http.MethodPost, "/api/table/file", `{"delimiter":"comma"}`))
	assertStatus(t, w, http.StatusBadRequest)
}

func TestRenameAndDeleteHandlers(t *testing.T) {
	rec := &fakeLogService{}
	r := setupRouter(&fakeTableService{}, rec, true)

	w := do(r, jsonReq(http.MethodPut, "/api/table/update/4", `{"tableName":"renamed"}`))
	assertStatus(t, w, http.StatusOK)

	w = do(r, jsonReq(http.MethodPut, "/api/table/update/abc", `{"tableName":"renamed"}`))
	assertStatus(t, w, http.StatusBadRequest)

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/table/delete/4", nil))
	assertStatus(t, w, http.StatusOK)

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/table/delete/404", nil))
	assertStatus(t, w, http.StatusNotFound)

	if len(rec.Calls) != 2 || rec.Calls[0].Action != "RENAME_TABLE" || rec.Calls[1].Action != "DELETE_TABLE" {
		t.Fatalf("audit calls=%+v", rec.Calls)
	}
}

func TestTagHandlers(t *testing.T) {
	svc := &fakeTableService{}
	r := setupRouter(svc, &fakeLogService{}, true)

	assertStatus(t, do(r, jsonReq(http.MethodPost, "/api/table/addTag/1", `{"tag":"vip"}`)), http.StatusOK)
	assertStatus(t, do(r, jsonReq(http.MethodPut, "/api/table/updateTag/1", `{"tag":"vip","newTag":"gold"}`)), http.StatusOK)
	assertStatus(t, do(r, jsonReq(http.MethodPut, "/api/table/updateTag/1", `{"oldTag":"gold","newTag":"silver"}`)), http.StatusOK)
	assertStatus(t, do(r, httptest.NewRequest(http.MethodDelete, "/api/table/deleteTag/1?tag=silver", nil)), http.StatusOK)

	want := "add:vip|rename:vip>gold|rename:gold>silver|remove:silver"
	if got := strings.Join(svc.tagCalls, "|"); got != want {
		t.Fatalf("calls=%s want %s", got, want)
	}

	svc.tagErr = apperr.New(apperr.KindTagConflict, `tag "vip" already exists on this table`)
	w := do(r, jsonReq(http.MethodPost, "/api/table/addTag/1", `{"tag":"vip"}`))
	assertStatus(t, w, http.StatusBadRequest)
	if decode(t, w)["kind"] != "tag_conflict" {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestSumLeadsHandler(t *testing.T) {
	svc := &fakeTableService{}
	r := setupRouter(svc, &fakeLogService{}, true)

	w := do(r, jsonReq(http.MethodPost, "/api/table/total-leads", `{"tableIds":[1,2,3]}`))
	assertStatus(t, w, http.StatusOK)
	if decode(t, w)["totalLeads"] != float64(42) || len(svc.sumIDs) != 3 {
		t.Fatalf("body=%s ids=%v", w.Body.String(), svc.sumIDs)
	}
}
