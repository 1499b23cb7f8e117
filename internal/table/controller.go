package table

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/logs"
	"hexapink-api/internal/middlewares"
	"hexapink-api/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TableController struct {
	TableService TableServiceAPI
	LogService   logs.Recorder
	Logger       *zap.Logger
}

type tableIDsInput struct {
	TableIDs []uint `json:"tableIds"`
}

type readFileInput struct {
	Path      string `json:"path" binding:"required"`
	Delimiter string `json:"delimiter"`
}

type renameInput struct {
	TableName string `json:"tableName" binding:"required"`
}

// tagInput names the tag to change as oldTag or tag.
type tagInput struct {
	Tag    string `json:"tag"`
	OldTag string `json:"oldTag"`
	NewTag string `json:"newTag"`
}

func (tc *TableController) audit(c *gin.Context, action, message string, resource *string, meta interface{}) {
	entry := logs.SystemLog{Service: "table", Action: action, Message: message, Resource: resource}
	if uid, ok := middlewares.UserID(c); ok {
		entry.UserID = &uid
	}
	logs.Record(tc.LogService, tc.Logger, entry, meta)
}

func pathParamID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
		return 0, false
	}
	return uint(id), true
}

func (tc *TableController) CreateTable(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
		return
	}

	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "kind": apperr.KindValidation})
		return
	}

	in := CreateTableInput{
		TableName: c.PostForm("tableName"),
		Delimiter: c.PostForm("delimiter"),
		Tags:      util.ParseList(c.PostForm("tags")),
	}

	t, err := tc.TableService.CreateTable(c.Request.Context(), userID, in, upload)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	tc.audit(c, "CREATE_TABLE", fmt.Sprintf("Table created: %s", t.Name), &t.File,
		map[string]any{"table_id": t.ID, "leads": t.Leads, "columns": t.ColumnCount})
	c.JSON(http.StatusCreated, gin.H{"message": "Table created successfully", "table": t})
}

func optionalInt(c *gin.Context, key string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", key), "kind": apperr.KindValidation})
		return nil, false
	}
	return &v, true
}

func (tc *TableController) ListTables(c *gin.Context) {
	var f TableFilter
	var ok bool
	if f.MinColumns, ok = optionalInt(c, "minColumns"); !ok {
		return
	}
	if f.MaxColumns, ok = optionalInt(c, "maxColumns"); !ok {
		return
	}
	if f.MinLeads, ok = optionalInt(c, "minLeads"); !ok {
		return
	}
	if f.MaxLeads, ok = optionalInt(c, "maxLeads"); !ok {
		return
	}
	f.StartDate = c.Query("startDate")
	f.EndDate = c.Query("endDate")
	f.Page, f.Limit, _ = util.Page(c.Query("page"), c.Query("limit"), defaultPageSize)

	page, err := tc.TableService.ListTables(f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tc *TableController) AllTables(c *gin.Context) {
	tables, err := tc.TableService.AllTables()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (tc *TableController) FetchTableRows(c *gin.Context) {
	var in tableIDsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "kind": apperr.KindValidation})
		return
	}

	rows, err := tc.TableService.FetchTableRows(c.Request.Context(), in.TableIDs)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": rows})
}

func (tc *TableController) ReadFile(c *gin.Context) {
	var in readFileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required", "kind": apperr.KindValidation})
		return
	}

	rows, err := tc.TableService.ReadFile(c.Request.Context(), in.Path, in.Delimiter)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (tc *TableController) RenameTable(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	var in renameInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tableName is required", "kind": apperr.KindValidation})
		return
	}

	t, err := tc.TableService.RenameTable(id, in.TableName)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	tc.audit(c, "RENAME_TABLE", fmt.Sprintf("Table %d renamed to %s", t.ID, t.Name), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Table updated successfully", "table": t})
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	if err := tc.TableService.DeleteTable(c.Request.Context(), id); err != nil {
		apperr.Respond(c, err)
		return
	}
	tc.audit(c, "DELETE_TABLE", fmt.Sprintf("Table %d deleted", id), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

func bindTag(c *gin.Context) (tagInput, bool) {
	var in tagInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "kind": apperr.KindValidation})
			return in, false
		}
	}
	if in.OldTag != "" {
		in.Tag = in.OldTag
	}
	if in.Tag == "" {
		in.Tag = c.Query("tag")
	}
	return in, true
}

func (tc *TableController) AddTag(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	in, ok := bindTag(c)
	if !ok {
		return
	}

	t, err := tc.TableService.AddTag(id, in.Tag)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	tc.audit(c, "ADD_TAG", fmt.Sprintf("Tag %q added to table %d", strings.TrimSpace(in.Tag), id), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Tag added successfully", "table": t})
}

func (tc *TableController) RenameTag(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	in, ok := bindTag(c)
	if !ok {
		return
	}

	t, err := tc.TableService.RenameTag(id, in.Tag, in.NewTag)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	tc.audit(c, "UPDATE_TAG", fmt.Sprintf("Tag %q renamed to %q on table %d", in.Tag, in.NewTag, id), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Tag updated successfully", "table": t})
}

func (tc *TableController) RemoveTag(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	in, ok := bindTag(c)
	if !ok {
		return
	}

	t, err := tc.TableService.RemoveTag(id, in.Tag)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	tc.audit(c, "DELETE_TAG", fmt.Sprintf("Tag %q removed from table %d", in.Tag, id), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully", "table": t})
}

func (tc *TableController) SumLeads(c *gin.Context) {
	var in tableIDsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "kind": apperr.KindValidation})
		return
	}

	total, err := tc.TableService.SumLeads(in.TableIDs)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalLeads": total})
}
