package collection

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
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

type CollectionController struct {
	CollectionService CollectionServiceAPI
	LogService        logs.Recorder
	Logger            *zap.Logger
}

type matchInput struct {
	Type      string   `json:"type"`
	Countries []string `json:"countries"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": apperr.KindValidation})
}

func (cc *CollectionController) audit(c *gin.Context, action, message string) {
	entry := logs.SystemLog{Service: "collection", Action: action, Message: message}
	if uid, ok := middlewares.UserID(c); ok {
		entry.UserID = &uid
	}
	logs.Record(cc.LogService, cc.Logger, entry, nil)
}

func pathParamID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid collection id")
		return 0, false
	}
	return uint(id), true
}

// bindForm reads a multipart collection form. countries and columns arrive
// as JSON-encoded strings.
func bindForm(c *gin.Context) (CollectionInput, *multipart.FileHeader, bool) {
	in := CollectionInput{
		Title:       c.PostForm("title"),
		Type:        c.PostForm("type"),
		Description: c.PostForm("description"),
	}

	if v := strings.TrimSpace(c.PostForm("countries")); v != "" {
		if err := json.Unmarshal([]byte(v), &in.Countries); err != nil {
			badRequest(c, "countries must be a JSON array of strings")
			return in, nil, false
		}
	}
	if v := strings.TrimSpace(c.PostForm("columns")); v != "" {
		if err := json.Unmarshal([]byte(v), &in.Columns); err != nil {
			badRequest(c, "columns must be a JSON array of column objects")
			return in, nil, false
		}
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"fee", &in.Fee}, {"discount", &in.Discount}} {
		if v := strings.TrimSpace(c.PostForm(f.name)); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				badRequest(c, "invalid "+f.name)
				return in, nil, false
			}
			*f.dst = n
		}
	}
	if v := strings.TrimSpace(c.PostForm("featured")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "invalid featured")
			return in, nil, false
		}
		in.Featured = b
	}

	image, _ := c.FormFile("file")
	return in, image, true
}

// POST /api/collection/create (multipart)
func (cc *CollectionController) CreateCollection(c *gin.Context) {
	in, image, ok := bindForm(c)
	if !ok {
		return
	}
	col, err := cc.CollectionService.CreateCollection(c.Request.Context(), in, image)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	cc.audit(c, "CREATE_COLLECTION", fmt.Sprintf("Collection %d created", col.ID))
	c.JSON(http.StatusCreated, col)
}

// PUT /api/collection/update/:id (multipart)
func (cc *CollectionController) UpdateCollection(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	in, image, ok := bindForm(c)
	if !ok {
		return
	}
	col, err := cc.CollectionService.UpdateCollection(c.Request.Context(), id, in, image)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	cc.audit(c, "UPDATE_COLLECTION", fmt.Sprintf("Collection %d updated", id))
	c.JSON(http.StatusOK, col)
}

// PUT /api/collection/update-fields/:id
func (cc *CollectionController) UpdateFields(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	var in FieldsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	col, err := cc.CollectionService.UpdateFields(id, in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	cc.audit(c, "UPDATE_COLLECTION", fmt.Sprintf("Collection %d fields updated", id))
	c.JSON(http.StatusOK, gin.H{"message": "Collection updated successfully.", "updatedCollection": col})
}

func (cc *CollectionController) GetCollection(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	col, err := cc.CollectionService.GetCollection(id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

func (cc *CollectionController) ListCollections(c *gin.Context) {
	page, limit, _ := util.Page(c.Query("page"), c.Query("limit"), defaultPageSize)
	res, err := cc.CollectionService.ListCollections(page, limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (cc *CollectionController) FeaturedCollections(c *gin.Context) {
	cols, err := cc.CollectionService.FeaturedCollections()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cols)
}

// POST /api/collection/one
func (cc *CollectionController) MatchingCollections(c *gin.Context) {
	var in matchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cols, err := cc.CollectionService.MatchingCollections(in.Type, in.Countries)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cols)
}

func (cc *CollectionController) DeleteCollection(c *gin.Context) {
	id, ok := pathParamID(c)
	if !ok {
		return
	}
	if err := cc.CollectionService.DeleteCollection(c.Request.Context(), id); err != nil {
		apperr.Respond(c, err)
		return
	}
	cc.audit(c, "DELETE_COLLECTION", fmt.Sprintf("Collection %d deleted", id))
	c.JSON(http.StatusOK, gin.H{"message": "Collection deleted successfully"})
}
