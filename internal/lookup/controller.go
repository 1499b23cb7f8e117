package lookup

import (
	"net/http"
	"strconv"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/middlewares"
	"hexapink-api/internal/util"

	"github.com/gin-gonic/gin"
)

type LookupController struct {
	Service LookupServiceAPI
}

func (lc *LookupController) CreateLookup(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
		return
	}
	var in CreateLookupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required", "kind": apperr.KindValidation})
		return
	}

	l, err := lc.Service.CreateLookup(c.Request.Context(), userID, in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (lc *LookupController) LookupsByUser(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
		return
	}
	page, limit, _ := util.Page(c.Query("page"), c.Query("limit"), defaultPageSize)

	out, err := lc.Service.LookupsByUser(userID, page, limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (lc *LookupController) DeleteLookup(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lookup id"})
		return
	}

	if err := lc.Service.DeleteLookup(userID, uint(id)); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lookup deleted successfully"})
}
