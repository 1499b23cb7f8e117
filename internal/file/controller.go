package file

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/middlewares"
	"hexapink-api/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FileController struct {
	FileService FileServiceAPI
	Logger      *zap.Logger
}

func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
	}
	return userID, ok
}

func (fc *FileController) ReadyFiles(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit, _ := util.Page(c.Query("page"), c.Query("limit"), defaultPageSize)

	files, err := fc.FileService.ReadyFiles(userID, page, limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (fc *FileController) RecentFiles(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	files, err := fc.FileService.RecentFiles(userID, c.Query("status"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (fc *FileController) CountFiles(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := fc.FileService.CountFiles(userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

// GET /api/file/:id/download
func (fc *FileController) Download(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	rc, f, err := fc.FileService.OpenFile(c.Request.Context(), userID, uint(id))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	defer rc.Close()

	name := util.SanitizeName(f.Title) + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil && fc.Logger != nil {
		fc.Logger.Warn("file download interrupted", zap.Uint("file_id", f.ID), zap.Error(err))
	}
}
