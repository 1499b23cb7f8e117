package logs

import (
	"errors"
	"net/http"

	"hexapink-api/internal/util"

	"github.com/gin-gonic/gin"
)

type LogServiceAPI interface {
	GetLogs(input LogFilterInput) ([]LogRow, LogAggregates, int64, int, error)
}

type LogController struct {
	LogService LogServiceAPI
}

func (lc *LogController) GetLogs(c *gin.Context) {
	var input LogFilterInput
	if err := c.ShouldBindQuery(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, aggs, total, totalPages, err := lc.LogService.GetLogs(input)
	if err != nil {
		if errors.Is(err, util.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        rows,
		"page":        page,
		"total":       total,
		"total_pages": totalPages,
		"aggregates":  aggs,
	})
}
