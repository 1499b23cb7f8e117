package tag

import (
	"net/http"

	"hexapink-api/internal/apperr"

	"github.com/gin-gonic/gin"
)

type TagController struct {
	TagService TagServiceAPI
}

func (tc *TagController) GetTags(c *gin.Context) {
	tags, err := tc.TagService.List()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
