package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/stringify/internal/handlers/dto"
)

// Ping lets clients wake an idle server.
func Ping(c *gin.Context) {
	c.String(http.StatusOK, "Server started...  \n"+dto.FormatDate(time.Now()))
}
