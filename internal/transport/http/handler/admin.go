package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbox/internal/app"
	"chatbox/internal/transport/http/response"
)

type AdminHandler struct {
	statsService *app.StatsService
}

func NewAdminHandler(statsService *app.StatsService) *AdminHandler {
	return &AdminHandler{statsService: statsService}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.statsService.Collect(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "collect stats failed")
		return
	}
	response.OK(c, stats)
}
