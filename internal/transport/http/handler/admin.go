package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"knowdesk/internal/repository"
	"knowdesk/internal/transport/http/response"
)

type AdminHandler struct {
	statsRepo *repository.StatsRepository
	eventRepo *repository.EventRepository
	orgName   string
}

func NewAdminHandler(statsRepo *repository.StatsRepository, eventRepo *repository.EventRepository, orgName string) *AdminHandler {
	return &AdminHandler{
		statsRepo: statsRepo,
		eventRepo: eventRepo,
		orgName:   orgName,
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.statsRepo.Collect()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "collect stats failed")
		return
	}

	response.OK(c, gin.H{
		"organization": h.orgName,
		"stats":        stats,
	})
}

func (h *AdminHandler) Activity(c *gin.Context) {
	events, err := h.eventRepo.ListRecent(parseLimit(c, 100))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list activity failed")
		return
	}
	response.OK(c, events)
}
