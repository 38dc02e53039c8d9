package handler

import (
	"net/http"

	"The_Connection/internal/model"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
)

type LivestreamHandler struct {
	svc *service.LivestreamService
}

type ReviewReq struct {
	Status model.ApplicationStatus `json:"status" binding:"required"`
	Notes  string                  `json:"reviewNotes"`
}

func NewLivestreamHandler(svc *service.LivestreamService) *LivestreamHandler {
	return &LivestreamHandler{svc: svc}
}

func (h *LivestreamHandler) Create(c *gin.Context) {
	var req model.Livestream
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *LivestreamHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *LivestreamHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *LivestreamHandler) Apply(c *gin.Context) {
	var req model.LivestreamerApplication
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.Apply(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *LivestreamHandler) MyApplication(c *gin.Context) {
	out, err := h.svc.MyApplication(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestreamHandler) Applications(c *gin.Context) {
	list, err := h.svc.Applications(c.Request.Context(), currentUser(c), model.ApplicationStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *LivestreamHandler) Review(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.Review(c.Request.Context(), currentUser(c), id, req.Status, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestreamHandler) Stats(c *gin.Context) {
	out, err := h.svc.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
