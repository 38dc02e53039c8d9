package handler

import (
	"net/http"

	"The_Connection/internal/model"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	svc *service.ConnectionService
}

type ConnectionStatusReq struct {
	Status model.ConnectionStatus `json:"status" binding:"required"`
}

func NewConnectionHandler(svc *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{svc: svc}
}

// Request 向 :userId 发起关系请求
func (h *ConnectionHandler) Request(c *gin.Context) {
	otherID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	conn, err := h.svc.Request(c.Request.Context(), currentUser(c), otherID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

func (h *ConnectionHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ConnectionStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	conn, err := h.svc.SetStatus(c.Request.Context(), currentUser(c), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// List ?status=pending|accepted|blocked
func (h *ConnectionHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), currentUser(c), model.ConnectionStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
