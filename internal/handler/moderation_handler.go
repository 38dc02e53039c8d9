package handler

import (
	"net/http"

	"The_Connection/internal/model"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	svc *service.ModerationService
}

type BlockReq struct {
	BlockedUserID uint64 `json:"blockedUserId"`
	Reason        string `json:"reason"`
}

func NewModerationHandler(svc *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{svc: svc}
}

func (h *ModerationHandler) Report(c *gin.Context) {
	var req model.ContentReport
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.Report(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *ModerationHandler) Reports(c *gin.Context) {
	list, err := h.svc.Reports(c.Request.Context(), currentUser(c), model.ReportStatus(c.Query("status")), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ModerationHandler) Resolve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var upd model.ReportUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.Resolve(c.Request.Context(), currentUser(c), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Block blockedUserId 为空由 service 返回校验错误
func (h *ModerationHandler) Block(c *gin.Context) {
	var req BlockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	b, err := h.svc.Block(c.Request.Context(), currentUser(c), req.BlockedUserID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *ModerationHandler) Unblock(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.Unblock(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *ModerationHandler) Blocks(c *gin.Context) {
	list, err := h.svc.Blocks(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
