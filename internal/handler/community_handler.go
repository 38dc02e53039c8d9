package handler

import (
	"net/http"

	"The_Connection/internal/model"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

type RoleReq struct {
	Role model.MemberRole `json:"role" binding:"required"`
}

type ChatReq struct {
	Content string `json:"content" binding:"required"`
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req model.Community
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

// List 支持 ?q= 按名称搜索
func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), currentUser(c), c.Query("q"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommunityHandler) Mine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CommunityHandler) GetBySlug(c *gin.Context) {
	out, err := h.svc.GetBySlug(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CommunityHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch model.CommunityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.Update(c.Request.Context(), currentUser(c), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CommunityHandler) Delete(c *gin.Context) {
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

func (h *CommunityHandler) Join(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Join(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) Members(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Members(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommunityHandler) SetRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req RoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	m, err := h.svc.SetRole(c.Request.Context(), currentUser(c), id, userID, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *CommunityHandler) CreateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.CommunityRoom
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	req.CommunityID = id
	out, err := h.svc.CreateRoom(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CommunityHandler) Rooms(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Rooms(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommunityHandler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c, "roomId")
	if !ok {
		return
	}
	if err := h.svc.DeleteRoom(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) SendChat(c *gin.Context) {
	id, ok := pathID(c, "roomId")
	if !ok {
		return
	}
	var req ChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	m, err := h.svc.SendChat(c.Request.Context(), currentUser(c), id, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ChatHistory ?after= 增量拉取
func (h *CommunityHandler) ChatHistory(c *gin.Context) {
	id, ok := pathID(c, "roomId")
	if !ok {
		return
	}
	list, err := h.svc.ChatHistory(c.Request.Context(), currentUser(c), id, queryUint(c, "after"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
