package handler

import (
	"net/http"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
)

type MicroblogHandler struct {
	svc *service.MicroblogService
}

func NewMicroblogHandler(svc *service.MicroblogService) *MicroblogHandler {
	return &MicroblogHandler{svc: svc}
}

func (h *MicroblogHandler) Create(c *gin.Context) {
	var req model.Microblog
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

// List ?author=&community=&parent= ，parent 为空时只返回顶层微博
func (h *MicroblogHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), repository.MicroblogFilter{
		AuthorID:    queryUint(c, "author"),
		CommunityID: queryUint(c, "community"),
		ParentID:    queryUint(c, "parent"),
		ViewerID:    currentUser(c),
		Limit:       queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MicroblogHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MicroblogHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch model.MicroblogPatch
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

func (h *MicroblogHandler) Delete(c *gin.Context) {
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

func (h *MicroblogHandler) Like(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Like(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MicroblogHandler) Unlike(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Unlike(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MicroblogHandler) Liked(c *gin.Context) {
	ids, err := h.svc.Liked(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}
