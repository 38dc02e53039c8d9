package handler

import (
	"net/http"
	"strconv"

	"The_Connection/internal/model"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
)

type PrayerHandler struct {
	svc *service.PrayerService
}

type AnsweredReq struct {
	Description string `json:"answeredDescription"`
}

func NewPrayerHandler(svc *service.PrayerService) *PrayerHandler {
	return &PrayerHandler{svc: svc}
}

func (h *PrayerHandler) Create(c *gin.Context) {
	var req model.PrayerRequest
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

// List 当前用户可见的祷告请求
func (h *PrayerHandler) List(c *gin.Context) {
	list, err := h.svc.ListVisible(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Mine ?answered=true|false
func (h *PrayerHandler) Mine(c *gin.Context) {
	var answered *bool
	if v := c.Query("answered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badParams(c)
			return
		}
		answered = &b
	}
	list, err := h.svc.ListMine(c.Request.Context(), currentUser(c), answered)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PrayerHandler) Get(c *gin.Context) {
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

func (h *PrayerHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch model.PrayerRequestPatch
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

func (h *PrayerHandler) MarkAnswered(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AnsweredReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.MarkAnswered(c.Request.Context(), currentUser(c), id, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *PrayerHandler) Delete(c *gin.Context) {
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

func (h *PrayerHandler) Pray(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Pray(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PrayerHandler) Prayers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Prayers(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
