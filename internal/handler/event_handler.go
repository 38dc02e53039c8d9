package handler

import (
	"net/http"
	"strconv"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	svc *service.EventService
}

type RSVPReq struct {
	Status model.RSVPStatus `json:"status" binding:"required"`
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) Create(c *gin.Context) {
	var req model.Event
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

func (h *EventHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), repository.EventFilter{
		ViewerID:    currentUser(c),
		CreatorID:   queryUint(c, "creator"),
		CommunityID: queryUint(c, "community"),
		PublicOnly:  c.Query("public") == "true",
		Limit:       queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *EventHandler) Upcoming(c *gin.Context) {
	list, err := h.svc.Upcoming(c.Request.Context(), currentUser(c), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Nearby ?lat=&lng=&radius= 半径单位公里
func (h *EventHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		badParams(c)
		return
	}
	radius, _ := strconv.ParseFloat(c.Query("radius"), 64)
	list, err := h.svc.Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *EventHandler) Get(c *gin.Context) {
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

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch model.EventPatch
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

func (h *EventHandler) Delete(c *gin.Context) {
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

func (h *EventHandler) RSVP(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RSVPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	out, err := h.svc.RSVP(c.Request.Context(), currentUser(c), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *EventHandler) CancelRSVP(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.CancelRSVP(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *EventHandler) RSVPs(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.RSVPs(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
