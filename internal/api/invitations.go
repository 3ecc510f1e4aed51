package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CreateInvitationRequest struct {
	Expires    bool   `json:"expires"`
	Expiration string `json:"expiration" example:"2026-12-31"`
}

type AcceptInvitationRequest struct {
	Code string `json:"code" binding:"required,max=16"`
}

// ListInvitations godoc
// @Summary      Class invitations
// @Tags         invitations
// @Produce      json
// @Param        classId  path      int  true  "Class ID"
// @Success      200      {object}  DataResponse{data=[]service.InvitationView}
// @Security     BearerAuth
// @Router       /classes/{classId}/invitations [get]
func (h *Handler) ListInvitations(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	invs, err := h.svc.ListInvitations(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, invs)
}

// CreateInvitation godoc
// @Summary      Create an invitation code
// @Description  expires=false never expires; an empty expiration defaults to 30 days
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        classId  path      int                      true  "Class ID"
// @Param        body     body      CreateInvitationRequest  true  "Expiration"
// @Success      201      {object}  DataResponse{data=service.InvitationView}
// @Failure      400      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/invitations [post]
func (h *Handler) CreateInvitation(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	inv, err := h.svc.CreateInvitation(c.Request.Context(), currentUser(c), classID, req.Expires, req.Expiration)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, inv)
}

// CheckInvitation godoc
// @Summary      Inspect an invitation code
// @Description  Public. Unknown codes answer found=false.
// @Tags         invitations
// @Produce      json
// @Param        code  path      string  true  "Invitation code"
// @Success      200   {object}  DataResponse{data=service.InvitationCheck}
// @Router       /invitations/check/{code} [get]
func (h *Handler) CheckInvitation(c *gin.Context) {
	check, err := h.svc.CheckInvitation(c.Request.Context(), c.Param("code"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, check)
}

// AcceptInvitation godoc
// @Summary      Join a class by code
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        body  body      AcceptInvitationRequest  true  "Code"
// @Success      200   {object}  DataResponse{data=service.AcceptResult}
// @Failure      404   {object}  ErrorResponse
// @Failure      410   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /invitations/accept [post]
func (h *Handler) AcceptInvitation(c *gin.Context) {
	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.svc.AcceptInvitation(c.Request.Context(), currentUser(c), req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

// DeleteInvitation godoc
// @Summary      Revoke an invitation
// @Tags         invitations
// @Param        invitationId  path  int  true  "Invitation ID"
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /invitations/{invitationId} [delete]
func (h *Handler) DeleteInvitation(c *gin.Context) {
	id, ok := idParam(c, "invitationId")
	if !ok {
		return
	}
	if err := h.svc.DeleteInvitation(c.Request.Context(), currentUser(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
