package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/in-nis/classplan/internal/models"
)

type ClassRequest struct {
	Title string `json:"title" binding:"required"`
}

type RoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// ListClasses godoc
// @Summary      My classes
// @Description  Lists the classes the caller belongs to with role and member count
// @Tags         classes
// @Produce      json
// @Success      200  {object}  DataResponse{data=[]service.ClassSummary}
// @Security     BearerAuth
// @Router       /classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.svc.ListClasses(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, classes)
}

// CreateClass godoc
// @Summary      Create a class
// @Description  The caller becomes owner; default teacher colors are seeded
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        body  body      ClassRequest  true  "Class title"
// @Success      201   {object}  DataResponse{data=models.Class}
// @Failure      400   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	class, err := h.svc.CreateClass(c.Request.Context(), currentUser(c), req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, class)
}

// GetClass godoc
// @Summary      Get a class
// @Tags         classes
// @Produce      json
// @Param        classId  path      int  true  "Class ID"
// @Success      200      {object}  DataResponse{data=service.ClassSummary}
// @Failure      403      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId} [get]
func (h *Handler) GetClass(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	class, err := h.svc.GetClass(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, class)
}

// RenameClass godoc
// @Summary      Rename a class
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        classId  path      int           true  "Class ID"
// @Param        body     body      ClassRequest  true  "New title"
// @Success      200      {object}  DataResponse{data=models.Class}
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId} [patch]
func (h *Handler) RenameClass(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	class, err := h.svc.RenameClass(c.Request.Context(), currentUser(c), classID, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, class)
}

// DeleteClass godoc
// @Summary      Delete a class
// @Description  Owner only. Removes memberships, invitations, colors, weeks and lessons.
// @Tags         classes
// @Param        classId  path  int  true  "Class ID"
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId} [delete]
func (h *Handler) DeleteClass(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	if err := h.svc.DeleteClass(c.Request.Context(), currentUser(c), classID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers godoc
// @Summary      Class members
// @Tags         members
// @Produce      json
// @Param        classId  path      int  true  "Class ID"
// @Success      200      {object}  DataResponse{data=[]service.Member}
// @Security     BearerAuth
// @Router       /classes/{classId}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	members, err := h.svc.ListMembers(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, members)
}

// UpdateMemberRole godoc
// @Summary      Promote or demote a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        classId  path      int          true  "Class ID"
// @Param        userId   path      int          true  "User ID"
// @Param        body     body      RoleRequest  true  "admin or member"
// @Success      200      {object}  DataResponse{data=models.Membership}
// @Failure      409      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/members/{userId} [patch]
func (h *Handler) UpdateMemberRole(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	m, err := h.svc.UpdateMemberRole(c.Request.Context(), currentUser(c), classID, userID, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, m)
}

// RemoveMember godoc
// @Summary      Leave a class or remove a member
// @Description  Targeting yourself leaves the class; an owner leaving hands the class over.
// @Tags         members
// @Produce      json
// @Param        classId  path      int  true  "Class ID"
// @Param        userId   path      int  true  "User ID"
// @Success      200      {object}  DataResponse{data=service.LeaveResult}
// @Failure      403      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/members/{userId} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	result, err := h.svc.RemoveOrLeave(c.Request.Context(), currentUser(c), classID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
