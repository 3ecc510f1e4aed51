package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/in-nis/classplan/internal/service"
)

type SaveColorsRequest struct {
	Teachers []service.TeacherColorInput `json:"teachers" binding:"dive"`
}

// ListTeacherColors godoc
// @Summary      Teacher color presets
// @Tags         colors
// @Produce      json
// @Param        classId  path      int  true  "Class ID"
// @Success      200      {object}  DataResponse{data=[]service.TeacherColorSet}
// @Security     BearerAuth
// @Router       /classes/{classId}/teacher-colors [get]
func (h *Handler) ListTeacherColors(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	colors, err := h.svc.ListTeacherColors(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, colors)
}

// SaveTeacherColors godoc
// @Summary      Save teacher color presets
// @Description  Renames propagate by id; subject overrides missing from the payload are removed
// @Tags         colors
// @Accept       json
// @Produce      json
// @Param        classId  path      int                true  "Class ID"
// @Param        body     body      SaveColorsRequest  true  "Presets"
// @Success      200      {object}  DataResponse{data=[]service.TeacherColorSet}
// @Failure      400      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/teacher-colors [put]
func (h *Handler) SaveTeacherColors(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	var req SaveColorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	colors, err := h.svc.SaveTeacherColors(c.Request.Context(), currentUser(c), classID, req.Teachers)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, colors)
}

// DeleteTeacherColor godoc
// @Summary      Delete a teacher's colors
// @Tags         colors
// @Param        classId  path  int     true  "Class ID"
// @Param        teacher  path  string  true  "Teacher code"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/teacher-colors/{teacher} [delete]
func (h *Handler) DeleteTeacherColor(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	if err := h.svc.DeleteTeacherColor(c.Request.Context(), currentUser(c), classID, c.Param("teacher")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetTeacherColors godoc
// @Summary      Restore the default presets
// @Tags         colors
// @Produce      json
// @Param        classId  path      int  true  "Class ID"
// @Success      200      {object}  DataResponse{data=[]service.TeacherColorSet}
// @Security     BearerAuth
// @Router       /classes/{classId}/teacher-colors/reset [post]
func (h *Handler) ResetTeacherColors(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	colors, err := h.svc.ResetTeacherColors(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, colors)
}
