package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/in-nis/classplan/internal/apperr"
)

type CopyNotesRequest struct {
	SelectedWeekID uint `json:"selected_week_id" binding:"required"`
	Group          int  `json:"group" binding:"required,gt=0"`
}

type TransferRequest struct {
	SourceWeekID uint `json:"source_week_id" binding:"required"`
	TargetWeekID uint `json:"target_week_id" binding:"required"`
	Group        int  `json:"group" binding:"required,gt=0"`
}

// CopyNotes godoc
// @Summary      Copy notes from another week
// @Description  Fills empty notes of this week from matching lessons of the selected week
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        weekId  path      int               true  "Target week ID"
// @Param        body    body      CopyNotesRequest  true  "Source week and group"
// @Success      200     {object}  DataResponse{data=map[string]int}
// @Failure      400     {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /weeks/{weekId}/notes/copy [post]
func (h *Handler) CopyNotes(c *gin.Context) {
	weekID, ok := idParam(c, "weekId")
	if !ok {
		return
	}
	var req CopyNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	updated, err := h.svc.CopyNotes(c.Request.Context(), currentUser(c), weekID, req.SelectedWeekID, req.Group)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": updated})
}

// ListNotesSources godoc
// @Summary      Weeks with notes to import
// @Tags         notes
// @Produce      json
// @Param        weekId  path      int  true  "Week to exclude"
// @Param        group   query     int  true  "Group number"
// @Success      200     {object}  DataResponse{data=[]service.NotesSource}
// @Security     BearerAuth
// @Router       /weeks/{weekId}/notes/sources [get]
func (h *Handler) ListNotesSources(c *gin.Context) {
	weekID, ok := idParam(c, "weekId")
	if !ok {
		return
	}
	group, ok := groupQuery(c)
	if !ok {
		return
	}
	if group == nil {
		fail(c, apperr.New(apperr.InvalidInput, "group is required"))
		return
	}

	sources, err := h.svc.ListWeeksForNotesImport(c.Request.Context(), currentUser(c), weekID, *group)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, sources)
}

// TransferPreview godoc
// @Summary      Count transferable notes
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        body  body      TransferRequest  true  "Weeks and group"
// @Success      200   {object}  DataResponse{data=map[string]int}
// @Security     BearerAuth
// @Router       /notes/transfer/preview [post]
func (h *Handler) TransferPreview(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	n, err := h.svc.TransferPreview(c.Request.Context(), currentUser(c), req.SourceWeekID, req.TargetWeekID, req.Group)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"eligible": n})
}

// TransferNotes godoc
// @Summary      Transfer notes between weeks
// @Description  Never overwrites notes that are already present
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        body  body      TransferRequest  true  "Weeks and group"
// @Success      200   {object}  DataResponse{data=service.TransferResult}
// @Security     BearerAuth
// @Router       /notes/transfer [post]
func (h *Handler) TransferNotes(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.svc.TransferNotes(c.Request.Context(), currentUser(c), req.SourceWeekID, req.TargetWeekID, req.Group)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
