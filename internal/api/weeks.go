package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/extract"
	"github.com/in-nis/classplan/internal/timetable"
)

const maxUploadSize = 10 << 20

type WeekRequest struct {
	Title string `json:"title" binding:"required"`
}

type ImportWeekRequest struct {
	Title     string         `json:"title" binding:"required"`
	Timetable timetable.Tree `json:"timetable" binding:"required"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

// ListWeeks godoc
// @Summary      Weeks of a class
// @Tags         weeks
// @Produce      json
// @Param        classId  path      int  true  "Class ID"
// @Success      200      {object}  DataResponse{data=[]models.Week}
// @Security     BearerAuth
// @Router       /classes/{classId}/weeks [get]
func (h *Handler) ListWeeks(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	weeks, err := h.svc.ListWeeks(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, weeks)
}

// CreateWeek godoc
// @Summary      Create an empty week
// @Tags         weeks
// @Accept       json
// @Produce      json
// @Param        classId  path      int          true  "Class ID"
// @Param        body     body      WeekRequest  true  "Week title"
// @Success      201      {object}  DataResponse{data=models.Week}
// @Security     BearerAuth
// @Router       /classes/{classId}/weeks [post]
func (h *Handler) CreateWeek(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	var req WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	week, err := h.svc.CreateWeek(c.Request.Context(), currentUser(c), classID, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, week)
}

// ImportWeek godoc
// @Summary      Import a week with its timetable
// @Description  timetable maps day → hour → lessons; specialization is a group number or a list
// @Tags         weeks
// @Accept       json
// @Produce      json
// @Param        classId  path      int                true  "Class ID"
// @Param        body     body      ImportWeekRequest  true  "Week and timetable"
// @Success      201      {object}  DataResponse{data=service.ImportResult}
// @Failure      400      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/weeks/import [post]
func (h *Handler) ImportWeek(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	var req ImportWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	h.importTree(c, classID, req.Title, req.Timetable)
}

func (h *Handler) importTree(c *gin.Context, classID uint, title string, tree timetable.Tree) {
	result, err := h.svc.ImportWeek(c.Request.Context(), currentUser(c), classID, title, tree)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, result)
}

// uploadedFile reads the "file" and "title" multipart fields.
func uploadedFile(c *gin.Context) (multipart.File, *multipart.FileHeader, string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	header, err := c.FormFile("file")
	if err != nil {
		fail(c, apperr.Wrap(apperr.InvalidInput, err, "file is required"))
		return nil, nil, "", false
	}
	file, err := header.Open()
	if err != nil {
		fail(c, apperr.Wrap(apperr.InvalidInput, err, "cannot read upload"))
		return nil, nil, "", false
	}
	return file, header, c.PostForm("title"), true
}

// UploadPDF godoc
// @Summary      Import a week from a PDF
// @Description  The PDF goes to the extraction service and the returned tree is imported
// @Tags         weeks
// @Accept       multipart/form-data
// @Produce      json
// @Param        classId  path      int     true  "Class ID"
// @Param        title    formData  string  true  "Week title"
// @Param        file     formData  file    true  "Timetable PDF"
// @Success      201      {object}  DataResponse{data=service.ImportResult}
// @Failure      502      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/weeks/upload [post]
func (h *Handler) UploadPDF(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	if !h.extractor.Enabled() {
		fail(c, apperr.New(apperr.ExtractionFailed, "extraction service not configured"))
		return
	}
	// Membership is checked before the upload leaves the service.
	if _, err := h.svc.RequireRole(c.Request.Context(), currentUser(c), classID); err != nil {
		fail(c, err)
		return
	}

	file, header, title, ok := uploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	tree, err := h.extractor.Extract(c.Request.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, extract.ErrFailed) {
			fail(c, apperr.Wrap(apperr.ExtractionFailed, err, "extraction service failed"))
			return
		}
		fail(c, err)
		return
	}
	h.importTree(c, classID, title, tree)
}

// UploadWorkbook godoc
// @Summary      Import a week from an xlsx workbook
// @Tags         weeks
// @Accept       multipart/form-data
// @Produce      json
// @Param        classId  path      int     true  "Class ID"
// @Param        title    formData  string  true  "Week title"
// @Param        file     formData  file    true  "Timetable workbook"
// @Success      201      {object}  DataResponse{data=service.ImportResult}
// @Failure      400      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{classId}/weeks/upload-xlsx [post]
func (h *Handler) UploadWorkbook(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		return
	}
	file, _, title, ok := uploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	tree, err := h.excel.Parse(file)
	if err != nil {
		fail(c, apperr.Wrap(apperr.InvalidTimetable, err, "cannot read workbook"))
		return
	}
	h.importTree(c, classID, title, tree)
}

// RenameWeek godoc
// @Summary      Rename a week
// @Tags         weeks
// @Accept       json
// @Produce      json
// @Param        weekId  path      int          true  "Week ID"
// @Param        body    body      WeekRequest  true  "New title"
// @Success      200     {object}  DataResponse{data=models.Week}
// @Security     BearerAuth
// @Router       /weeks/{weekId} [patch]
func (h *Handler) RenameWeek(c *gin.Context) {
	weekID, ok := idParam(c, "weekId")
	if !ok {
		return
	}
	var req WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	week, err := h.svc.RenameWeek(c.Request.Context(), currentUser(c), weekID, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, week)
}

// DeleteWeek godoc
// @Summary      Delete a week and its lessons
// @Tags         weeks
// @Param        weekId  path  int  true  "Week ID"
// @Success      204
// @Security     BearerAuth
// @Router       /weeks/{weekId} [delete]
func (h *Handler) DeleteWeek(c *gin.Context) {
	weekID, ok := idParam(c, "weekId")
	if !ok {
		return
	}
	if err := h.svc.DeleteWeek(c.Request.Context(), currentUser(c), weekID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTimetable godoc
// @Summary      Timetable of a week
// @Tags         weeks
// @Produce      json
// @Param        weekId  path      int  true   "Week ID"
// @Param        group   query     int  false  "Only lessons for this group"
// @Success      200     {object}  DataResponse{data=service.TimetableView}
// @Security     BearerAuth
// @Router       /weeks/{weekId}/timetable [get]
func (h *Handler) GetTimetable(c *gin.Context) {
	weekID, ok := idParam(c, "weekId")
	if !ok {
		return
	}
	group, ok := groupQuery(c)
	if !ok {
		return
	}

	view, err := h.svc.GetTimetable(c.Request.Context(), currentUser(c), weekID, group)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// UpdateLessonNotes godoc
// @Summary      Set lesson notes
// @Description  An empty string clears the notes
// @Tags         weeks
// @Accept       json
// @Produce      json
// @Param        entryId  path      int           true  "Timetable entry ID"
// @Param        body     body      NotesRequest  true  "Notes"
// @Success      200      {object}  DataResponse{data=models.TimetableEntry}
// @Security     BearerAuth
// @Router       /lessons/{entryId}/notes [patch]
func (h *Handler) UpdateLessonNotes(c *gin.Context) {
	entryID, ok := idParam(c, "entryId")
	if !ok {
		return
	}
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.svc.UpdateLessonNotes(c.Request.Context(), currentUser(c), entryID, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}
