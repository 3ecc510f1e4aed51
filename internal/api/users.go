package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UpdateMeRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// GetMe godoc
// @Summary      Current user
// @Description  Returns the caller, creating the user on first sign-in
// @Tags         user
// @Produce      json
// @Success      200  {object}  DataResponse{data=models.User}
// @Failure      401  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	respond(c, http.StatusOK, currentUser(c))
}

// UpdateMe godoc
// @Summary      Change nickname
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateMeRequest  true  "New nickname"
// @Success      200   {object}  DataResponse{data=models.User}
// @Failure      400   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /me [patch]
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	user, err := h.svc.UpdateNickname(c.Request.Context(), currentUser(c), req.Nickname)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}
