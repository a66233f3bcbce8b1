package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

type settingHandler struct {
	settingService portssvc.SettingSvcFacade
}

func registerSettingRoutes(rg *gin.RouterGroup, settingService portssvc.SettingSvcFacade) {
	h := &settingHandler{settingService: settingService}

	settings := rg.Group("/settings")
	{
		settings.GET("", h.listSettings)
		settings.GET("/:key", h.getSetting)
		settings.PUT("/:key", h.putSetting)
	}
}

// listSettings godoc
// @Summary List ledger settings
// @Tags settings
// @Produce  json
// @Success 200 {array} dto.SettingResponse
// @Security BearerAuth
// @Router /settings [get]
func (h *settingHandler) listSettings(c *gin.Context) {
	settings, err := h.settingService.ListSettings(c.Request.Context())
	if err != nil {
		respondError(c, err, "list settings")
		return
	}
	c.JSON(http.StatusOK, dto.ToListSettingResponse(settings))
}

// getSetting godoc
// @Summary Get a ledger setting
// @Tags settings
// @Produce  json
// @Param   key path string true "Setting key"
// @Success 200 {object} dto.SettingResponse
// @Failure 404 {object} ErrorResponse "Setting not found"
// @Security BearerAuth
// @Router /settings/{key} [get]
func (h *settingHandler) getSetting(c *gin.Context) {
	setting, err := h.settingService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err, "get setting")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettingResponse(setting))
}

// putSetting godoc
// @Summary Declare or replace a ledger setting
// @Description The value is parsed by its kind. An existing key keeps its kind.
// @Tags settings
// @Accept  json
// @Produce  json
// @Param   key path string true "Setting key"
// @Param   setting body dto.PutSettingRequest true "Kind and raw value"
// @Success 200 {object} dto.SettingResponse
// @Failure 400 {object} ErrorResponse "Value does not parse or kind mismatch"
// @Security BearerAuth
// @Router /settings/{key} [put]
func (h *settingHandler) putSetting(c *gin.Context) {
	var req dto.PutSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	setting, err := h.settingService.PutSetting(c.Request.Context(), c.Param("key"), req, userID)
	if err != nil {
		respondError(c, err, "put setting")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettingResponse(setting))
}
