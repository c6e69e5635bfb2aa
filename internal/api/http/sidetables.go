package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// LaunchRequest reports one ability launch
type LaunchRequest struct {
	BundleName  string `json:"bundle_name" binding:"required"`
	AbilityName string `json:"ability_name" binding:"required"`
	ModuleName  string `json:"module_name,omitempty"`
	UserID      *int32 `json:"user_id,omitempty"`
	LaunchTime  int64  `json:"launch_time,omitempty"`
}

// ListPreInstall returns the factory pre-install list
func (h *Handlers) ListPreInstall(c *gin.Context) {
	rows := h.preinstall.List()
	c.JSON(http.StatusOK, gin.H{"bundles": rows, "count": len(rows)})
}

// GetPreInstall returns one pre-install row
func (h *Handlers) GetPreInstall(c *gin.Context) {
	row, found := h.preinstall.Get(c.Param("name"))
	if !found {
		notFound(c, "preinstall record")
		return
	}
	c.JSON(http.StatusOK, row)
}

// GetUsageRecords returns up to ?max= usage records, most recent first
func (h *Handlers) GetUsageRecords(c *gin.Context) {
	max := 0
	if raw := c.Query("max"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max parameter"})
			return
		}
		max = v
	}
	recs := h.usage.GetUsageRecords(max)
	c.JSON(http.StatusOK, gin.H{"records": recs, "count": len(recs)})
}

// RecordLaunch counts a launch of an installed ability
func (h *Handlers) RecordLaunch(c *gin.Context) {
	var req LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid launch: " + err.Error()})
		return
	}
	userID := types.UnspecifiedUserID
	if req.UserID != nil {
		userID = *req.UserID
	}

	ctx := c.Request.Context()
	ability := types.AbilityInfo{Name: req.AbilityName, BundleName: req.BundleName, ModuleName: req.ModuleName}
	module, found := h.registry.GetHapModuleInfo(ctx, ability, userID)
	if !found {
		notFound(c, "ability")
		return
	}
	for _, a := range module.Abilities {
		if a.Name == req.AbilityName {
			ability = a
			break
		}
	}

	launchTime := req.LaunchTime
	if launchTime == 0 {
		launchTime = time.Now().UnixMilli()
	}
	if err := h.usage.OnAbilityLaunched(ctx, ability, launchTime); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "module_name": ability.ModuleName})
}
