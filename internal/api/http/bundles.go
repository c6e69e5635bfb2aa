package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/installer"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// InstallRequest is the body of POST /v1/bundles
type InstallRequest struct {
	Bundle          *types.InnerBundleInfo `json:"bundle"`
	UserID          int32                  `json:"user_id"`
	ReplaceExisting bool                   `json:"replace_existing"`
}

// EnableRequest toggles an application or ability
type EnableRequest struct {
	Enabled     *bool  `json:"enabled"`
	ModuleName  string `json:"module_name,omitempty"`
	AbilityName string `json:"ability_name,omitempty"`
}

// ListBundles returns every bundle visible to the user
func (h *Handlers) ListBundles(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	flags, ok := int32Query(c, "flags")
	if !ok {
		return
	}
	infos, found := h.registry.GetBundleInfos(c.Request.Context(), types.BundleFlag(flags), userID)
	if !found {
		infos = []types.BundleInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"bundles": infos, "count": len(infos)})
}

// ListBundleNames returns the names of bundles installed for the user,
// disabled apps included
func (h *Handlers) ListBundleNames(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	names, found := h.registry.GetBundleList(c.Request.Context(), userID)
	if !found {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"names": names, "count": len(names)})
}

// GetBundle returns one bundle
func (h *Handlers) GetBundle(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	flags, ok := int32Query(c, "flags")
	if !ok {
		return
	}
	info, found := h.registry.GetBundleInfo(c.Request.Context(), c.Param("name"), types.BundleFlag(flags), userID)
	if !found {
		notFound(c, "bundle")
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetApplication returns the application view of one bundle
func (h *Handlers) GetApplication(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	flags, ok := int32Query(c, "flags")
	if !ok {
		return
	}
	info, found := h.registry.GetApplicationInfo(c.Request.Context(), c.Param("name"), types.ApplicationFlag(flags), userID)
	if !found {
		notFound(c, "application")
		return
	}
	c.JSON(http.StatusOK, info)
}

// ListApplications returns the application view of every bundle
func (h *Handlers) ListApplications(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	flags, ok := int32Query(c, "flags")
	if !ok {
		return
	}
	infos, found := h.registry.GetApplicationInfos(c.Request.Context(), types.ApplicationFlag(flags), userID)
	if !found {
		infos = []types.ApplicationInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"applications": infos, "count": len(infos)})
}

// GetInstallState returns the install state of a bundle
func (h *Handlers) GetInstallState(c *gin.Context) {
	state, found := h.registry.GetBundleInstallState(c.Param("name"))
	if !found {
		notFound(c, "install state")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundle_name": c.Param("name"), "state": state.String()})
}

// GetLaunchWant returns the want that launches a bundle
func (h *Handlers) GetLaunchWant(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	want, found := h.registry.GetLaunchWantForBundle(c.Request.Context(), c.Param("name"), userID)
	if !found {
		notFound(c, "launch ability")
		return
	}
	c.JSON(http.StatusOK, want)
}

// GetBundleUsers returns the per-user infos of a bundle
func (h *Handlers) GetBundleUsers(c *gin.Context) {
	infos, found := h.registry.GetInnerBundleUserInfos(c.Param("name"))
	if !found {
		notFound(c, "bundle")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": infos})
}

// GetBundleGids returns the gids of a bundle for a user
func (h *Handlers) GetBundleGids(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	gids, found := h.registry.GetBundleGids(c.Request.Context(), c.Param("name"), userID)
	if !found {
		notFound(c, "bundle")
		return
	}
	c.JSON(http.StatusOK, gin.H{"gids": gids})
}

// GetAbilityLabel returns the label of one ability
func (h *Handlers) GetAbilityLabel(c *gin.Context) {
	label, found := h.registry.GetAbilityLabel(c.Param("name"), c.Param("ability"))
	if !found {
		notFound(c, "ability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label})
}

// Install installs a parsed bundle record
func (h *Handlers) Install(c *gin.Context) {
	var req InstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid install request: " + err.Error()})
		return
	}
	res := h.installer.Install(c.Request.Context(), req.Bundle, req.UserID,
		installer.InstallOptions{ReplaceExisting: req.ReplaceExisting})
	writeResult(c, res)
}

// Uninstall removes a bundle for ?user= (default user 0)
func (h *Handlers) Uninstall(c *gin.Context) {
	userID, ok := int32Query(c, "user")
	if !ok {
		return
	}
	opts := installer.UninstallOptions{KeepUsage: c.Query("keep_usage") == "true"}
	writeResult(c, h.installer.Uninstall(c.Request.Context(), c.Param("name"), userID, opts))
}

// UninstallModule removes one module of a bundle
func (h *Handlers) UninstallModule(c *gin.Context) {
	userID, ok := int32Query(c, "user")
	if !ok {
		return
	}
	opts := installer.UninstallOptions{KeepUsage: c.Query("keep_usage") == "true"}
	writeResult(c, h.installer.UninstallModule(c.Request.Context(), c.Param("name"), c.Param("module"), userID, opts))
}

// SetApplicationEnabled enables or disables an application and reports it
func (h *Handlers) SetApplicationEnabled(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	var req EnableRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}

	ctx := c.Request.Context()
	name := c.Param("name")
	if err := h.registry.SetApplicationEnabled(ctx, name, *req.Enabled, userID); err != nil {
		registryError(c, err)
		return
	}
	h.hub.NotifyBundleStatus(ctx, types.NotifyData{
		BundleName: name,
		Type:       types.NotifyApplicationEnable,
		UserID:     h.registry.GetUserID(ctx, userID),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": *req.Enabled})
}

// IsApplicationEnabled reports whether an application is enabled
func (h *Handlers) IsApplicationEnabled(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	enabled, err := h.registry.IsApplicationEnabled(c.Request.Context(), c.Param("name"), userID)
	if err != nil {
		registryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

// SetAbilityEnabled enables or disables one ability and reports it
func (h *Handlers) SetAbilityEnabled(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	var req EnableRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil || req.AbilityName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled and ability_name are required"})
		return
	}

	ctx := c.Request.Context()
	ability := types.AbilityInfo{
		Name:       req.AbilityName,
		BundleName: c.Param("name"),
		ModuleName: req.ModuleName,
	}
	if err := h.registry.SetAbilityEnabled(ctx, ability, *req.Enabled, userID); err != nil {
		registryError(c, err)
		return
	}
	h.hub.NotifyBundleStatus(ctx, types.NotifyData{
		BundleName:  ability.BundleName,
		ModuleName:  ability.ModuleName,
		AbilityName: ability.Name,
		Type:        types.NotifyAbilityEnable,
		UserID:      h.registry.GetUserID(ctx, userID),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": *req.Enabled})
}

// IsAbilityEnabled reports whether one ability is enabled
func (h *Handlers) IsAbilityEnabled(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	ability := types.AbilityInfo{
		Name:       c.Query("ability"),
		BundleName: c.Param("name"),
		ModuleName: c.Query("module"),
	}
	enabled, err := h.registry.IsAbilityEnabled(c.Request.Context(), ability, userID)
	if err != nil {
		registryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}
