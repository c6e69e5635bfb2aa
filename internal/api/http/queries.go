package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// QueryRequest resolves a want against installed components
type QueryRequest struct {
	Want   types.Want `json:"want"`
	Flags  int32      `json:"flags"`
	UserID *int32     `json:"user_id,omitempty"`
}

func (r QueryRequest) user() int32 {
	if r.UserID == nil {
		return types.UnspecifiedUserID
	}
	return *r.UserID
}

func bindQuery(c *gin.Context) (QueryRequest, bool) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return req, false
	}
	return req, true
}

// QueryAbility resolves a want to one ability
func (h *Handlers) QueryAbility(c *gin.Context) {
	req, ok := bindQuery(c)
	if !ok {
		return
	}
	info, found := h.registry.QueryAbilityInfo(c.Request.Context(), req.Want, types.AbilityFlag(req.Flags), req.user())
	if !found {
		notFound(c, "ability")
		return
	}
	c.JSON(http.StatusOK, info)
}

// QueryAbilities resolves a want to every matching ability
func (h *Handlers) QueryAbilities(c *gin.Context) {
	req, ok := bindQuery(c)
	if !ok {
		return
	}
	infos, found := h.registry.QueryAbilityInfos(c.Request.Context(), req.Want, types.AbilityFlag(req.Flags), req.user())
	if !found {
		notFound(c, "ability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"abilities": infos, "count": len(infos)})
}

// QueryLauncherAbilities returns the launcher entries matching a want
func (h *Handlers) QueryLauncherAbilities(c *gin.Context) {
	req, ok := bindQuery(c)
	if !ok {
		return
	}
	infos, found := h.registry.QueryLauncherAbilityInfos(c.Request.Context(), req.Want, req.user())
	if !found {
		notFound(c, "launcher ability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"abilities": infos, "count": len(infos)})
}

// QueryExtensions resolves a want to extension abilities
func (h *Handlers) QueryExtensions(c *gin.Context) {
	req, ok := bindQuery(c)
	if !ok {
		return
	}
	infos, found := h.registry.QueryExtensionAbilityInfos(c.Request.Context(), req.Want, types.ExtensionFlag(req.Flags), req.user())
	if !found {
		notFound(c, "extension")
		return
	}
	c.JSON(http.StatusOK, gin.H{"extensions": infos, "count": len(infos)})
}

// QueryExtensionsByType lists extensions of ?type=
func (h *Handlers) QueryExtensionsByType(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	infos, found := h.registry.QueryExtensionAbilityInfosByType(c.Request.Context(), types.ExtensionType(c.Query("type")), userID)
	if !found {
		notFound(c, "extension")
		return
	}
	c.JSON(http.StatusOK, gin.H{"extensions": infos, "count": len(infos)})
}

// QueryHapModule returns the module hosting the ability in the body
func (h *Handlers) QueryHapModule(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	var ability types.AbilityInfo
	if err := c.ShouldBindJSON(&ability); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ability: " + err.Error()})
		return
	}
	info, found := h.registry.GetHapModuleInfo(c.Request.Context(), ability, userID)
	if !found {
		notFound(c, "module")
		return
	}
	c.JSON(http.StatusOK, info)
}

// QueryByURI resolves ?uri= to a data ability
func (h *Handlers) QueryByURI(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	flags, ok := int32Query(c, "flags")
	if !ok {
		return
	}
	info, found := h.registry.QueryAbilityInfoByURI(c.Request.Context(), c.Query("uri"), types.AbilityFlag(flags), userID)
	if !found {
		notFound(c, "ability")
		return
	}
	c.JSON(http.StatusOK, info)
}

// QueryAllByURI resolves ?uri= to every matching data ability
func (h *Handlers) QueryAllByURI(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	infos, found := h.registry.QueryAbilityInfosByURI(c.Request.Context(), c.Query("uri"), userID)
	if !found {
		notFound(c, "ability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"abilities": infos, "count": len(infos)})
}

// QueryExtensionByURI resolves ?uri= to a data share extension
func (h *Handlers) QueryExtensionByURI(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	info, found := h.registry.QueryExtensionAbilityInfoByURI(c.Request.Context(), c.Query("uri"), userID)
	if !found {
		notFound(c, "extension")
		return
	}
	c.JSON(http.StatusOK, info)
}

// QueryByMetadata lists bundles declaring metadata :name
func (h *Handlers) QueryByMetadata(c *gin.Context) {
	infos, found := h.registry.GetBundleInfosByMetaData(c.Param("name"))
	if !found {
		infos = []types.BundleInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"bundles": infos, "count": len(infos)})
}

// QueryKeepAlive lists keep-alive system bundles
func (h *Handlers) QueryKeepAlive(c *gin.Context) {
	infos, found := h.registry.QueryKeepAliveBundleInfos()
	if !found {
		infos = []types.BundleInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"bundles": infos, "count": len(infos)})
}
