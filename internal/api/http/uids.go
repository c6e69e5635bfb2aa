package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetBundleForUid returns the bundle owning :uid
func (h *Handlers) GetBundleForUid(c *gin.Context) {
	uid, ok := int32Param(c, "uid")
	if !ok {
		return
	}
	name, found := h.registry.GetBundleNameForUid(uid)
	if !found {
		notFound(c, "uid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "bundle_name": name, "system": h.registry.CheckIsSystemAppByUid(uid)})
}

// GetBundlesForUid returns every bundle sharing :uid
func (h *Handlers) GetBundlesForUid(c *gin.Context) {
	uid, ok := int32Param(c, "uid")
	if !ok {
		return
	}
	names, found := h.registry.GetBundlesForUid(uid)
	if !found {
		notFound(c, "uid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "bundles": names})
}

// GetNameForUid returns the display name for :uid
func (h *Handlers) GetNameForUid(c *gin.Context) {
	uid, ok := int32Param(c, "uid")
	if !ok {
		return
	}
	name, found := h.registry.GetNameForUid(uid)
	if !found {
		notFound(c, "uid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "name": name})
}

// CheckSystemUid reports whether :uid belongs to a system app
func (h *Handlers) CheckSystemUid(c *gin.Context) {
	uid, ok := int32Param(c, "uid")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "system": h.registry.CheckIsSystemAppByUid(uid)})
}

// GetGidsForUid returns the gids of ?bundle= for :uid
func (h *Handlers) GetGidsForUid(c *gin.Context) {
	uid, ok := int32Param(c, "uid")
	if !ok {
		return
	}
	gids, found := h.registry.GetBundleGidsByUid(c.Query("bundle"), uid)
	if !found {
		notFound(c, "uid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "gids": gids})
}

// ListUsers returns the registered user ids
func (h *Handlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.registry.GetAllUser()})
}

// AddUser registers :id
func (h *Handlers) AddUser(c *gin.Context) {
	userID, ok := int32Param(c, "id")
	if !ok {
		return
	}
	if userID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id must not be negative"})
		return
	}
	h.registry.AddUserID(userID)
	c.JSON(http.StatusCreated, gin.H{"user_id": userID})
}

// RemoveUser unregisters :id
func (h *Handlers) RemoveUser(c *gin.Context) {
	userID, ok := int32Param(c, "id")
	if !ok {
		return
	}
	if !h.registry.HasUserID(userID) {
		notFound(c, "user")
		return
	}
	h.registry.RemoveUserID(userID)
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}
