package notify

import (
	"go.uber.org/zap"
)

// PermissionCallback is told when the permissions of a uid change.
// Implementations must be comparable; registration identity is ==.
type PermissionCallback interface {
	OnPermissionsChanged(uid int32)
}

type permissionListener struct {
	cb   PermissionCallback
	all  bool
	uids map[int32]struct{}
}

func (l *permissionListener) wants(uid int32) bool {
	if l.all {
		return true
	}
	_, ok := l.uids[uid]
	return ok
}

// find returns the listener registered for cb. Caller holds permMu.
func (h *Hub) find(cb PermissionCallback) *permissionListener {
	for _, l := range h.listeners {
		if l.cb == cb {
			return l
		}
	}
	return nil
}

// RegisterPermissionsChanged subscribes cb to changes of uids. Registering
// the same endpoint again widens its uid set.
func (h *Hub) RegisterPermissionsChanged(uids []int32, cb PermissionCallback) bool {
	if cb == nil || len(uids) == 0 {
		return false
	}

	h.permMu.Lock()
	l := h.find(cb)
	fresh := l == nil
	if fresh {
		l = &permissionListener{cb: cb, uids: make(map[int32]struct{}, len(uids))}
		h.listeners = append(h.listeners, l)
	}
	for _, uid := range uids {
		l.uids[uid] = struct{}{}
	}
	h.permMu.Unlock()

	if fresh {
		h.watchPermissionCallback(cb)
	}
	h.log.Debug("Permission callback registered", zap.Int32s("uids", uids))
	return true
}

// RegisterAllPermissionsChanged subscribes cb to changes of every uid
func (h *Hub) RegisterAllPermissionsChanged(cb PermissionCallback) bool {
	if cb == nil {
		return false
	}

	h.permMu.Lock()
	l := h.find(cb)
	fresh := l == nil
	if fresh {
		l = &permissionListener{cb: cb, uids: make(map[int32]struct{})}
		h.listeners = append(h.listeners, l)
	}
	l.all = true
	h.permMu.Unlock()

	if fresh {
		h.watchPermissionCallback(cb)
	}
	return true
}

// UnregisterPermissionsChanged removes cb from every permission subscription
func (h *Hub) UnregisterPermissionsChanged(cb PermissionCallback) bool {
	if cb == nil {
		return false
	}

	h.permMu.Lock()
	defer h.permMu.Unlock()

	for i, l := range h.listeners {
		if l.cb == cb {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// NotifyPermissionsChanged tells every unscoped listener and every listener
// scoped to uid
func (h *Hub) NotifyPermissionsChanged(uid int32) {
	h.permMu.RLock()
	var targets []PermissionCallback
	for _, l := range h.listeners {
		if l.wants(uid) {
			targets = append(targets, l.cb)
		}
	}
	h.permMu.RUnlock()

	for _, cb := range targets {
		cb.OnPermissionsChanged(uid)
	}
}

func (h *Hub) watchPermissionCallback(cb PermissionCallback) {
	dn, ok := cb.(DeathNotifier)
	if !ok {
		return
	}
	go func() {
		<-dn.Done()
		if h.UnregisterPermissionsChanged(cb) {
			h.log.Info("Pruned dead permission callback")
		}
	}()
}
