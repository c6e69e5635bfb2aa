package notify

import (
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// DefaultSource is the CloudEvents source of bundle broadcasts
const DefaultSource = "bundlemgr"

// System broadcast event types
const (
	EventPackageAdded         = "usual.event.PACKAGE_ADDED"
	EventPackageRemoved       = "usual.event.PACKAGE_REMOVED"
	EventPackageChanged       = "usual.event.PACKAGE_CHANGED"
	EventPackageReplaced      = "usual.event.PACKAGE_REPLACED"
	EventPackageEnableChanged = "usual.event.PACKAGE_ENABLE_CHANGED"
)

var eventTypes = map[types.NotifyType]string{
	types.NotifyInstall:           EventPackageAdded,
	types.NotifyUninstallBundle:   EventPackageRemoved,
	types.NotifyUninstallModule:   EventPackageChanged,
	types.NotifyUpdate:            EventPackageReplaced,
	types.NotifyAbilityEnable:     EventPackageEnableChanged,
	types.NotifyApplicationEnable: EventPackageEnableChanged,
}

// EventType returns the broadcast event type for t
func EventType(t types.NotifyType) (string, bool) {
	name, ok := eventTypes[t]
	return name, ok
}

// NewBundleEvent builds the system broadcast for a successful notification
func NewBundleEvent(source string, data types.NotifyData) (cloudevents.Event, bool) {
	eventType, ok := EventType(data.Type)
	if !ok {
		return cloudevents.Event{}, false
	}

	event := cloudevents.NewEvent()
	event.SetID(id.NewEventID().String())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetSubject(data.BundleName)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	event.SetExtension("userid", data.UserID)
	event.SetExtension("uid", data.UID)
	_ = event.SetData(cloudevents.ApplicationJSON, data)
	return event, true
}
