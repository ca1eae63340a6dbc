package ws

import (
	"talentvault_backend/internal/models"
)

// Router decides which connections receive an outbound event and delivers
// it. Delivery is fire-and-forget: no acknowledgment, no retry. Clients that
// are offline learn of the event from the persisted notification store.
type Router struct {
	manager *Manager
	bridge  *RedisBridge // nil in single-instance mode
}

func NewRouter(manager *Manager) *Router {
	return &Router{manager: manager}
}

// WithBridge attaches a redis bridge so events fan out across instances.
// The bridge replays published events into each instance's local manager.
func (r *Router) WithBridge(bridge *RedisBridge) *Router {
	r.bridge = bridge
	bridge.onIndustry = r.deliverIndustry
	bridge.onBroadcast = r.deliverBroadcast
	return r
}

// PublishIndustry routes an operational alert to the admin-notifications
// room only.
func (r *Router) PublishIndustry(ev IndustryEvent) {
	if r.bridge != nil {
		r.bridge.PublishIndustry(ev)
		return
	}
	r.deliverIndustry(ev)
}

// PublishBroadcast routes a broadcast. Individually-targeted broadcasts go
// to the recipients' personal rooms; everything else fans out to all
// connections with the role-target filter applied server-side.
func (r *Router) PublishBroadcast(ev BroadcastEvent) {
	if r.bridge != nil {
		r.bridge.PublishBroadcast(ev)
		return
	}
	r.deliverBroadcast(ev)
}

func (r *Router) deliverIndustry(ev IndustryEvent) {
	r.manager.EmitToRoom(RoomAdminNotifications, OutgoingFrame{
		Event:   EventIndustryNotification,
		Payload: ev,
	})
}

func (r *Router) deliverBroadcast(ev BroadcastEvent) {
	frame := OutgoingFrame{
		Event:   EventBroadcastNotification,
		Payload: ev,
	}

	if len(ev.TargetUserIDs) > 0 {
		for _, userID := range ev.TargetUserIDs {
			r.manager.EmitToRoom(RoomForUser(userID), frame)
		}
		return
	}

	targets := ev.Targets
	r.manager.EmitFiltered(frame, func(c *Client) bool {
		return models.RoleMatchesTargets(c.Role, targets)
	})
}
