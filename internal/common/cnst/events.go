package cnst

// EventType is the name of a wire-level event carried in the "@" field.
type EventType string

// Inbound events accepted by the dispatcher.
const (
	EventSignup           EventType = "signup"
	EventSignin           EventType = "signin"
	EventGetOneUser       EventType = "get one user"
	EventOnlineList       EventType = "online list"
	EventChangeNickname   EventType = "change nickname"
	EventChangePassword   EventType = "change password"
	EventRelocate         EventType = "relocate"
	EventCreateRoom       EventType = "create room"
	EventOnlineRoomList   EventType = "online room list"
	EventSendPublic       EventType = "send public"
	EventUpdatePermission EventType = "update permission"
)

// Outbound events emitted by handlers and the broadcast engine.
const (
	EventConnected   EventType = "connected"
	EventNewToken    EventType = "new_token"
	EventSuccess     EventType = "success"
	EventUserInfo    EventType = "user_info"
	EventOnlineUsers EventType = "online_list"
	EventRoomList    EventType = "room_list"
	EventNewMessage  EventType = "new_message"
	EventSystem      EventType = "system"
	EventRankUpdated EventType = "rank_updated"
)

func (e EventType) String() string {
	return string(e)
}
