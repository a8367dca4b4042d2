package realtime

// Типы клиентских сообщений.
const (
	MessageJoinStoryRoom  = "join-story-room"
	MessageLeaveStoryRoom = "leave-story-room"
	MessageJoinNode       = "join-node"
	MessageLeaveNode      = "leave-node"
)

// События, рассылаемые сервером в комнату истории. Инициатор изменения
// получает событие наравне с остальными.
const (
	EventNodeCreated         = "node-created"
	EventNodeUpdated         = "node-updated"
	EventNodeDeleted         = "node-deleted"
	EventConnectionCreated   = "connection-created"
	EventConnectionDeleted   = "connection-deleted"
	EventNodePositionUpdated = "node-position-updated"
	EventNewVersionPublished = "new-version-published"
	EventUserJoinedDraft     = "user-joined-story-draft"
	EventUserLeftDraft       = "user-left-story-draft"
	EventUserJoinedNode      = "user-joined-node"
	EventUserLeftNode        = "user-left-node"
	EventJoinDraftError      = "join-story-draft-error"
)

// ClientMessage — входящий кадр от клиента редактора. История при входе
// в комнату определяется сервером по versionId.
type ClientMessage struct {
	Type      string `json:"type"`
	VersionID string `json:"versionId,omitempty"`
	NodeID    string `json:"nodeId,omitempty"`
}

// ServerEvent — исходящий кадр. Payload сериализуется как есть.
type ServerEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}
