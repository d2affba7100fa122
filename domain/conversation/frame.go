package conversation

// Frame types exchanged on the live channel.
const (
	FrameJoin    = "join"
	FrameLeave   = "leave"
	FrameSend    = "send"
	FrameJoined  = "joined"
	FrameLeft    = "left"
	FrameMessage = "message"
	FrameError   = "error"
)

// Frame is the JSON envelope of every live-channel payload.
type Frame struct {
	Type     string   `json:"type"`
	RoomID   int64    `json:"roomId,omitempty"`
	Content  string   `json:"content,omitempty"`
	SenderID int64    `json:"senderId,omitempty"`
	Message  *Message `json:"message,omitempty"`
	Error    string   `json:"error,omitempty"`
}
