package observerproto

// Version is the name-tag feed protocol version.
const Version = "1.0"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeHello     = "HELLO"
	TypeTags      = "TAGS"
)

// Client -> Server. First message on the feed connection; may be re-sent to
// change filters. Empty filters match everything.
type SubscribeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Worlds          []string `json:"worlds,omitempty"`
	Species         []string `json:"species,omitempty"`
	MinLevel        int      `json:"min_level,omitempty"`
}

// Server -> Client. Sent once the subscription is accepted.
type HelloMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	Worlds          []string `json:"worlds"`
}

// Server -> Client. Tags rendered since the previous batch, oldest first.
// Dropped counts updates discarded because the client fell behind.
type TagsMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tags            []TagUpdate `json:"tags"`
	Dropped         uint64      `json:"dropped,omitempty"`
}

type TagUpdate struct {
	CreatureID string `json:"creature_id"`
	World      string `json:"world"`
	Species    string `json:"species"`
	Level      int    `json:"level"`
	NameTag    string `json:"name_tag"`
	Plain      string `json:"plain"`
}
