package mobs

import "time"

type EntryKind string

const (
	KindAssigned  EntryKind = "assigned"
	KindRecovered EntryKind = "recovered"
	KindTamed     EntryKind = "tamed"
	KindSpawned   EntryKind = "spawned"
	KindCustom    EntryKind = "custom"
	KindDeath     EntryKind = "death"
	KindEvicted   EntryKind = "evicted"
)

// LedgerEntry is one line of the append-only mob ledger. World is empty for
// sweeper evictions, which cannot consult the host.
type LedgerEntry struct {
	Time       time.Time `json:"time"`
	Kind       EntryKind `json:"kind"`
	CreatureID string    `json:"creature_id"`
	World      string    `json:"world,omitempty"`
	Species    string    `json:"species"`
	Level      int       `json:"level"`
	Reason     string    `json:"reason,omitempty"`
}

// Ledger receives every level change; implementations must not block.
type Ledger interface {
	WriteEntry(e LedgerEntry) error
}

// TagUpdate is published after every render.
type TagUpdate struct {
	CreatureID string `json:"creature_id"`
	World      string `json:"world"`
	Species    string `json:"species"`
	Level      int    `json:"level"`
	NameTag    string `json:"name_tag"`
}

// TagSink receives rendered tags; implementations must not block.
type TagSink interface {
	PublishTag(u TagUpdate)
}

// ReportSink receives boot and sweep summaries.
type ReportSink interface {
	RecordBoot(r InitReport)
	RecordSweep(r SweepReport)
}

// MultiLedger fans entries out to several ledgers, returning the first error.
type MultiLedger []Ledger

func (m MultiLedger) WriteEntry(e LedgerEntry) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteEntry(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
