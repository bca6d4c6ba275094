package models

import "time"

type SignalKind string

const (
	SignalPump SignalKind = "PUMP"
	SignalTest SignalKind = "TEST"
)

// Signal is one announcement received from a remote detector through the
// signals hub. Consumed once, never persisted.
type Signal struct {
	AssetSymbol string
	Kind        SignalKind
	ObservedAt  time.Time // when the detector saw the announcement
	SentAt      time.Time // when the detector sent it to us
	SourceName  string
}
