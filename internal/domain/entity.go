package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EntityKind distinguishes tickets from tasks.
type EntityKind string

const (
	EntityKindTicket EntityKind = "TICKET"
	EntityKindTask   EntityKind = "TASK"
)

// EntityStatus enumerates lifecycle states for tracked entities.
type EntityStatus string

const (
	StatusOpen       EntityStatus = "OPEN"
	StatusInProgress EntityStatus = "IN_PROGRESS"
	StatusHold       EntityStatus = "HOLD"
	StatusResolved   EntityStatus = "RESOLVED"
	StatusClosed     EntityStatus = "CLOSED"
)

// IsClosedClass reports whether the status belongs to the closed class.
// Closed-class entities are excluded from sweeps and their SLA state is
// frozen.
func (s EntityStatus) IsClosedClass() bool {
	return s == StatusResolved || s == StatusClosed
}

// TrackState is the evaluator's per-track verdict for an entity.
type TrackState string

const (
	TrackPending   TrackState = "PENDING"
	TrackOnTrack   TrackState = "ON_TRACK"
	TrackAtRisk    TrackState = "AT_RISK"
	TrackBreached  TrackState = "BREACHED"
	TrackSatisfied TrackState = "SATISFIED"
)

// Fired-set level markers. Escalation levels use their 1-based level number.
const (
	FiredLevelReminder = -1 // one-shot at-risk reminder
	FiredLevelBreach   = 0  // base deadline breach
)

type firedKey struct {
	track Track
	level int
}

// FiredSet records which one-shot SLA actions already happened for an
// entity, keyed by (track, level). It is the single source of truth the
// evaluator consults before firing anything.
type FiredSet struct {
	marks map[firedKey]struct{}
}

// NewFiredSet returns an empty set.
func NewFiredSet() FiredSet {
	return FiredSet{marks: make(map[firedKey]struct{})}
}

// ParseFiredSet rebuilds a set from its persisted "track:level" keys.
// Unknown entries are rejected so a corrupted row surfaces instead of
// silently re-firing escalations.
func ParseFiredSet(keys []string) (FiredSet, error) {
	set := NewFiredSet()
	for _, key := range keys {
		track, levelStr, ok := strings.Cut(key, ":")
		if !ok {
			return FiredSet{}, fmt.Errorf("malformed fired-set key %q", key)
		}
		level, err := strconv.Atoi(levelStr)
		if err != nil {
			return FiredSet{}, fmt.Errorf("malformed fired-set key %q: %w", key, err)
		}
		switch Track(track) {
		case TrackResponse, TrackResolution:
		default:
			return FiredSet{}, fmt.Errorf("unknown track in fired-set key %q", key)
		}
		set.Mark(Track(track), level)
	}
	return set, nil
}

// Has reports whether the (track, level) action already fired.
func (f FiredSet) Has(track Track, level int) bool {
	if f.marks == nil {
		return false
	}
	_, ok := f.marks[firedKey{track: track, level: level}]
	return ok
}

// Mark records the (track, level) action as fired.
func (f *FiredSet) Mark(track Track, level int) {
	if f.marks == nil {
		f.marks = make(map[firedKey]struct{})
	}
	f.marks[firedKey{track: track, level: level}] = struct{}{}
}

// HighestLevel returns the highest escalation level fired on a track, or 0
// when only the base breach (or nothing) fired.
func (f FiredSet) HighestLevel(track Track) int {
	highest := 0
	for key := range f.marks {
		if key.track == track && key.level > highest {
			highest = key.level
		}
	}
	return highest
}

// Keys returns the persisted representation, sorted for stable storage.
func (f FiredSet) Keys() []string {
	out := make([]string, 0, len(f.marks))
	for key := range f.marks {
		out = append(out, fmt.Sprintf("%s:%d", key.track, key.level))
	}
	sort.Strings(out)
	return out
}

// Len returns the number of fired marks.
func (f FiredSet) Len() int {
	return len(f.marks)
}

// Clone returns an independent copy of the set.
func (f FiredSet) Clone() FiredSet {
	copied := NewFiredSet()
	for key := range f.marks {
		copied.marks[key] = struct{}{}
	}
	return copied
}

// EntityAttributes are the matching dimensions the policy matcher sees.
type EntityAttributes struct {
	Priority     Priority
	Category     string
	Department   string
	CustomerTier CustomerTier
}

// TrackedEntity is a ticket or task under SLA monitoring. The engine reads
// most fields and mutates only the SLA bookkeeping: matched policy
// reference, computed deadlines, and the fired set.
type TrackedEntity struct {
	ID           string
	TenantID     string
	Kind         EntityKind
	Priority     Priority
	Category     string
	Department   string
	CustomerTier CustomerTier
	Status       EntityStatus

	CreatedAt       time.Time
	AnchorAt        *time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time

	PolicyID           *string
	TargetPriority     Priority
	ResponseDeadline   *time.Time
	ResolutionDeadline *time.Time
	Fired              FiredSet
	Paused             bool

	UpdatedAt time.Time
}

// Attributes returns the entity's policy-matching dimensions.
func (e *TrackedEntity) Attributes() EntityAttributes {
	return EntityAttributes{
		Priority:     e.Priority,
		Category:     e.Category,
		Department:   e.Department,
		CustomerTier: e.CustomerTier,
	}
}
