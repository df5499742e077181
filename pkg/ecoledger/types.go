package ecoledger

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// ActivityKind enumerates the recognized green activities.
type ActivityKind string

const (
	ActivityElectricitySaved ActivityKind = "electricity_saved"
	ActivityWalkBikeCommute  ActivityKind = "walk_bike_commute"
	ActivityWasteRecycled    ActivityKind = "waste_recycled"
	ActivityTreesPlanted     ActivityKind = "trees_planted"
	ActivitySolarPowerUsed   ActivityKind = "solar_power_used"
	ActivityPaperSaved       ActivityKind = "paper_saved"
	ActivityWaterSaved       ActivityKind = "water_saved"
)

var activityKinds = []ActivityKind{
	ActivityElectricitySaved,
	ActivityWalkBikeCommute,
	ActivityWasteRecycled,
	ActivityTreesPlanted,
	ActivitySolarPowerUsed,
	ActivityPaperSaved,
	ActivityWaterSaved,
}

var activityLabels = map[ActivityKind]string{
	ActivityElectricitySaved: "Electricity saved",
	ActivityWalkBikeCommute:  "Walk/Bike Commute",
	ActivityWasteRecycled:    "Waste recycled",
	ActivityTreesPlanted:     "Trees planted",
	ActivitySolarPowerUsed:   "Solar power used",
	ActivityPaperSaved:       "Paper Saved",
	ActivityWaterSaved:       "Water Saved",
}

// ActivityKinds returns the fixed activity universe in declaration order.
func ActivityKinds() []ActivityKind {
	kinds := make([]ActivityKind, len(activityKinds))
	copy(kinds, activityKinds)
	return kinds
}

// ParseActivityKind validates a raw activity string.
func ParseActivityKind(raw string) (ActivityKind, error) {
	candidate := ActivityKind(strings.TrimSpace(raw))
	if _, known := emissionFactors[candidate]; !known {
		return "", fmt.Errorf("%w: %q", ErrInvalidActivity, raw)
	}
	return candidate, nil
}

// String returns the wire form of the activity kind.
func (activity ActivityKind) String() string {
	return string(activity)
}

// Label returns the human-readable activity name.
func (activity ActivityKind) Label() string {
	label, known := activityLabels[activity]
	if !known {
		return string(activity)
	}
	return label
}

// Role enumerates the organization roles an actor can log under.
type Role string

const (
	RoleStudent        Role = "student"
	RoleFacultyStaff   Role = "faculty_staff"
	RoleAdministration Role = "administration"
	RoleEcoClubLead    Role = "eco_club_lead"
)

var roles = []Role{RoleStudent, RoleFacultyStaff, RoleAdministration, RoleEcoClubLead}

var roleLabels = map[Role]string{
	RoleStudent:        "Student",
	RoleFacultyStaff:   "Faculty/Staff",
	RoleAdministration: "Administration",
	RoleEcoClubLead:    "Eco-Club Lead",
}

// Roles returns the fixed role universe in declaration order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	candidate := Role(strings.TrimSpace(raw))
	if _, known := roleLabels[candidate]; !known {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
	return candidate, nil
}

// String returns the wire form of the role.
func (role Role) String() string {
	return string(role)
}

// Label returns the human-readable role name.
func (role Role) Label() string {
	label, known := roleLabels[role]
	if !known {
		return string(role)
	}
	return label
}

// ActorName is a validated, trimmed, non-empty contributor name.
type ActorName struct {
	value string
}

// NewActorName validates and normalizes an actor name.
func NewActorName(raw string) (ActorName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ActorName{}, fmt.Errorf("%w: empty value", ErrInvalidActorName)
	}
	return ActorName{value: trimmed}, nil
}

// String returns the normalized name.
func (name ActorName) String() string {
	return name.value
}

// Quantity is a strictly positive, finite activity amount in the
// activity's native unit.
type Quantity struct {
	value float64
}

// NewQuantity validates an activity amount.
func NewQuantity(raw float64) (Quantity, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Quantity{}, fmt.Errorf("%w: not a finite number", ErrInvalidQuantity)
	}
	if raw <= 0 {
		return Quantity{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidQuantity)
	}
	return Quantity{value: raw}, nil
}

// Float64 returns the raw amount.
func (quantity Quantity) Float64() float64 {
	return quantity.value
}

// Entry is a single immutable line in the ledger. CO2SavedKg and Credits
// are always derived through Calculate; Credits equals CO2SavedKg exactly
// (1 credit = 1 kg CO₂e).
type Entry struct {
	EntryID         string
	RecordedUnixUTC int64
	ActorName       string
	Role            Role
	Activity        ActivityKind
	Quantity        float64
	CO2SavedKg      float64
	Credits         float64
}

// NewEntry builds a ledger entry, deriving CO2SavedKg and Credits through
// the credit calculator. This is the only constructor; callers never supply
// precomputed derived values.
func NewEntry(entryID string, recordedUnixUTC int64, actor ActorName, role Role, activity ActivityKind, quantity Quantity) (Entry, error) {
	if strings.TrimSpace(entryID) == "" {
		return Entry{}, fmt.Errorf("%w: empty entry id", ErrInvalidEntry)
	}
	if _, err := ParseRole(role.String()); err != nil {
		return Entry{}, err
	}
	conversion, err := Calculate(activity, quantity)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		EntryID:         strings.TrimSpace(entryID),
		RecordedUnixUTC: recordedUnixUTC,
		ActorName:       actor.String(),
		Role:            role,
		Activity:        activity,
		Quantity:        quantity.Float64(),
		CO2SavedKg:      conversion.CO2SavedKg,
		Credits:         conversion.Credits,
	}, nil
}

// Validate checks the persistence invariants on an already-built entry.
// Store implementations reject entries that fail it.
func (entry Entry) Validate() error {
	if strings.TrimSpace(entry.EntryID) == "" {
		return fmt.Errorf("%w: empty entry id", ErrInvalidEntry)
	}
	if strings.TrimSpace(entry.ActorName) == "" {
		return fmt.Errorf("%w: empty actor name", ErrInvalidEntry)
	}
	if _, err := ParseRole(entry.Role.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if _, err := Factor(entry.Activity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if entry.Quantity <= 0 || math.IsNaN(entry.Quantity) || math.IsInf(entry.Quantity, 0) {
		return fmt.Errorf("%w: non-positive quantity", ErrInvalidEntry)
	}
	if entry.Credits != entry.CO2SavedKg {
		return fmt.Errorf("%w: credits must equal co2 saved", ErrInvalidEntry)
	}
	return nil
}

// Store is the persistence contract used by Service. Implementations must
// keep Append/AppendBatch/Replace mutually exclusive with each other and
// with All, and All must return a snapshot the caller may mutate freely.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	AppendBatch(ctx context.Context, entries []Entry) error
	All(ctx context.Context) ([]Entry, error)
	Replace(ctx context.Context, entries []Entry) error
}
