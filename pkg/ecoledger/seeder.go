package ecoledger

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSeedCount matches the demo dataset size of the reference rollout.
const DefaultSeedCount = 80

const seedWindowDays = 60

// RosterMember is one (name, role) pair the seeder samples from.
type RosterMember struct {
	Name string
	Role Role
}

var defaultRoster = []RosterMember{
	{Name: "Aarav Sharma", Role: RoleStudent},
	{Name: "Priya Verma", Role: RoleFacultyStaff},
	{Name: "Mohit Singh", Role: RoleStudent},
	{Name: "Ms. Gupta", Role: RoleAdministration},
	{Name: "Eco-Club (Group)", Role: RoleEcoClubLead},
	{Name: "Neha Jain", Role: RoleStudent},
	{Name: "Ravi Kumar", Role: RoleFacultyStaff},
	{Name: "Zoya Khan", Role: RoleStudent},
	{Name: "Mr. Das", Role: RoleFacultyStaff},
	{Name: "Kiran Bedi", Role: RoleStudent},
	{Name: "Admin Team", Role: RoleAdministration},
	{Name: "Student Council", Role: RoleEcoClubLead},
	{Name: "Alok Vats", Role: RoleStudent},
	{Name: "Dr. Meena", Role: RoleFacultyStaff},
	{Name: "Suresh Reddy", Role: RoleStudent},
}

type quantityBand struct {
	min     float64
	max     float64
	integer bool
}

// Per-activity-appropriate amounts: energy as small floats, tree counts as
// small integers, paper/water as larger integers.
var quantityBands = map[ActivityKind]quantityBand{
	ActivityElectricitySaved: {min: 1, max: 15},
	ActivityWalkBikeCommute:  {min: 1, max: 50},
	ActivityWasteRecycled:    {min: 1, max: 10},
	ActivityTreesPlanted:     {min: 1, max: 5, integer: true},
	ActivitySolarPowerUsed:   {min: 5, max: 25},
	ActivityPaperSaved:       {min: 100, max: 2000, integer: true},
	ActivityWaterSaved:       {min: 500, max: 5000, integer: true},
}

// Seeder generates a synthetic but internally consistent demo ledger.
// Every generated entry goes through the same calculator as live
// submissions, so the credits == co2 invariant holds regardless of origin.
// A Seeder is safe for concurrent use: rand.Rand is not, so draws are
// serialized behind the mutex.
type Seeder struct {
	mutex  sync.Mutex
	rng    *rand.Rand
	newID  func() string
	roster []RosterMember
}

// SeederOption configures a Seeder.
type SeederOption func(*Seeder)

// WithSeederIDGenerator overrides the entry id source.
func WithSeederIDGenerator(generate func() string) SeederOption {
	return func(seeder *Seeder) {
		if generate != nil {
			seeder.newID = generate
		}
	}
}

// WithRoster overrides the sampled (name, role) roster.
func WithRoster(roster []RosterMember) SeederOption {
	return func(seeder *Seeder) {
		if len(roster) > 0 {
			seeder.roster = roster
		}
	}
}

// NewSeeder wires a Seeder around an injected random source, so output is
// deterministic for a fixed seed.
func NewSeeder(rng *rand.Rand, options ...SeederOption) (*Seeder, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidServiceConfig)
	}
	seeder := &Seeder{rng: rng, newID: uuid.NewString, roster: defaultRoster}
	for _, option := range options {
		if option != nil {
			option(seeder)
		}
	}
	return seeder, nil
}

// Entries draws count synthetic entries with timestamps spread over the
// trailing 60 days before nowUnixUTC, returned sorted ascending by
// timestamp so timeline views read chronologically.
func (seeder *Seeder) Entries(count int, nowUnixUTC int64) ([]Entry, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidSeedCount)
	}
	windowStart := nowUnixUTC - int64(seedWindowDays*24*time.Hour/time.Second)
	windowSeconds := nowUnixUTC - windowStart

	seeder.mutex.Lock()
	defer seeder.mutex.Unlock()

	entries := make([]Entry, 0, count)
	for drawn := 0; drawn < count; drawn++ {
		member := seeder.roster[seeder.rng.Intn(len(seeder.roster))]
		activity := activityKinds[seeder.rng.Intn(len(activityKinds))]
		quantity, err := NewQuantity(seeder.drawQuantity(activity))
		if err != nil {
			return nil, err
		}
		actor, err := NewActorName(member.Name)
		if err != nil {
			return nil, err
		}
		recordedUnixUTC := windowStart + seeder.rng.Int63n(windowSeconds)
		entry, err := NewEntry(seeder.newID(), recordedUnixUTC, actor, member.Role, activity, quantity)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(left, right int) bool {
		return entries[left].RecordedUnixUTC < entries[right].RecordedUnixUTC
	})
	return entries, nil
}

// SeedFunc adapts the seeder to the Service.Reset contract.
func (seeder *Seeder) SeedFunc(count int) SeedFunc {
	return func(nowUnixUTC int64) ([]Entry, error) {
		return seeder.Entries(count, nowUnixUTC)
	}
}

func (seeder *Seeder) drawQuantity(activity ActivityKind) float64 {
	band := quantityBands[activity]
	if band.integer {
		return float64(int64(band.min) + seeder.rng.Int63n(int64(band.max-band.min)+1))
	}
	raw := band.min + seeder.rng.Float64()*(band.max-band.min)
	return math.Round(raw*100) / 100
}
