package avr

import (
	"fmt"
	"sort"
	"sync"
)

// Zone state keys as they appear in ZoneState snapshots.
const (
	StateKeyPower       = "power"
	StateKeyVolume      = "volume"
	StateKeyMuted       = "muted"
	StateKeyInput       = "input"
	StateKeyInputName   = "input_name"
	StateKeyAudioFormat = "audio_format"
)

// StateCache holds the last-known value for every key the receiver has
// reported. A key is present only after at least one notification for it
// has been observed; absence means unknown, never a default.
//
// The cache is mutated exclusively through Apply with parser output.
// Command issuance never touches it — the receiver's echoed notification
// is the sole source of truth.
//
// Thread Safety: all methods are safe for concurrent use.
type StateCache struct {
	mu sync.RWMutex

	model           string
	modelKnown      bool
	deviceName      string
	deviceNameKnown bool
	region          string
	regionKnown     bool
	software        string
	softwareKnown   bool

	inputNames map[int]string
	zones      map[int]map[string]any
}

// NewStateCache creates an empty cache.
func NewStateCache() *StateCache {
	return &StateCache{
		inputNames: make(map[int]string),
		zones:      make(map[int]map[string]any),
	}
}

// Apply mutates the cache from one parsed update.
// Returns true if the update was recognized and stored.
func (s *StateCache) Apply(u Update) bool {
	if u.Kind == UpdateUnrecognized {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Kind {
	case UpdateModel:
		s.model, s.modelKnown = u.Text, true
	case UpdateDeviceName:
		s.deviceName, s.deviceNameKnown = u.Text, true
	case UpdateRegion:
		s.region, s.regionKnown = u.Text, true
	case UpdateSoftwareVersion:
		s.software, s.softwareKnown = u.Text, true
	case UpdateInputName:
		// Empty names fall back to a positional label so the slot stays
		// selectable even when the receiver has no name stored for it.
		name := u.Text
		if name == "" {
			name = fmt.Sprintf("Input %d", u.Index)
		}
		s.inputNames[u.Index] = name
	case UpdateZonePower:
		s.zone(u.Zone)[StateKeyPower] = u.Flag
	case UpdateZoneVolume:
		s.zone(u.Zone)[StateKeyVolume] = u.Level
	case UpdateZoneMute:
		s.zone(u.Zone)[StateKeyMuted] = u.Flag
	case UpdateZoneInput:
		s.zone(u.Zone)[StateKeyInput] = u.Index
	case UpdateZoneInputName:
		s.zone(u.Zone)[StateKeyInputName] = u.Text
	case UpdateZoneAudioFormat:
		s.zone(u.Zone)[StateKeyAudioFormat] = u.Text
	}

	return true
}

// zone returns the mutable record for a zone, creating it on first write.
// Caller must hold s.mu.
func (s *StateCache) zone(n int) map[string]any {
	z, ok := s.zones[n]
	if !ok {
		z = make(map[string]any)
		s.zones[n] = z
	}
	return z
}

// Model returns the device model, if it has been reported.
func (s *StateCache) Model() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, s.modelKnown
}

// DeviceName returns the receiver's own device name, if reported.
func (s *StateCache) DeviceName() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceName, s.deviceNameKnown
}

// Region returns the device region, if reported.
func (s *StateCache) Region() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region, s.regionKnown
}

// SoftwareVersion returns the firmware version, if reported.
func (s *StateCache) SoftwareVersion() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.software, s.softwareKnown
}

// ZoneState returns a snapshot copy of one zone's record.
// The map is empty (not nil) for zones never reported on.
func (s *StateCache) ZoneState(zone int) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.zones[zone]))
	for k, v := range s.zones[zone] {
		out[k] = v
	}
	return out
}

// ZonePower returns a zone's power flag, if reported.
func (s *StateCache) ZonePower(zone int) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.zones[zone][StateKeyPower].(bool)
	return v, ok
}

// ZoneVolume returns a zone's volume in dB, if reported.
func (s *StateCache) ZoneVolume(zone int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.zones[zone][StateKeyVolume].(int)
	return v, ok
}

// ZoneMuted returns a zone's mute flag, if reported.
func (s *StateCache) ZoneMuted(zone int) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.zones[zone][StateKeyMuted].(bool)
	return v, ok
}

// ZoneInput returns a zone's selected input index, if reported.
func (s *StateCache) ZoneInput(zone int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.zones[zone][StateKeyInput].(int)
	return v, ok
}

// ZoneInputName returns a zone's current input display name, if reported.
func (s *StateCache) ZoneInputName(zone int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.zones[zone][StateKeyInputName].(string)
	return v, ok
}

// ZoneAudioFormat returns a zone's audio format string, if reported.
func (s *StateCache) ZoneAudioFormat(zone int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.zones[zone][StateKeyAudioFormat].(string)
	return v, ok
}

// InputNames returns a snapshot copy of the discovered input-name table.
func (s *StateCache) InputNames() map[int]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]string, len(s.inputNames))
	for k, v := range s.inputNames {
		out[k] = v
	}
	return out
}

// InputName returns the display name for an input slot, falling back to
// a positional label when the slot was never discovered.
func (s *StateCache) InputName(index int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name, ok := s.inputNames[index]; ok {
		return name
	}
	return fmt.Sprintf("Input %d", index)
}

// InputIndex performs the inverse lookup: display name to slot index.
func (s *StateCache) InputIndex(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx, n := range s.inputNames {
		if n == name {
			return idx, true
		}
	}
	return 0, false
}

// InputList returns the discovered input names ordered by slot index.
func (s *StateCache) InputList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indices := make([]int, 0, len(s.inputNames))
	for idx := range s.inputNames {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		out = append(out, s.inputNames[idx])
	}
	return out
}
