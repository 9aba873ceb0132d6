package avr

import (
	"regexp"
	"strconv"
	"strings"
)

// UpdateKind identifies which cache field a parsed notification targets.
type UpdateKind int

// The closed set of notification kinds the receiver protocol produces.
const (
	// UpdateUnrecognized marks a line that matched no known pattern.
	// Such lines are accepted but produce no cache mutation.
	UpdateUnrecognized UpdateKind = iota

	// UpdateModel carries the device model string (IDM).
	UpdateModel

	// UpdateDeviceName carries the device name string (IDN).
	UpdateDeviceName

	// UpdateRegion carries the device region string (IDR).
	UpdateRegion

	// UpdateSoftwareVersion carries the firmware version string (IDS).
	UpdateSoftwareVersion

	// UpdateInputName carries a discovered input-slot name (ISN).
	UpdateInputName

	// UpdateZonePower carries a zone power flag (Z<n>POW).
	UpdateZonePower

	// UpdateZoneVolume carries a zone volume in dB (Z<n>VOL).
	UpdateZoneVolume

	// UpdateZoneMute carries a zone mute flag (Z<n>MUT).
	UpdateZoneMute

	// UpdateZoneInput carries a zone input index (Z<n>INP).
	UpdateZoneInput

	// UpdateZoneInputName carries a zone's current input name (Z<n>SIP).
	UpdateZoneInputName

	// UpdateZoneAudioFormat carries a zone's audio format (Z<n>AIC).
	UpdateZoneAudioFormat
)

// Update is the typed result of parsing one protocol line.
//
// Only the fields relevant to Kind are populated: Zone for the Z-prefixed
// kinds, Index for input numbers (ISN and INP), Flag for power/mute,
// Level for volume, Text for name and format strings. Raw always holds
// the original trimmed line.
type Update struct {
	Kind  UpdateKind
	Zone  int
	Index int
	Flag  bool
	Level int
	Text  string
	Raw   string
}

// Notification patterns. The zone verbs can be preceded by other payload
// (the receiver occasionally chains fields on one line), so the verb
// patterns are searched rather than anchored after the zone prefix. The
// search never looks inside quoted payload, where input and format names
// are free to contain verb substrings.
var (
	inputNameRe  = regexp.MustCompile(`^ISN(\d+)"([^"]*)"`)
	zonePrefixRe = regexp.MustCompile(`^Z(\d+)`)
	powerRe      = regexp.MustCompile(`POW([01])`)
	volumeRe     = regexp.MustCompile(`VOL(-?\d+)`)
	muteRe       = regexp.MustCompile(`MUT([01])`)
	inputRe      = regexp.MustCompile(`INP(\d+)`)
	inputSelRe   = regexp.MustCompile(`SIP"([^"]*)"`)
	audioFmtRe   = regexp.MustCompile(`AIC"([^"]*)"`)
)

// ParseLine classifies one trimmed protocol line and extracts its fields.
//
// It is a pure function: no cache access, no side effects. Lines matching
// no known pattern return an Update with Kind UpdateUnrecognized.
func ParseLine(line string) Update {
	u := Update{Kind: UpdateUnrecognized, Raw: line}

	switch {
	case strings.HasPrefix(line, "IDM"):
		u.Kind = UpdateModel
		u.Text = strings.TrimSpace(line[3:])
	case strings.HasPrefix(line, "IDN"):
		u.Kind = UpdateDeviceName
		u.Text = strings.TrimSpace(line[3:])
	case strings.HasPrefix(line, "IDR"):
		u.Kind = UpdateRegion
		u.Text = strings.TrimSpace(line[3:])
	case strings.HasPrefix(line, "IDS"):
		u.Kind = UpdateSoftwareVersion
		u.Text = strings.TrimSpace(line[3:])
	case strings.HasPrefix(line, "ISN"):
		m := inputNameRe.FindStringSubmatch(line)
		if m == nil {
			return u
		}
		u.Kind = UpdateInputName
		u.Index, _ = strconv.Atoi(m[1])
		u.Text = strings.TrimSpace(m[2])
	case strings.HasPrefix(line, "Z"):
		return parseZoneLine(line)
	}

	return u
}

// parseZoneLine handles the Z<zone><VERB><payload> notification family.
func parseZoneLine(line string) Update {
	u := Update{Kind: UpdateUnrecognized, Raw: line}

	zm := zonePrefixRe.FindStringSubmatch(line)
	if zm == nil {
		return u
	}
	zone, err := strconv.Atoi(zm[1])
	if err != nil {
		return u
	}
	u.Zone = zone

	// A name like "POWER AMP" inside a quoted payload must not be
	// mistaken for a verb, so the verb lookup stops at the first quote.
	head := line
	if i := strings.IndexByte(line, '"'); i >= 0 {
		head = line[:i]
	}

	switch {
	case strings.Contains(head, "POW"):
		m := powerRe.FindStringSubmatch(line)
		if m == nil {
			return u
		}
		u.Kind = UpdateZonePower
		u.Flag = m[1] == "1"
	case strings.Contains(head, "VOL"):
		m := volumeRe.FindStringSubmatch(line)
		if m == nil {
			return u
		}
		u.Kind = UpdateZoneVolume
		u.Level, _ = strconv.Atoi(m[1])
	case strings.Contains(head, "MUT"):
		m := muteRe.FindStringSubmatch(line)
		if m == nil {
			return u
		}
		u.Kind = UpdateZoneMute
		u.Flag = m[1] == "1"
	case strings.Contains(head, "INP"):
		m := inputRe.FindStringSubmatch(line)
		if m == nil {
			return u
		}
		u.Kind = UpdateZoneInput
		u.Index, _ = strconv.Atoi(m[1])
	case strings.Contains(head, "SIP"):
		m := inputSelRe.FindStringSubmatch(line)
		if m == nil {
			return u
		}
		u.Kind = UpdateZoneInputName
		u.Text = m[1]
	case strings.Contains(head, "AIC"):
		m := audioFmtRe.FindStringSubmatch(line)
		if m == nil {
			return u
		}
		u.Kind = UpdateZoneAudioFormat
		u.Text = m[1]
	}

	return u
}
