// Package domain contains the core data model for the OFAC mention monitor.
package domain

import "time"

// EntityKind classifies a sanctions list entry.
type EntityKind string

// Entity kinds found on the SDN list. Only persons are screened downstream;
// other kinds are kept for the SDN search surface.
const (
	KindPerson       EntityKind = "person"
	KindOrganization EntityKind = "organization"
	KindVessel       EntityKind = "vessel"
	KindAircraft     EntityKind = "aircraft"
)

// SanctionEntity is one immutable entry from a sanctions list snapshot.
// Records are never mutated after ingestion; a new snapshot supersedes
// them wholesale.
type SanctionEntity struct {
	// UID is the stable identifier assigned by the list publisher.
	UID string `json:"uid"`

	// PrimaryName is the main listed name. Never empty in a valid snapshot.
	PrimaryName string `json:"primary_name"`

	// Aliases are additional known names (AKAs), in list order.
	Aliases []string `json:"aliases,omitempty"`

	Kind    EntityKind `json:"kind"`
	Program string     `json:"program,omitempty"`
	Remarks string     `json:"remarks,omitempty"`

	// ListedAt is the publication date carried by the list, when present.
	ListedAt time.Time `json:"listed_at,omitzero"`
}

// Names returns the primary name followed by all aliases.
func (e *SanctionEntity) Names() []string {
	names := make([]string, 0, len(e.Aliases)+1)
	names = append(names, e.PrimaryName)
	names = append(names, e.Aliases...)
	return names
}
