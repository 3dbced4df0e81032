package sdn

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
)

// sdnEntry mirrors one <sdnEntry> element. Field tags carry no
// namespace so parsing survives the publisher's namespace changes.
type sdnEntry struct {
	UID       string   `xml:"uid"`
	FirstName string   `xml:"firstName"`
	LastName  string   `xml:"lastName"`
	SDNName   string   `xml:"sdnName"`
	SDNType   string   `xml:"sdnType"`
	Remarks   string   `xml:"remarks"`
	Programs  []string `xml:"programList>program"`
	AKAs      []aka    `xml:"akaList>aka"`
}

type aka struct {
	FirstName string `xml:"firstName"`
	LastName  string `xml:"lastName"`
	Category  string `xml:"category"`
}

type publishInfo struct {
	PublishDate string `xml:"Publish_Date"`
	RecordCount string `xml:"Record_Count"`
}

// Parse decodes an SDN XML document into sanction entities. Entries
// without a usable name are rejected: a snapshot that yields no valid
// entries is malformed, never silently empty.
func Parse(raw []byte) ([]domain.SanctionEntity, Meta, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var entities []domain.SanctionEntity
	var meta Meta

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Meta{}, errors.ErrMalformedSnapshot.Wrap(fmt.Errorf("decode SDN XML: %w", err))
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "publshInformation", "publishInformation":
			var info publishInfo
			if err := dec.DecodeElement(&info, &start); err != nil {
				continue
			}
			if t, err := time.Parse("01/02/2006", strings.TrimSpace(info.PublishDate)); err == nil {
				meta.PublishDate = t
			}

		case "sdnEntry":
			var entry sdnEntry
			if err := dec.DecodeElement(&entry, &start); err != nil {
				return nil, Meta{}, errors.ErrMalformedSnapshot.Wrap(fmt.Errorf("decode sdnEntry: %w", err))
			}
			if e, ok := entry.toEntity(meta.PublishDate); ok {
				entities = append(entities, e)
			}
		}
	}

	if len(entities) == 0 {
		return nil, Meta{}, errors.MalformedSnapshot("SDN XML contains no usable entries")
	}

	meta.Records = len(entities)
	return entities, meta, nil
}

func (e *sdnEntry) toEntity(publishDate time.Time) (domain.SanctionEntity, bool) {
	primary := composeName(e.SDNName, e.LastName, e.FirstName)
	if primary == "" {
		return domain.SanctionEntity{}, false
	}

	aliases := make([]string, 0, len(e.AKAs))
	for _, a := range e.AKAs {
		if name := composeName("", a.LastName, a.FirstName); name != "" && name != primary {
			aliases = append(aliases, name)
		}
	}

	return domain.SanctionEntity{
		UID:         strings.TrimSpace(e.UID),
		PrimaryName: primary,
		Aliases:     aliases,
		Kind:        kindOf(e.SDNType),
		Program:     strings.Join(e.Programs, ", "),
		Remarks:     strings.TrimSpace(e.Remarks),
		ListedAt:    publishDate,
	}, true
}

// composeName prefers the whole-name field and otherwise joins
// "Last, First" the way the list publishes individual names.
func composeName(whole, last, first string) string {
	if w := strings.TrimSpace(whole); w != "" {
		return w
	}
	last = strings.TrimSpace(last)
	first = strings.TrimSpace(first)
	switch {
	case last != "" && first != "":
		return last + ", " + first
	case last != "":
		return last
	default:
		return first
	}
}

func kindOf(sdnType string) domain.EntityKind {
	switch strings.ToLower(strings.TrimSpace(sdnType)) {
	case "individual":
		return domain.KindPerson
	case "vessel":
		return domain.KindVessel
	case "aircraft":
		return domain.KindAircraft
	default:
		return domain.KindOrganization
	}
}
