// Package migrate rebuilds a current-shape run document from anything an
// earlier build persisted. Loading is lenient: individual fields default and
// malformed units drop, but the document as a whole is only rejected when it
// is not a JSON object at all.
package migrate

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/virtu333/rogue-emblem-sub003/internal/units"
)

// CurrentVersion is the document version this build writes.
//
//	0: flat document, consumables and scrolls mixed into inventory, free-text skills
//	1: consumables split into their own per-unit list
//	2: canonical skill ids
//	3: blessing runtime modifiers persisted
//	4: rng seed, battle config locks, end-run rewards, run id
const CurrentVersion = 4

// ErrNotObject is returned when a document does not decode as a JSON object.
var ErrNotObject = errors.New("migrate: document is not a JSON object")

// Convoy mirrors the run's shared overflow storage.
type Convoy struct {
	Weapons     []units.Item `json:"weapons"`
	Consumables []units.Item `json:"consumables"`
}

// Document is a run snapshot split into the parts migrations rewrite (units,
// scrolls, convoy) and the raw remainder, which passes through untouched.
type Document struct {
	Version int
	Fields  map[string]json.RawMessage
	Roster  []units.Unit
	Fallen  []units.Unit
	Scrolls []units.Item
	Convoy  Convoy
	// Dropped counts unit records discarded as malformed while decoding.
	Dropped int
}

// Keys owned by Document rather than Fields.
const (
	keyVersion = "version"
	keyRoster  = "roster"
	keyFallen  = "fallenUnits"
	keyScrolls = "scrolls"
	keyConvoy  = "convoy"
)

// Decode splits data into a Document.
func Decode(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrNotObject
	}
	doc := &Document{Fields: fields}
	doc.Version = decodeVersion(fields[keyVersion])
	var dropped int
	doc.Roster, dropped = units.DecodeList(fields[keyRoster])
	doc.Dropped += dropped
	doc.Fallen, dropped = units.DecodeList(fields[keyFallen])
	doc.Dropped += dropped
	doc.Scrolls = decodeItems(fields[keyScrolls])
	if raw, ok := fields[keyConvoy]; ok {
		var c struct {
			Weapons     json.RawMessage `json:"weapons"`
			Consumables json.RawMessage `json:"consumables"`
		}
		if json.Unmarshal(raw, &c) == nil {
			doc.Convoy.Weapons = decodeItems(c.Weapons)
			doc.Convoy.Consumables = decodeItems(c.Consumables)
		}
	}
	if doc.Convoy.Weapons == nil {
		doc.Convoy.Weapons = []units.Item{}
	}
	if doc.Convoy.Consumables == nil {
		doc.Convoy.Consumables = []units.Item{}
	}
	for _, k := range []string{keyVersion, keyRoster, keyFallen, keyScrolls, keyConvoy} {
		delete(doc.Fields, k)
	}
	return doc, nil
}

// Units returns pointers to every roster and fallen unit.
func (d *Document) Units() []*units.Unit {
	out := make([]*units.Unit, 0, len(d.Roster)+len(d.Fallen))
	for i := range d.Roster {
		out = append(out, &d.Roster[i])
	}
	for i := range d.Fallen {
		out = append(out, &d.Fallen[i])
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Version: d.Version,
		Fields:  make(map[string]json.RawMessage, len(d.Fields)),
		Roster:  units.CloneAll(d.Roster),
		Fallen:  units.CloneAll(d.Fallen),
		Scrolls: units.CloneItems(d.Scrolls),
		Convoy: Convoy{
			Weapons:     units.CloneItems(d.Convoy.Weapons),
			Consumables: units.CloneItems(d.Convoy.Consumables),
		},
		Dropped: d.Dropped,
	}
	for k, v := range d.Fields {
		out.Fields[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Encode reassembles d into a single JSON object.
func (d *Document) Encode() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+5)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[keyVersion] = d.Version
	out[keyRoster] = nonNilUnits(d.Roster)
	out[keyFallen] = nonNilUnits(d.Fallen)
	out[keyScrolls] = nonNilItems(d.Scrolls)
	out[keyConvoy] = Convoy{Weapons: nonNilItems(d.Convoy.Weapons), Consumables: nonNilItems(d.Convoy.Consumables)}
	return json.Marshal(out)
}

func decodeVersion(raw json.RawMessage) int {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int(f)
}

func decodeItems(raw json.RawMessage) []units.Item {
	var raws []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &raws) != nil {
		return []units.Item{}
	}
	out := make([]units.Item, 0, len(raws))
	for _, r := range raws {
		var item units.Item
		if json.Unmarshal(r, &item) != nil || item.Name == "" {
			continue
		}
		out = append(out, item.Clone())
	}
	return out
}

func nonNilUnits(list []units.Unit) []units.Unit {
	if list == nil {
		return []units.Unit{}
	}
	return list
}

func nonNilItems(list []units.Item) []units.Item {
	if list == nil {
		return []units.Item{}
	}
	return list
}
