/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package plan

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a plan serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for serializations other than json, yaml
// and toml.
var ErrUnknownFormat = errors.New("unknown plan format")

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// wireRef and wireSlot are the on-disk shape of a slot. The same structs
// serve all three formats.
type wireRef struct {
	Code    string `json:"code" yaml:"code" toml:"code"`
	Credits int64  `json:"credits" yaml:"credits" toml:"credits"`
}

type wireSlot struct {
	Code        string   `json:"code" yaml:"code" toml:"code"`
	Placeholder bool     `json:"placeholder,omitempty" yaml:"placeholder,omitempty" toml:"placeholder,omitempty"`
	Credits     int64    `json:"credits,omitempty" yaml:"credits,omitempty" toml:"credits,omitempty"`
	Equivalence *wireRef `json:"equivalence,omitempty" yaml:"equivalence,omitempty" toml:"equivalence,omitempty"`
}

type wirePlan struct {
	Semesters [][]wireSlot `json:"semesters" yaml:"semesters" toml:"semesters"`
}

// tomlPlan wraps each semester in a table because TOML cannot express an
// array of arrays of tables.
type tomlSemester struct {
	Slots []wireSlot `toml:"slots"`
}

type tomlPlan struct {
	Semesters []tomlSemester `toml:"semesters"`
}

// Parse parses a JSON plan.
func Parse(data []byte) (*Plan, error) {
	return Decode(data, FormatJSON)
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (*Plan, error) {
	var w wirePlan
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, err
		}
	case FormatTOML:
		var t tomlPlan
		if _, err := toml.Decode(string(data), &t); err != nil {
			return nil, err
		}
		for _, sem := range t.Semesters {
			w.Semesters = append(w.Semesters, sem.Slots)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return fromWire(w)
}

// Encode serializes p in the given format.
func Encode(p *Plan, format Format) ([]byte, error) {
	w := toWire(p)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(w, "", "  ")
	case FormatYAML:
		return yaml.Marshal(w)
	case FormatTOML:
		t := tomlPlan{Semesters: make([]tomlSemester, len(w.Semesters))}
		for i, sem := range w.Semesters {
			t.Semesters[i] = tomlSemester{Slots: sem}
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(t); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MarshalJSON implements json.Marshaler.
func (p *Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var w wirePlan
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := fromWire(w)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// Fingerprint returns the hex sha256 of the canonical JSON encoding. Plans
// with equal contents share a fingerprint regardless of identity.
func Fingerprint(p *Plan) string {
	data, err := json.Marshal(toWire(p))
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func toWire(p *Plan) wirePlan {
	w := wirePlan{Semesters: make([][]wireSlot, p.Len())}
	if p == nil {
		return w
	}
	for i, sem := range p.Semesters {
		slots := make([]wireSlot, 0, len(sem))
		for _, s := range sem {
			switch v := s.(type) {
			case ConcreteCourse:
				ws := wireSlot{Code: v.Code}
				if v.Equivalence != nil {
					ws.Equivalence = &wireRef{Code: v.Equivalence.Code, Credits: int64(v.Equivalence.Credits)}
				}
				slots = append(slots, ws)
			case EquivalencePlaceholder:
				slots = append(slots, wireSlot{Code: v.Code, Placeholder: true, Credits: int64(v.Credits)})
			}
		}
		w.Semesters[i] = slots
	}
	return w
}

func fromWire(w wirePlan) (*Plan, error) {
	p := &Plan{Semesters: make([]Semester, len(w.Semesters))}
	for i, sem := range w.Semesters {
		out := make(Semester, 0, len(sem))
		for j, ws := range sem {
			if ws.Code == "" {
				return nil, fmt.Errorf("semesters[%d][%d]: missing code", i, j)
			}
			if ws.Placeholder {
				credits, err := safecast.Conv[int](ws.Credits)
				if err != nil || credits < 0 {
					return nil, fmt.Errorf("semesters[%d][%d]: invalid credits %d", i, j, ws.Credits)
				}
				out = append(out, EquivalencePlaceholder{Code: ws.Code, Credits: credits})
				continue
			}
			c := ConcreteCourse{Code: ws.Code}
			if ws.Equivalence != nil {
				credits, err := safecast.Conv[int](ws.Equivalence.Credits)
				if err != nil || credits < 0 {
					return nil, fmt.Errorf("semesters[%d][%d].equivalence: invalid credits %d", i, j, ws.Equivalence.Credits)
				}
				c.Equivalence = &EquivalenceRef{Code: ws.Equivalence.Code, Credits: credits}
			}
			out = append(out, c)
		}
		p.Semesters[i] = out
	}
	return p, nil
}
