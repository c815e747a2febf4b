// # internal/data/report/report.go
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
)

// Run is the outcome of one analyzer pass over every discovered bundle.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Roots      []string  `json:"roots"`
	Bundles    []Bundle  `json:"bundles"`
}

type Bundle struct {
	Package    string   `json:"package"`
	Property   string   `json:"property"`
	Format     string   `json:"format"`
	Path       string   `json:"path"`
	Typings    string   `json:"typings,omitempty"`
	Files      int      `json:"files"`
	DurationMS int64    `json:"duration_ms"`
	Exports    []Export `json:"exports"`
	Classes    []Class  `json:"classes"`
	Error      string   `json:"error,omitempty"`
}

// Export describes the declaration one exported name resolves to.
type Export struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Location string `json:"location,omitempty"`
	Via      string `json:"via,omitempty"`
	Known    string `json:"known,omitempty"`
}

type Class struct {
	Name       string      `json:"name"`
	File       string      `json:"file"`
	Line       int         `json:"line"`
	Base       string      `json:"base,omitempty"`
	Decorators []Decorator `json:"decorators,omitempty"`
	Members    []Member    `json:"members,omitempty"`
	// CtorParams is nil when the class has no constructor of its own.
	CtorParams []CtorParam `json:"ctor_params"`
	Dts        string      `json:"dts,omitempty"`
}

type Decorator struct {
	Name   string   `json:"name"`
	Import string   `json:"import,omitempty"`
	Args   []string `json:"args"`
}

type Member struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Static     bool        `json:"static,omitempty"`
	Decorators []Decorator `json:"decorators,omitempty"`
}

type CtorParam struct {
	Name       string      `json:"name"`
	Type       string      `json:"type,omitempty"`
	Decorators []Decorator `json:"decorators,omitempty"`
}

// Totals summarizes a run for the CLI and the run listing.
type Totals struct {
	Bundles    int
	Failed     int
	Classes    int
	Decorated  int
	Decorators int
	Exports    int
}

func NewRun(roots []string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Roots:     append([]string(nil), roots...),
	}
}

func (r *Run) Totals() Totals {
	var t Totals
	for _, b := range r.Bundles {
		t.Bundles++
		if b.Error != "" {
			t.Failed++
		}
		t.Exports += len(b.Exports)
		for _, c := range b.Classes {
			t.Classes++
			if len(c.Decorators) > 0 {
				t.Decorated++
			}
			t.Decorators += len(c.Decorators)
		}
	}
	return t
}

// WriteJSON writes run as indented JSON.
func WriteJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func ReadJSON(r io.Reader) (*Run, error) {
	var run Run
	if err := json.NewDecoder(r).Decode(&run); err != nil {
		return nil, err
	}
	return &run, nil
}
