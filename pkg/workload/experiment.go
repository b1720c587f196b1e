package workload

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/cuemby/complementor/pkg/types"
)

type suiteXML struct {
	XMLName    xml.Name       `xml:"suite"`
	Experiment experimentXML  `xml:"experiment"`
}

type experimentXML struct {
	Name string   `xml:"name,attr"`
	Jobs []jobRef `xml:"job"`
}

type jobRef struct {
	Name    string `xml:"name,attr"`
	Dataset string `xml:"dataset,attr"`
}

// ExperimentEntry references one job template and the dataset tag to run
// it against.
type ExperimentEntry struct {
	JobName string
	Dataset string
}

// Experiment is the parsed Experiment XML: an ordered run list.
type Experiment struct {
	Name    string
	Entries []ExperimentEntry
}

// ParseExperimentXML reads a <suite><experiment> document.
func ParseExperimentXML(r io.Reader) (*Experiment, error) {
	var doc suiteXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("workload: parse experiment xml: %w", err)
	}

	exp := &Experiment{Name: doc.Experiment.Name}
	for _, j := range doc.Experiment.Jobs {
		exp.Entries = append(exp.Entries, ExperimentEntry{JobName: j.Name, Dataset: j.Dataset})
	}
	return exp, nil
}

// Queue instantiates every entry in order against catalog, producing the
// initial application queue for a run.
func (e *Experiment) Queue(catalog *Catalog) ([]*types.Application, error) {
	apps := make([]*types.Application, 0, len(e.Entries))
	for _, entry := range e.Entries {
		tmpl, ok := catalog.Job(entry.JobName)
		if !ok {
			return nil, fmt.Errorf("workload: experiment %q references unknown job %q", e.Name, entry.JobName)
		}
		apps = append(apps, tmpl.Instantiate(entry.Dataset))
	}
	return apps, nil
}
