package workload

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/cuemby/complementor/pkg/types"
)

// TempPlaceholder and DatasetPlaceholder are the text substitutions applied
// to a job template's jar arguments at instantiation time.
const (
	TempPlaceholder    = "TEMP"
	DatasetPlaceholder = "DATASET"
)

type jobsXML struct {
	XMLName xml.Name `xml:"jobs"`
	Jobs    []jobXML `xml:"job"`
}

type jobXML struct {
	Name   string    `xml:"name,attr"`
	Runner runnerXML `xml:"runner"`
	Jar    jarXML    `xml:"jar"`
}

type runnerXML struct {
	Arguments argumentsXML `xml:"arguments"`
}

type jarXML struct {
	Path      string       `xml:"path"`
	Arguments argumentsXML `xml:"arguments"`
}

type argumentsXML struct {
	Argument []argumentXML `xml:"argument"`
}

type argumentXML struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

// JobTemplate is one parsed <job> entry: a Flink job class plus the task
// count and jar command line needed to run it.
type JobTemplate struct {
	Name      string
	NTasks    int
	TaskMem   int // ytm, 0 if unset
	MainClass string
	JarPath   string
	JarArgs   []string // "name value" pairs, TEMP/DATASET unsubstituted
}

// Instantiate builds a pending Application for one run of the template.
func (t *JobTemplate) Instantiate(dataSet string) *types.Application {
	return types.NewApplication(t.Name, t.NTasks, false, dataSet)
}

// CommandLine renders the Flink submit command for app, which must already
// be fully placed, substituting TEMP with tempPath and DATASET with the
// application's data set tag. Grounded on FlinkApplication.command_line.
func (t *JobTemplate) CommandLine(app *types.Application, tempPath string) []string {
	hosts := make([]string, len(app.Tasks))
	for i, c := range app.Tasks {
		hosts[i] = c.NodeAddress
	}

	cmd := []string{
		"$FLINK_HOME/bin/flink", "run",
		"-m yarn-cluster",
		fmt.Sprintf("-yn %d", len(app.Tasks)),
		"-yD fix.container.hosts=" + strings.Join(hosts, ","),
	}
	if t.TaskMem > 0 {
		cmd = append(cmd, fmt.Sprintf("-ytm %d", t.TaskMem))
	}
	if t.MainClass != "" {
		cmd = append(cmd, "-c", t.MainClass)
	}
	cmd = append(cmd, t.JarPath)

	for _, arg := range t.JarArgs {
		arg = strings.ReplaceAll(arg, TempPlaceholder, tempPath)
		arg = strings.ReplaceAll(arg, DatasetPlaceholder, app.DataSet)
		cmd = append(cmd, arg)
	}
	return cmd
}

// Catalog is the parsed Jobs XML: a name-indexed set of job templates.
type Catalog struct {
	templates map[string]*JobTemplate
}

// ParseJobsXML reads a <jobs> document into a Catalog.
func ParseJobsXML(r io.Reader) (*Catalog, error) {
	var doc jobsXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("workload: parse jobs xml: %w", err)
	}

	c := &Catalog{templates: make(map[string]*JobTemplate, len(doc.Jobs))}
	for _, j := range doc.Jobs {
		tmpl, err := toTemplate(j)
		if err != nil {
			return nil, fmt.Errorf("workload: job %q: %w", j.Name, err)
		}
		c.templates[tmpl.Name] = tmpl
	}
	return c, nil
}

func toTemplate(j jobXML) (*JobTemplate, error) {
	tmpl := &JobTemplate{Name: j.Name, JarPath: strings.TrimSpace(j.Jar.Path)}

	for _, arg := range j.Runner.Arguments.Argument {
		switch arg.Name {
		case "yn":
			n, err := parseInt(arg.Text)
			if err != nil {
				return nil, fmt.Errorf("argument yn: %w", err)
			}
			tmpl.NTasks = n
		case "ytm":
			n, err := parseInt(arg.Text)
			if err != nil {
				return nil, fmt.Errorf("argument ytm: %w", err)
			}
			tmpl.TaskMem = n
		case "c":
			tmpl.MainClass = strings.TrimSpace(arg.Text)
		}
	}
	if tmpl.NTasks == 0 {
		return nil, fmt.Errorf("runner/arguments/argument with name=yn was not found")
	}

	for _, arg := range j.Jar.Arguments.Argument {
		text := strings.TrimSpace(arg.Text)
		if arg.Name != "" {
			text = strings.TrimSpace(arg.Name + " " + text)
		}
		tmpl.JarArgs = append(tmpl.JarArgs, text)
	}
	return tmpl, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Job looks up a template by name.
func (c *Catalog) Job(name string) (*JobTemplate, bool) {
	tmpl, ok := c.templates[name]
	return tmpl, ok
}

// Names returns every job name in the catalog.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	return names
}

// Len returns the number of job templates in the catalog.
func (c *Catalog) Len() int {
	return len(c.templates)
}
