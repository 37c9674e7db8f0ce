package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/wolfeidau/orgviz/internal/org"
)

// Options configures the HTML page.
type Options struct {
	DarkMode    bool
	ShowOptions bool
	// Directed draws arrows on edges.
	Directed bool
	Title    string
}

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title,omitempty"`
	Color string `json:"color"`
	Shape string `json:"shape"`
	Value int    `json:"value,omitempty"`
}

type visEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type page struct {
	Title       string
	Background  string
	Font        string
	Nodes       []visNode
	Edges       []visEdge
	ShowOptions bool
	Directed    bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
body { margin: 0; background-color: {{.Background}}; }
#orgviz { width: 1900px; height: 1000px; background-color: {{.Background}}; }
</style>
</head>
<body>
<div id="orgviz"></div>
{{if .ShowOptions}}<div id="orgviz-options"></div>{{end}}
<script>
var nodes = new vis.DataSet({{.Nodes}});
var edges = new vis.DataSet({{.Edges}});
var options = {
  nodes: { font: { color: {{.Font}} } },
  edges: { arrows: { to: { enabled: {{.Directed}} } } },
  configure: {
    enabled: {{.ShowOptions}},
    container: document.getElementById("orgviz-options")
  }
};
new vis.Network(document.getElementById("orgviz"), { nodes: nodes, edges: edges }, options);
</script>
</body>
</html>
`))

// HTML writes an interactive page showing g.
func HTML(w io.Writer, g *org.AggregatedGraph, opts Options) error {
	palette := LightPalette()
	if opts.DarkMode {
		palette = DarkPalette()
	}

	title := opts.Title
	if title == "" {
		title = "AWS Organization"
	}

	var managementAccountID string
	if root, ok := g.Node(g.RootID()); ok {
		managementAccountID = root.ManagementAccountID
	}

	p := page{
		Title:       title,
		Background:  palette.Background,
		Font:        palette.Font,
		ShowOptions: opts.ShowOptions,
		Directed:    opts.Directed,
		Nodes:       []visNode{},
		Edges:       []visEdge{},
	}

	for _, v := range g.Vertices() {
		n := visNode{
			ID:    v.ID,
			Label: v.Label,
			Title: detailsTitle(v.Details),
			Color: palette.colour(v, managementAccountID),
			Shape: shape(v.Kind),
		}
		if v.Kind == org.KindRoot {
			n.Value = rootSize
		}
		p.Nodes = append(p.Nodes, n)
	}

	for _, e := range g.Edges() {
		p.Edges = append(p.Edges, visEdge{From: e.From, To: e.To})
	}

	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	return nil
}

// detailsTitle formats node details as indented JSON. Map keys are sorted
// by encoding/json so output is stable.
func detailsTitle(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	b, err := json.MarshalIndent(details, "", "    ")
	if err != nil {
		return ""
	}
	return string(b)
}
