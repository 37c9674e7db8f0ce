package render

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/orgviz/internal/org"
)

func testGraph(t *testing.T) *org.AggregatedGraph {
	t.Helper()

	g, err := org.Assemble([]org.Node{
		{
			Skeleton:            org.Skeleton{ID: "r-root", Kind: org.KindRoot},
			Name:                "Root-Management",
			ManagementAccountID: "999999999999",
			Details:             map[string]string{"Id": "999999999999", "Name": "Management"},
		},
		{Skeleton: org.Skeleton{ID: "ou-a", Kind: org.KindOrganizationalUnit, ParentID: "r-root", Depth: 1}, Name: "A"},
		{Skeleton: org.Skeleton{ID: "999999999999", Kind: org.KindAccount, ParentID: "r-root", Depth: 1}, Name: "Management"},
		{Skeleton: org.Skeleton{ID: "111111111111", Kind: org.KindAccount, ParentID: "ou-a", Depth: 2}, Name: "dev", Status: "ACTIVE"},
	})
	require.NoError(t, err)
	return org.Annotate(g)
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, testGraph(t), Options{}))
	out := buf.String()

	require.Contains(t, out, "vis-network")
	require.Contains(t, out, "<title>AWS Organization</title>")
	require.Contains(t, out, `"label":"Root-Management(2)"`)
	require.Contains(t, out, `"label":"A(1)"`)
	require.Contains(t, out, `"label":"dev"`)
	require.Contains(t, out, `"color":"red"`)
	require.Contains(t, out, `"color":"lime"`)
	require.Contains(t, out, `"color":"coral"`)
	require.Contains(t, out, `"shape":"star"`)
	require.Contains(t, out, `"shape":"dot"`)
	require.Contains(t, out, `"from":"ou-a","to":"111111111111"`)
	require.Contains(t, out, "background-color: white")
	require.NotContains(t, out, `id="orgviz-options"`)
}

func TestHTML_DarkModeAndOptions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, testGraph(t), Options{DarkMode: true, ShowOptions: true, Title: "Acme"}))
	out := buf.String()

	require.Contains(t, out, "<title>Acme</title>")
	require.Contains(t, out, "background-color: black")
	require.Contains(t, out, `id="orgviz-options"`)
}

func TestPalette_Colour(t *testing.T) {
	p := LightPalette()

	tests := []struct {
		name string
		v    org.Vertex
		want string
	}{
		{name: "root", v: vertex("r-root", org.KindRoot, 0), want: "black"},
		{name: "management account", v: vertex("999999999999", org.KindAccount, 1), want: "red"},
		{name: "account", v: vertex("111111111111", org.KindAccount, 3), want: "lime"},
		{name: "first level unit", v: vertex("ou-1", org.KindOrganizationalUnit, 1), want: "coral"},
		{name: "second level unit", v: vertex("ou-2", org.KindOrganizationalUnit, 2), want: "cyan"},
		{name: "wraps around", v: vertex("ou-8", org.KindOrganizationalUnit, 8), want: "coral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.colour(tt.v, "999999999999"))
		})
	}

	require.Equal(t, "white", DarkPalette().colour(vertex("r-root", org.KindRoot, 0), ""))
}

func vertex(id string, kind org.Kind, depth int) org.Vertex {
	return org.Vertex{Node: org.Node{Skeleton: org.Skeleton{ID: id, Kind: kind, Depth: depth}}}
}

func TestExport(t *testing.T) {
	tests := []struct {
		format    Format
		unmarshal func([]byte, any) error
	}{
		{format: FormatJSON, unmarshal: json.Unmarshal},
		{format: FormatYAML, unmarshal: yaml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Export(&buf, testGraph(t), tt.format))

			var doc Document
			require.NoError(t, tt.unmarshal(buf.Bytes(), &doc))

			require.Equal(t, "r-root", doc.RootID)
			require.Len(t, doc.Vertices, 4)
			require.Len(t, doc.Edges, 3)

			root := doc.Vertices[0]
			require.Equal(t, org.KindRoot, root.Kind)
			require.Equal(t, "Root-Management(2)", root.Label)
			require.Equal(t, 2, root.DescendantAccounts)
			require.True(t, root.HasCount)
			require.Equal(t, "Management", root.Details["Name"])

			dev := doc.Vertices[3]
			require.Equal(t, "111111111111", dev.ID)
			require.Equal(t, "ou-a", dev.ParentID)
			require.Equal(t, 2, dev.Depth)
			require.False(t, dev.HasCount)
		})
	}
}

func TestExport_Pruned(t *testing.T) {
	g := testGraph(t)
	g.PruneAccounts()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, g, FormatJSON))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Vertices, 2)
	require.Equal(t, []org.Edge{{From: "r-root", To: "ou-a"}}, doc.Edges)
	require.Equal(t, "A(1)", doc.Vertices[1].Label)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "org.json", want: FormatJSON},
		{path: "out/org.YAML", want: FormatYAML},
		{path: "org.yml", want: FormatYAML},
		{path: "org.csv", wantErr: true},
		{path: "org", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, format)
		})
	}
}

func TestWriteFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "output", "org.html")

	err := WriteFile(path, func(w io.Writer) error {
		return HTML(w, testGraph(t), Options{})
	})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "Root-Management(2)")
}

func TestExport_EmptyUnitKeepsZeroCount(t *testing.T) {
	g, err := org.Assemble([]org.Node{
		{Skeleton: org.Skeleton{ID: "r-root", Kind: org.KindRoot}, Name: "Root-Management"},
		{Skeleton: org.Skeleton{ID: "ou-empty", Kind: org.KindOrganizationalUnit, ParentID: "r-root", Depth: 1}, Name: "Empty"},
	})
	require.NoError(t, err)
	aggregated := org.Annotate(g)

	tests := []struct {
		format    Format
		unmarshal func([]byte, any) error
		want      string
	}{
		{format: FormatJSON, unmarshal: json.Unmarshal, want: `"descendant_accounts": 0`},
		{format: FormatYAML, unmarshal: yaml.Unmarshal, want: "descendant_accounts: 0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Export(&buf, aggregated, tt.format))
			require.Contains(t, buf.String(), tt.want)

			var doc struct {
				Vertices []map[string]any `json:"vertices" yaml:"vertices"`
			}
			require.NoError(t, tt.unmarshal(buf.Bytes(), &doc))
			require.Len(t, doc.Vertices, 2)

			for _, v := range doc.Vertices {
				count, ok := v["descendant_accounts"]
				require.True(t, ok, "vertex %v has no descendant_accounts", v["id"])
				require.EqualValues(t, 0, count)
				require.Equal(t, true, v["has_count"])
			}
		})
	}
}
