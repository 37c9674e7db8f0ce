package render

import "github.com/wolfeidau/orgviz/internal/org"

const (
	unitShape    = "star"
	accountShape = "dot"
	rootSize     = 5
)

// Palette holds the colours used for one page theme.
type Palette struct {
	Background        string
	Font              string
	Root              string
	Account           string
	ManagementAccount string
	// Units are coloured by depth, wrapping around for deep trees.
	Units []string
}

var unitColours = []string{"white", "coral", "cyan", "bisque", "darkkhaki", "cadetblue", "coral"}

// LightPalette is the default theme.
func LightPalette() Palette {
	return Palette{
		Background:        "white",
		Font:              "black",
		Root:              "black",
		Account:           "lime",
		ManagementAccount: "red",
		Units:             unitColours,
	}
}

// DarkPalette is used with dark mode.
func DarkPalette() Palette {
	return Palette{
		Background:        "black",
		Font:              "white",
		Root:              "white",
		Account:           "lime",
		ManagementAccount: "red",
		Units:             unitColours,
	}
}

func (p Palette) colour(v org.Vertex, managementAccountID string) string {
	switch v.Kind {
	case org.KindRoot:
		return p.Root
	case org.KindAccount:
		if v.ID == managementAccountID {
			return p.ManagementAccount
		}
		return p.Account
	default:
		return p.Units[v.Depth%len(p.Units)]
	}
}

func shape(k org.Kind) string {
	if k == org.KindAccount {
		return accountShape
	}
	return unitShape
}
