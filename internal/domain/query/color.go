package query

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the fixed series palette, indexed by query id.
var Palette = []string{
	"#7EB26D", "#EAB839", "#6ED0E0", "#EF843C", "#E24D42", "#1F78C1", "#BA43A9", "#705DA0",
	"#508642", "#CCA300", "#447EBC", "#C15C17", "#890F02", "#0A437C", "#6D1F62", "#584477",
	"#B7DBAB", "#F4D598", "#70DBED", "#F9BA8F", "#F29191", "#82B5D8", "#E5A8E2", "#AEA2E0",
	"#629E51", "#E5AC0E", "#64B0C8", "#E0752D", "#BF1B00", "#0A50A1", "#962D82", "#614D93",
	"#9AC48A", "#F2C96D", "#65C5DB", "#F9934E", "#EA6460", "#5195CE", "#D683CE", "#806EB7",
	"#3F6833", "#967302", "#2F575E", "#99440A", "#58140C", "#052B51", "#511749", "#3F2B5B",
	"#E0F9D7", "#FCEACA", "#CFFAFF", "#F9E2D2", "#FCE2DE", "#BADFF4", "#F9D9F9", "#DEDAF7",
}

// ColorAt returns the palette color for an id. Negative ids wrap like positive ones.
func ColorAt(id int) string {
	n := len(Palette)
	i := id % n
	if i < 0 {
		i += n
	}
	return Palette[i]
}

// ColorSteps derives n colors from base, the first being base itself and each
// following one a darker shade. The result depends only on base and n.
// An unparseable base falls back to consecutive palette colors.
func ColorSteps(base string, n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	out[0] = base

	c, err := colorful.Hex(base)
	if err != nil {
		for i := 1; i < n; i++ {
			out[i] = ColorAt(i)
		}
		return out
	}

	step := 0.15
	if n > 5 {
		step = 0.75 / float64(n)
	}
	black := colorful.Color{}
	for i := 1; i < n; i++ {
		out[i] = c.BlendLab(black, step*float64(i)).Clamped().Hex()
	}
	return out
}
