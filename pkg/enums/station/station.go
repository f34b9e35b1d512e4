package station

import "strings"

type Station struct {
	Name string
}

func (s Station) Code() string {
	return s.Name
}

func (s Station) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Kitchen    Station
	Pizza      Station
	BarCounter Station
	BarDrinks  Station
	Takeaway   Station
}

var Stations = Enum{
	Kitchen:    Station{Name: "kitchen"},
	Pizza:      Station{Name: "pizza"},
	BarCounter: Station{Name: "bar-counter"},
	BarDrinks:  Station{Name: "bar-drinks"},
	Takeaway:   Station{Name: "takeaway"},
}

var All = []Station{
	Stations.Kitchen,
	Stations.Pizza,
	Stations.BarCounter,
	Stations.BarDrinks,
	Stations.Takeaway,
}

// ByName returns the station for a given name, or nil if not found
func ByName(name string) *Station {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
