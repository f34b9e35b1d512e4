package itemstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Waiting   Status
	Preparing Status
	Ready     Status
	Served    Status
}

var Statuses = Enum{
	Waiting:   Status{Name: "waiting"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Served:    Status{Name: "served"},
}

var All = []Status{
	Statuses.Waiting,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Next returns the unique forward successor for a status code.
// The second return is false when the status has no forward transition
// (ready and served are handled by separate flows) or the code is unknown.
func Next(name string) (Status, bool) {
	switch name {
	case Statuses.Waiting.Name:
		return Statuses.Preparing, true
	case Statuses.Preparing.Name:
		return Statuses.Ready, true
	default:
		return Status{}, false
	}
}
