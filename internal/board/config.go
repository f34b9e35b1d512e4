package board

import (
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/tableside/expo/pkg/enums/station"
)

// StationSettings bundles the operational knobs for one station: how
// often its displays poll and when items escalate. The source screens
// hard-coded divergent values per board; here they are configuration
// with per-station defaults.
type StationSettings struct {
	PollInterval time.Duration
	Thresholds   Thresholds
}

var fallbackSettings = StationSettings{
	PollInterval: 10 * time.Second,
	Thresholds:   Thresholds{WarnAfter: 10 * time.Minute, UrgentAfter: 20 * time.Minute},
}

var defaultSettings = map[string]StationSettings{
	station.Stations.Kitchen.Name: {
		PollInterval: 10 * time.Second,
		Thresholds:   Thresholds{WarnAfter: 15 * time.Minute, UrgentAfter: 30 * time.Minute},
	},
	station.Stations.Pizza.Name: {
		PollInterval: 10 * time.Second,
		Thresholds:   Thresholds{WarnAfter: 15 * time.Minute, UrgentAfter: 30 * time.Minute},
	},
	station.Stations.BarCounter.Name: {
		PollInterval: 5 * time.Second,
		Thresholds:   Thresholds{WarnAfter: 10 * time.Minute, UrgentAfter: 20 * time.Minute},
	},
	station.Stations.BarDrinks.Name: {
		PollInterval: 5 * time.Second,
		Thresholds:   Thresholds{WarnAfter: 10 * time.Minute, UrgentAfter: 20 * time.Minute},
	},
	station.Stations.Takeaway.Name: {
		PollInterval: 15 * time.Second,
		Thresholds:   Thresholds{WarnAfter: 25 * time.Minute, UrgentAfter: 60 * time.Minute},
	},
}

// DefaultSettings returns the built-in settings for a station code.
func DefaultSettings(code string) StationSettings {
	if s, ok := defaultSettings[code]; ok {
		return s
	}
	return fallbackSettings
}

// ResolveSettings layers config overrides over the station defaults.
// Keys: stations.<code>.poll_interval, .warn_after, .urgent_after, as
// Go duration strings. Invalid values fall back to the default.
func ResolveSettings(config *apt.Config, code string) StationSettings {
	settings := DefaultSettings(code)
	if config == nil {
		return settings
	}

	if d, ok := configDuration(config, fmt.Sprintf("stations.%s.poll_interval", code)); ok {
		settings.PollInterval = d
	}
	if d, ok := configDuration(config, fmt.Sprintf("stations.%s.warn_after", code)); ok {
		settings.Thresholds.WarnAfter = d
	}
	if d, ok := configDuration(config, fmt.Sprintf("stations.%s.urgent_after", code)); ok {
		settings.Thresholds.UrgentAfter = d
	}

	settings.Thresholds = settings.Thresholds.Normalize()
	return settings
}

func configDuration(config *apt.Config, key string) (time.Duration, bool) {
	raw, _ := config.GetString(key)
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
