package metricset

// Selection names used by the profile view.
const (
	Radar     = "radar"
	Bars      = "bars"
	Movement  = "movement"
	Asymmetry = "asymmetry"
	TSA       = "tsa"
)

func ptr(v float64) *float64 { return &v }

// Defaults returns the selections of the force-plate dashboard.
func Defaults() map[string]Selection {
	return map[string]Selection{
		Radar: {
			Name: Radar,
			Metrics: []Metric{
				{Key: "Jump Height Scaled", Label: "Jump Height"},
				{Key: "Peak Velocity Scaled", Label: "Speed"},
				{Key: "mRSI Scaled", Label: "Athletic Capacity"},
				{Key: "Jump Momentum Scaled", Label: "Acceleration"},
				{Key: "Peak Relative Propulsive Power Scaled", Label: "Push-off Power"},
				{Key: "Peak Relative Braking Power Scaled", Label: "Loading Power"},
			},
		},
		Bars: {
			Name: Bars,
			Metrics: []Metric{
				{Key: "mRSI Scaled", Label: "Impulse Ratio"},
				{Key: "Peak Relative Braking Power Scaled", Label: "Braking Impulse"},
				{Key: "Peak Relative Propulsive Power Scaled", Label: "Propulsive Impulse"},
				{Label: "Peak Relative Landing Force"},
				{Key: "Peak Velocity Scaled", Label: "Peak Velocity"},
				{Label: "Time to Takeoff"},
				{Key: "Peak Relative Braking Force Scaled", Label: "Peak Relative Braking Force"},
			},
		},
		Movement: {
			Name: Movement,
			Metrics: []Metric{
				{Key: "Impulse Ratio", Label: "Impulse Ratio"},
				{Key: "Peak Relative Velocity", Label: "Peak Relative Velocity"},
				{Key: "Countermovement Depth", Label: "Countermovement Depth"},
				{Key: "Ground Contact Time", Label: "Ground Contact Time"},
			},
		},
		Asymmetry: {
			Name: Asymmetry,
			Metrics: []Metric{
				{Key: "Peak Landing Asymmetry", Label: "Loading Asymmetry"},
				{Key: "Peak Takeoff Asymmetry", Label: "Takeoff Asymmetry"},
				{Key: "Peak Braking Asymmetry", Label: "Braking Asymmetry"},
			},
		},
		TSA: {
			Name: TSA,
			Metrics: []Metric{
				{Key: "Jump Momentum Scaled", Label: "Speed & Agility"},
				{Key: "mRSI Scaled", Label: "Explosive Athleticism"},
				{Key: "Peak Relative Propulsive Power Scaled", Label: "Power"},
				{Label: "Total Strength", Placeholder: ptr(55)},
				{Key: "Jump Height Scaled", Label: "Vertical"},
			},
		},
	}
}
