package difficulty

type Attributes struct {
	// Total star rating, as shown on the beatmap page
	Total float64

	// Aim stars
	Aim float64

	// Speed stars
	Speed float64

	ObjectCount int
	Circles     int
	Sliders     int
	Spinners    int
	MaxCombo    int
}

// StrainPeaks holds the per-section peaks of each skill, in time order.
type StrainPeaks struct {
	Aim   []float64
	Speed []float64
}
