package difficulty

// Calculate rates objs, which must be sorted by time, for a map with the
// given circle radius. A nil combiner means Classic. Fewer than two objects
// rate 0.
func Calculate(objs []Object, radius float64, combiner Combiner) (Attributes, StrainPeaks) {
	if combiner == nil {
		combiner = Classic
	}

	attrs := Attributes{ObjectCount: len(objs)}
	for _, o := range objs {
		switch o.Kind {
		case KindCircle:
			attrs.Circles++
		case KindSlider:
			attrs.Sliders++
		case KindSpinner:
			attrs.Spinners++
		}
		attrs.MaxCombo += o.Combo
	}
	if len(objs) < 2 {
		return attrs, StrainPeaks{}
	}

	deltas := NewDeltas(objs, radius)
	peaks := StrainPeaks{
		Aim:   StrainPeaksOf(Aim{}, deltas),
		Speed: StrainPeaksOf(Speed{}, deltas),
	}
	attrs.Aim = Rating(peaks.Aim)
	attrs.Speed = Rating(peaks.Speed)
	attrs.Total = combiner.Combine(attrs.Aim, attrs.Speed)
	return attrs, peaks
}
