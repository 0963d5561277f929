package detector

// Regions holds the areas of the changed regions found between two frames.
type Regions []float64

// Total returns the summed area of all regions.
func (r Regions) Total() float64 {
	var total float64
	for _, area := range r {
		total += area
	}
	return total
}

// Largest returns the biggest single region area, or 0 when there are none.
func (r Regions) Largest() float64 {
	var largest float64
	for _, area := range r {
		if area > largest {
			largest = area
		}
	}
	return largest
}

// Significant reports whether the regions amount to accident-scale motion:
// at least one region larger than minArea and a summed area above 2*minArea.
func (r Regions) Significant(minArea float64) bool {
	return r.Largest() > minArea && r.Total() > 2*minArea
}
