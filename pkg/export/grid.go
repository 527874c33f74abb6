package export

// WeekGrid is a rendered weekly timetable for one class or teacher.
// Cells are indexed [period][day]; empty strings mean a free slot.
type WeekGrid struct {
	Title      string
	Subtitle   string
	FooterNote string
	Days       []string
	Periods    []string
	Cells      [][]string
}

// NewWeekGrid allocates an empty grid of the given dimensions.
func NewWeekGrid(days, periods []string) WeekGrid {
	cells := make([][]string, len(periods))
	for i := range cells {
		cells[i] = make([]string, len(days))
	}
	return WeekGrid{Days: days, Periods: periods, Cells: cells}
}

// Set fills one cell, ignoring out-of-range coordinates.
func (g *WeekGrid) Set(day, period int, value string) {
	if period < 0 || period >= len(g.Cells) {
		return
	}
	if day < 0 || day >= len(g.Cells[period]) {
		return
	}
	g.Cells[period][day] = value
}
