package layout

import "github.com/matzehuels/tabledraw/pkg/table"

// Item fill colours by status.
const (
	FillRed   = "#f8cecc"
	FillAmber = "#fff2cc"
	FillGreen = "#d5e8d4"
)

// StatusFill returns the fill colour for s. Unknown statuses get FillAmber.
func StatusFill(s table.Status) string {
	switch s {
	case table.StatusRed:
		return FillRed
	case table.StatusGreen:
		return FillGreen
	}
	return FillAmber
}

// ItemStyle returns the draw.io style of an item with status s.
func ItemStyle(s table.Status) string {
	return "rounded=1;fillColor=" + StatusFill(s)
}
