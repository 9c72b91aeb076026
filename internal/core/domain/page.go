package domain

// Page is the loader's output record: the text of one page together
// with whatever layout information the source format could supply.
// Flat formats produce a single pseudo-page with Number 1 and no boxes.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Width and Height describe the page coordinate extent.
	// Zero for formats without a page geometry.
	Width  float64
	Height float64

	// Blocks are the text blocks of the page in reading order.
	Blocks []Block
}

// Block is a run of text with an optional position on the page.
type Block struct {
	Text string
	BBox *BoundingBox
}

// Text concatenates the page's blocks with blank lines between them.
func (p *Page) Text() string {
	out := ""
	for i, b := range p.Blocks {
		if i > 0 {
			out += "\n\n"
		}
		out += b.Text
	}
	return out
}
