package domain

// CartLine is one accepted product occupying one position in the current
// transaction. It snapshots the product's fields at the moment it was
// added, so later lookups cannot retroactively change a line.
type CartLine struct {
	Seq         int // 1-based, unique within the cart
	ProductID   string
	Code        string
	Name        string
	Price       int64
	PriceIncTax int64
}

// Cart is an ordered sequence of lines plus two running totals. The
// totals are derived values: they are only ever moved by Add and Clear,
// in lockstep with Lines.
type Cart struct {
	Lines       []CartLine
	TotalExTax  int64
	TotalIncTax int64
}

// Add appends a snapshot of p as the next line and returns it.
func (c *Cart) Add(p Product) CartLine {
	line := CartLine{
		Seq:         len(c.Lines) + 1,
		ProductID:   p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Price:       p.Price,
		PriceIncTax: p.PriceIncTax,
	}
	c.Lines = append(c.Lines, line)
	c.TotalExTax += p.Price
	c.TotalIncTax += p.PriceIncTax
	return line
}

func (c *Cart) Clear() {
	c.Lines = nil
	c.TotalExTax = 0
	c.TotalIncTax = 0
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Snapshot returns a copy whose line slice does not alias the cart,
// safe to hand to callers that run outside the session lock.
func (c *Cart) Snapshot() Cart {
	out := Cart{
		TotalExTax:  c.TotalExTax,
		TotalIncTax: c.TotalIncTax,
	}
	if len(c.Lines) > 0 {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}
