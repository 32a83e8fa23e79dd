package domain

// Product is a catalog entry resolved from a scanned or typed code.
// Instances are immutable once fetched; a new lookup replaces the
// current product wholesale.
type Product struct {
	ID          string
	Code        string
	Name        string
	Price       int64 // tax-exclusive, in yen
	PriceIncTax int64
}
