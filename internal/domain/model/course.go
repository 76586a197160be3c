package model

// Course is the catalog projection settlement needs: a price and a title.
// The catalog service owns the rest.
type Course struct {
	ID        int64
	Title     string
	BasePrice float64
}
