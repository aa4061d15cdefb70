// README: Shared identifier, coordinate, and money types used across modules.
package types

// ID identifies users, orders, and dispatch records.
type ID string

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Money is an amount in minor units with its currency code.
type Money struct {
	Amount   int64
	Currency string
}
