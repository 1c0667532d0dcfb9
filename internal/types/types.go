// README: Common value types shared across modules.
package types

// ID identifies an entity (driver, vehicle, trip, order, customer).
type ID string

// Point is a geographic coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}
