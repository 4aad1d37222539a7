package factors

// Table names, also used as dataset block types and API path segments.
const (
	TableFuel        = "fuel"
	TableGrid        = "grid"
	TablePassenger   = "passenger_vehicles"
	TableDelivery    = "delivery_vehicles"
	TableTravel      = "travel"
	TableRefrigerant = "refrigerant"
	TableWaste       = "waste"
)

// Table depths (dimensions to a terminal factor).
const (
	DepthFuel        = 3 // fuel-type group -> fuel -> unit
	DepthGrid        = 1 // country
	DepthVehicle     = 3 // activity -> vehicle type -> unit
	DepthTravel      = 2 // mode -> unit
	DepthRefrigerant = 1 // refrigerant
	DepthWaste       = 2 // material -> disposal method
)

// Catalog groups the session's factor tables. The catalog is loaded once per
// session and treated as read-only for its duration.
type Catalog struct {
	Fuel        *Table
	Grid        *Table
	Passenger   *Table
	Delivery    *Table
	Travel      *Table
	Refrigerant *Table
	Waste       *Table
}

// EmptyCatalog returns a catalog of present-but-empty tables. All lookups
// against it resolve to Unresolved, never panic; this is the catalog's state
// while a dataset load is still in flight.
func EmptyCatalog() *Catalog {
	return &Catalog{
		Fuel:        Empty(TableFuel, DepthFuel),
		Grid:        Empty(TableGrid, DepthGrid),
		Passenger:   Empty(TablePassenger, DepthVehicle),
		Delivery:    Empty(TableDelivery, DepthVehicle),
		Travel:      Empty(TableTravel, DepthTravel),
		Refrigerant: Empty(TableRefrigerant, DepthRefrigerant),
		Waste:       Empty(TableWaste, DepthWaste),
	}
}

// Table returns the named table, or nil if the name is unknown
func (c *Catalog) Table(name string) *Table {
	switch name {
	case TableFuel:
		return c.Fuel
	case TableGrid:
		return c.Grid
	case TablePassenger:
		return c.Passenger
	case TableDelivery:
		return c.Delivery
	case TableTravel:
		return c.Travel
	case TableRefrigerant:
		return c.Refrigerant
	case TableWaste:
		return c.Waste
	default:
		return nil
	}
}

// TableNames lists the catalog's table names in display order
func TableNames() []string {
	return []string{
		TableFuel,
		TableGrid,
		TablePassenger,
		TableDelivery,
		TableTravel,
		TableRefrigerant,
		TableWaste,
	}
}

// GridFactor resolves the electricity grid factor for a country
func (c *Catalog) GridFactor(country string) Resolution {
	return c.Grid.Resolve(country)
}

// AvailableDisposalMethods returns the disposal methods the dataset offers
// for a material. Methods whose cell is the NotApplicable sentinel are
// excluded from the selectable list.
func (c *Catalog) AvailableDisposalMethods(material string) []string {
	return c.Waste.AvailableOptions(material)
}

// Merge layers other's tables over c, returning a new catalog
func (c *Catalog) Merge(other *Catalog) *Catalog {
	return &Catalog{
		Fuel:        c.Fuel.Merge(other.Fuel),
		Grid:        c.Grid.Merge(other.Grid),
		Passenger:   c.Passenger.Merge(other.Passenger),
		Delivery:    c.Delivery.Merge(other.Delivery),
		Travel:      c.Travel.Merge(other.Travel),
		Refrigerant: c.Refrigerant.Merge(other.Refrigerant),
		Waste:       c.Waste.Merge(other.Waste),
	}
}
