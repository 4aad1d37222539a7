package factors

// Builtin returns the compiled-in factor dataset so the engine runs with no
// files on disk. Values are kg CO2e per unit of activity unless noted.
// External .hcl datasets are layered over these tables at load time.
func Builtin() *Catalog {
	return &Catalog{
		Fuel:        NewTable(TableFuel, DepthFuel, builtinFuel),
		Grid:        NewTable(TableGrid, DepthGrid, builtinGrid),
		Passenger:   NewTable(TablePassenger, DepthVehicle, builtinPassenger),
		Delivery:    NewTable(TableDelivery, DepthVehicle, builtinDelivery),
		Travel:      NewTable(TableTravel, DepthTravel, builtinTravel),
		Refrigerant: NewTable(TableRefrigerant, DepthRefrigerant, builtinRefrigerant),
		Waste:       NewTable(TableWaste, DepthWaste, builtinWaste),
	}
}

// fuel-type group -> fuel -> unit -> kg CO2e per unit
var builtinFuel = map[string]interface{}{
	"Gaseous fuels": map[string]interface{}{
		"Natural gas": map[string]interface{}{
			"kWh":          0.18293,
			"cubic metres": 2.04542,
		},
		"LPG": map[string]interface{}{
			"Litre": 1.55709,
			"kWh":   0.21449,
		},
	},
	"Liquid fuels": map[string]interface{}{
		"Diesel": map[string]interface{}{
			"Litre": 2.70553,
			"kWh":   0.23908,
		},
		"Petrol": map[string]interface{}{
			"Litre": 2.16802,
			"kWh":   0.22719,
		},
		"Fuel oil": map[string]interface{}{
			"Litre": 3.17493,
			"kWh":   0.26792,
		},
	},
	"Solid fuels": map[string]interface{}{
		"Coal (industrial)": map[string]interface{}{
			"Tonne": 2403.84,
			"kWh":   0.34462,
		},
		"Wood pellets": map[string]interface{}{
			"Tonne": 51.94,
			"kWh":   0.01074,
		},
	},
}

// country -> kg CO2e per kWh of grid electricity
var builtinGrid = map[string]interface{}{
	"United Kingdom": 0.20705,
	"Germany":        0.36500,
	"France":         0.05617,
	"Netherlands":    0.33100,
	"Spain":          0.17200,
	"United States":  0.42000,
	"India":          0.71300,
	"China":          0.58100,
	"Brazil":         0.09600,
	"Australia":      0.65600,
}

// activity -> vehicle type -> unit -> kg CO2e per unit
var builtinPassenger = map[string]interface{}{
	"Passenger vehicles": map[string]interface{}{
		"Average car": map[string]interface{}{
			"km":    0.16984,
			"miles": 0.27332,
		},
		"Small car": map[string]interface{}{
			"km":    0.14208,
			"miles": 0.22866,
		},
		"Motorbike": map[string]interface{}{
			"km":    0.11367,
			"miles": 0.18293,
		},
		"Bus": map[string]interface{}{
			"passenger.km": 0.10215,
		},
	},
}

// activity -> vehicle type -> unit -> kg CO2e per unit
var builtinDelivery = map[string]interface{}{
	"Delivery vehicles": map[string]interface{}{
		"Van (class II)": map[string]interface{}{
			"km":       0.17991,
			"tonne.km": 0.58752,
		},
		"HGV (average laden)": map[string]interface{}{
			"km":       0.79731,
			"tonne.km": 0.10649,
		},
	},
	"Freighting goods": map[string]interface{}{
		"Rail": map[string]interface{}{
			"tonne.km": 0.02755,
		},
		"Cargo ship": map[string]interface{}{
			"tonne.km": 0.01614,
		},
		"Air freight": map[string]interface{}{
			"tonne.km": 2.02536,
		},
	},
}

// mode -> unit -> kg CO2e per unit; also used for commuting.
// Factors stored against a mile unit are converted per kilometre at
// calculation time.
var builtinTravel = map[string]interface{}{
	"Average car": map[string]interface{}{
		"km": 0.16984,
	},
	"Car - large": map[string]interface{}{
		"Miles": 0.40300,
	},
	"Taxi": map[string]interface{}{
		"km": 0.20369,
	},
	"Local bus": map[string]interface{}{
		"km": 0.10215,
	},
	"National rail": map[string]interface{}{
		"km": 0.03546,
	},
	"Domestic flight": map[string]interface{}{
		"km": 0.24587,
	},
	"Long-haul flight": map[string]interface{}{
		"km": 0.19085,
	},
}

// refrigerant -> kg CO2e per kg leaked (GWP, AR5)
var builtinRefrigerant = map[string]interface{}{
	"R-404A":   3922,
	"R-410A":   2088,
	"R-407C":   1774,
	"HFC-134a": 1430,
	"HFC-152a": 124,
	"R-32":     675,
}

// material -> disposal method -> kg CO2e per tonne, or N/A where the
// dataset offers no such route
var builtinWaste = map[string]interface{}{
	"Mixed Paper": map[string]interface{}{
		"Recycled":            21.28,
		"Landfilled":          1041.80,
		"Combusted":           21.28,
		"Composted":           "N/A",
		"Anaerobic digestion": "N/A",
	},
	"Mixed Plastics": map[string]interface{}{
		"Recycled":            21.28,
		"Landfilled":          8.90,
		"Combusted":           21.28,
		"Composted":           "N/A",
		"Anaerobic digestion": "N/A",
	},
	"Food waste": map[string]interface{}{
		"Recycled":            "N/A",
		"Landfilled":          626.87,
		"Combusted":           21.28,
		"Composted":           8.911,
		"Anaerobic digestion": 8.911,
	},
	"Garden waste": map[string]interface{}{
		"Recycled":            "N/A",
		"Landfilled":          578.03,
		"Combusted":           21.28,
		"Composted":           8.911,
		"Anaerobic digestion": 8.911,
	},
	"Glass": map[string]interface{}{
		"Recycled":            21.28,
		"Landfilled":          8.90,
		"Combusted":           "N/A",
		"Composted":           "N/A",
		"Anaerobic digestion": "N/A",
	},
	"Wood": map[string]interface{}{
		"Recycled":            21.28,
		"Landfilled":          828.03,
		"Combusted":           21.28,
		"Composted":           8.911,
		"Anaerobic digestion": "N/A",
	},
	"Metal: steel cans": map[string]interface{}{
		"Recycled":            21.28,
		"Landfilled":          8.90,
		"Combusted":           21.28,
		"Composted":           "N/A",
		"Anaerobic digestion": "N/A",
	},
}
