package maps

import "github.com/Majo7-613/Wheels-Unisabana-2/internal/geo"

// TransmilenioRoute is one trunk line of the Bogotá BRT network.
type TransmilenioRoute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TransmilenioStation is a trunk station.
type TransmilenioStation struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Route string  `json:"route"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// TransmilenioStop is a boarding stop usable as a trip pickup point.
type TransmilenioStop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Static catalog served by the maps endpoints and consumed by the trip
// engine's polyline snapping. Coordinates are trunk-corridor approximations.
var transmilenioRoutes = []TransmilenioRoute{
	{ID: "A", Name: "Autopista Norte"},
	{ID: "B", Name: "Calle 80"},
	{ID: "C", Name: "Avenida Suba"},
	{ID: "D", Name: "Avenida Caracas"},
	{ID: "J", Name: "Avenida El Dorado"},
}

var transmilenioStations = []TransmilenioStation{
	{ID: "A-PN", Name: "Portal Norte", Route: "A", Lat: 4.75459, Lng: -74.04570},
	{ID: "A-TO", Name: "Toberín", Route: "A", Lat: 4.74470, Lng: -74.04620},
	{ID: "A-C146", Name: "Calle 146", Route: "A", Lat: 4.72661, Lng: -74.04900},
	{ID: "A-C127", Name: "Calle 127", Route: "A", Lat: 4.70400, Lng: -74.05290},
	{ID: "A-PE", Name: "Pepe Sierra", Route: "A", Lat: 4.69534, Lng: -74.05460},
	{ID: "A-C100", Name: "Calle 100", Route: "A", Lat: 4.68580, Lng: -74.05700},
	{ID: "A-VI", Name: "Virrey", Route: "A", Lat: 4.67390, Lng: -74.05900},
	{ID: "A-C85", Name: "Calle 85", Route: "A", Lat: 4.66730, Lng: -74.06030},
	{ID: "A-HE", Name: "Héroes", Route: "A", Lat: 4.66190, Lng: -74.06180},
	{ID: "D-C72", Name: "Calle 72", Route: "D", Lat: 4.65800, Lng: -74.06290},
	{ID: "D-C63", Name: "Calle 63", Route: "D", Lat: 4.64970, Lng: -74.06480},
	{ID: "D-C45", Name: "Calle 45", Route: "D", Lat: 4.63280, Lng: -74.06870},
	{ID: "D-AJ", Name: "Av. Jiménez", Route: "D", Lat: 4.60280, Lng: -74.07630},
	{ID: "J-UN", Name: "Universidades", Route: "J", Lat: 4.60420, Lng: -74.06870},
}

var transmilenioStops = []TransmilenioStop{
	{ID: "stop-portal-norte", Name: "Portal Norte", Lat: 4.75459, Lng: -74.04570},
	{ID: "stop-toberin", Name: "Toberín", Lat: 4.74470, Lng: -74.04620},
	{ID: "stop-calle-146", Name: "Calle 146", Lat: 4.72661, Lng: -74.04900},
	{ID: "stop-calle-127", Name: "Calle 127", Lat: 4.70400, Lng: -74.05290},
	{ID: "stop-pepe-sierra", Name: "Pepe Sierra", Lat: 4.69534, Lng: -74.05460},
	{ID: "stop-calle-100", Name: "Calle 100", Lat: 4.68580, Lng: -74.05700},
	{ID: "stop-virrey", Name: "Virrey", Lat: 4.67390, Lng: -74.05900},
	{ID: "stop-calle-85", Name: "Calle 85", Lat: 4.66730, Lng: -74.06030},
	{ID: "stop-heroes", Name: "Héroes", Lat: 4.66190, Lng: -74.06180},
	{ID: "stop-calle-72", Name: "Calle 72", Lat: 4.65800, Lng: -74.06290},
	{ID: "stop-calle-63", Name: "Calle 63", Lat: 4.64970, Lng: -74.06480},
	{ID: "stop-calle-45", Name: "Calle 45", Lat: 4.63280, Lng: -74.06870},
	{ID: "stop-av-jimenez", Name: "Av. Jiménez", Lat: 4.60280, Lng: -74.07630},
	{ID: "stop-universidades", Name: "Universidades", Lat: 4.60420, Lng: -74.06870},
	{ID: "stop-unisabana", Name: "Universidad de La Sabana", Lat: 4.86130, Lng: -74.03340},
	{ID: "stop-puente-madera", Name: "Puente de Madera", Lat: 4.85540, Lng: -74.04880},
}

// TransmilenioRoutes returns the trunk line catalog.
func TransmilenioRoutes() []TransmilenioRoute { return transmilenioRoutes }

// TransmilenioStations returns the trunk station catalog.
func TransmilenioStations() []TransmilenioStation { return transmilenioStations }

// TransmilenioStops returns the boarding stop catalog.
func TransmilenioStops() []TransmilenioStop { return transmilenioStops }

// SnapStops exposes the catalog as geo stops for the trip engine.
func SnapStops() []geo.Stop {
	stops := make([]geo.Stop, 0, len(transmilenioStops))
	for _, s := range transmilenioStops {
		stops = append(stops, geo.Stop{ID: s.ID, Name: s.Name, Lat: s.Lat, Lng: s.Lng})
	}
	return stops
}

// FindStop looks a stop up by id.
func FindStop(id string) (TransmilenioStop, bool) {
	for _, s := range transmilenioStops {
		if s.ID == id {
			return s, true
		}
	}
	return TransmilenioStop{}, false
}
