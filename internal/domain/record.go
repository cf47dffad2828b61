package domain

// Sentinel values for fields enrichment could not determine.
const (
	CategoryOther   = "Other"
	LocationUnknown = "Unknown"
	YearUnknown     = "unknown"
)

// Country is the fixed country scope of the corpus and of all geocoding queries.
const Country = "Finland"

// RawRecord is one unprocessed corpus entry: the report title (which doubles
// as the record identifier) and the text extracted from the document.
type RawRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EnrichedRecord is the structured representation of a report after
// enrichment. Lat/Lon are pointers so an unresolved location serializes as
// explicit nulls rather than 0,0 (which is a valid coordinate).
type EnrichedRecord struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	AircraftType string   `json:"aircraft_type"`
	Country      string   `json:"country"`
	LocationName string   `json:"location_name"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	URL          string   `json:"url"`
	Summary      string   `json:"summary"`
}
