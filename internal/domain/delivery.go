package domain

import (
	"slices"
	"strings"
	"time"
)

// Column names of the delivery dataset, as they appear in the source file.
const (
	ColOrderID      = "Order_ID"
	ColAgentAge     = "Agent_Age"
	ColAgentRating  = "Agent_Rating"
	ColStoreLat     = "Store_Latitude"
	ColStoreLon     = "Store_Longitude"
	ColDropLat      = "Drop_Latitude"
	ColDropLon      = "Drop_Longitude"
	ColArea         = "Area"
	ColVehicle      = "Vehicle"
	ColWeather      = "Weather"
	ColTraffic      = "Traffic"
	ColCategory     = "Category"
	ColDistance     = "Distance"
	ColDeliveryTime = "Delivery_Time"
	ColOrderTime    = "Order_Time"
	ColOrderDate    = "Order_Date"
	ColPickupTime   = "Pickup_Time"
)

// RequiredColumns lists the columns every dataset source must provide, in export order.
var RequiredColumns = []string{
	ColOrderID, ColAgentAge, ColAgentRating,
	ColStoreLat, ColStoreLon, ColDropLat, ColDropLon,
	ColArea, ColVehicle, ColWeather, ColTraffic, ColCategory,
	ColDistance, ColDeliveryTime, ColOrderTime,
}

// NumericColumns are the required columns parsed as float64.
var NumericColumns = []string{
	ColAgentAge, ColAgentRating,
	ColStoreLat, ColStoreLon, ColDropLat, ColDropLon,
	ColDistance, ColDeliveryTime,
}

// CategoricalColumns are the string columns that can be grouped on.
var CategoricalColumns = []string{ColArea, ColVehicle, ColWeather, ColTraffic, ColCategory}

// IsCategorical reports whether col can be used as a group-by key.
func IsCategorical(col string) bool { return slices.Contains(CategoricalColumns, col) }

// Represents a single delivery order.
// A Delivery is immutable once loaded; the struct tags name the frame columns
// used when a slice of deliveries is turned into a dataframe.
type Delivery struct {
	OrderID      string  `dataframe:"Order_ID,string"`
	AgentAge     float64 `dataframe:"Agent_Age,float"`
	AgentRating  float64 `dataframe:"Agent_Rating,float"`
	StoreLat     float64 `dataframe:"Store_Latitude,float"`
	StoreLon     float64 `dataframe:"Store_Longitude,float"`
	DropLat      float64 `dataframe:"Drop_Latitude,float"`
	DropLon      float64 `dataframe:"Drop_Longitude,float"`
	Area         string  `dataframe:"Area,string"`
	Vehicle      string  `dataframe:"Vehicle,string"`
	Weather      string  `dataframe:"Weather,string"`
	Traffic      string  `dataframe:"Traffic,string"`
	Category     string  `dataframe:"Category,string"`
	Distance     float64 `dataframe:"Distance,float"`
	DeliveryTime float64 `dataframe:"Delivery_Time,float"`
	OrderTime    string  `dataframe:"Order_Time,string"`
	OrderDate    string  `dataframe:"-"`
	PickupTime   string  `dataframe:"-"`
}

func (d Delivery) Store() Coordinates { return Coordinates{Lat: d.StoreLat, Lon: d.StoreLon} }

func (d Delivery) Drop() Coordinates { return Coordinates{Lat: d.DropLat, Lon: d.DropLon} }

// Categorical returns the value of a categorical column, or "" for unknown columns.
func (d Delivery) Categorical(col string) string {
	switch col {
	case ColArea:
		return d.Area
	case ColVehicle:
		return d.Vehicle
	case ColWeather:
		return d.Weather
	case ColTraffic:
		return d.Traffic
	case ColCategory:
		return d.Category
	}
	return ""
}

// Dataset is the process-wide snapshot of delivery records.
// Err carries the user-visible message when the source could not be read;
// in that case Rows is empty and every view operates on no data.
type Dataset struct {
	Rows     []Delivery
	Source   string
	LoadedAt time.Time
	Skipped  int
	Err      string
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

var clockLayouts = []string{"15:04:05", "15:04"}

// ParseClock parses a raw clock string such as "11:30:00" into an offset from midnight.
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}
