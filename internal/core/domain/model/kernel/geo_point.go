package kernel

import (
	"errors"
	"fmt"

	"superservice/internal/pkg/errs"
	"superservice/internal/pkg/guard"
)

const (
	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0
)

// ErrGeoPointIsNotConstructed is returned when a zero GeoPoint is used.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint")

// GeoPoint is a WGS84 coordinate pair. Trips carry one for the pickup and
// one for the drop-off. The zero value is invalid.
//
// Example:
//
//	origin, err := kernel.NewGeoPoint(10.4806, -66.9036)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(origin) // GeoPoint(10.480600,-66.903600)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint validates both coordinates and reports every violation at once.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{guard: guard.NewConstructorGuard()}
	if err := errors.Join(p.setLatitude(lat), p.setLongitude(lon)); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p GeoPoint) Latitude() float64 {
	return p.lat
}

func (p GeoPoint) Longitude() float64 {
	return p.lon
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lon)
}

// IsEqual compares coordinates; both points must be constructed.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}
	return p.lat == other.lat && p.lon == other.lon, nil
}

func (p *GeoPoint) setLatitude(lat float64) error {
	if lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}
	p.lat = lat
	return nil
}

func (p *GeoPoint) setLongitude(lon float64) error {
	if lon < LongitudeMin || lon > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lon, LongitudeMin, LongitudeMax)
	}
	p.lon = lon
	return nil
}
