package guide

import (
	"github.com/paulmach/orb"

	"cicerone/pkg/model"
)

// RecapBound computes the geographic bound covering every place in a
// trip record, used to frame the recap map. ok=false when the record
// has no located places.
func RecapBound(rec *model.TripRecord) (orb.Bound, bool) {
	var mp orb.MultiPoint
	for _, loc := range rec.LocationPhotoMap {
		mp = append(mp, orb.Point{loc.Location.Location.Lon, loc.Location.Location.Lat})
	}
	if len(mp) == 0 {
		return orb.Bound{}, false
	}
	return mp.Bound(), true
}
