package spatial

import (
	"strings"

	"github.com/golang/geo/s2"
)

// Base32 alphabet for geohash
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash encodes latitude and longitude into a geohash string.
// precision is clamped to 1-12 characters.
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}

	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0

	var sb strings.Builder
	sb.Grow(precision)

	even := true
	ch, bits := 0, 0
	for sb.Len() < precision {
		ch <<= 1
		if even {
			if mid := (lonLo + lonHi) / 2; lon > mid {
				ch |= 1
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			if mid := (latLo + latHi) / 2; lat > mid {
				ch |= 1
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even

		if bits++; bits == 5 {
			sb.WriteByte(base32[ch])
			ch, bits = 0, 0
		}
	}

	return sb.String()
}

// GeohashBounds returns the cell of a geohash. ok is false for an empty hash,
// one longer than 12 characters or one with characters outside the alphabet.
func GeohashBounds(geohash string) (cell s2.Rect, ok bool) {
	if geohash == "" || len(geohash) > 12 {
		return s2.EmptyRect(), false
	}

	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0

	even := true
	for i := 0; i < len(geohash); i++ {
		idx := strings.IndexByte(base32, geohash[i])
		if idx < 0 {
			return s2.EmptyRect(), false
		}
		for mask := 16; mask > 0; mask >>= 1 {
			set := idx&mask != 0
			if even {
				mid := (lonLo + lonHi) / 2
				if set {
					lonLo = mid
				} else {
					lonHi = mid
				}
			} else {
				mid := (latLo + latHi) / 2
				if set {
					latLo = mid
				} else {
					latHi = mid
				}
			}
			even = !even
		}
	}

	return s2.RectFromLatLng(s2.LatLngFromDegrees(latLo, lonLo)).
		AddPoint(s2.LatLngFromDegrees(latHi, lonHi)), true
}
