package domain

import "math"

// Lambert Conformal Conic parameters of the KMA 5 km forecast grid.
const (
	earthRadiusKM = 6371.00877
	gridSpacingKM = 5.0
	stdParallel1  = 30.0
	stdParallel2  = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 43.0
	originY       = 136.0

	degToRad = math.Pi / 180.0
)

// lambertProjection holds the derived cone constant (sn), scale factor (sf)
// and origin radius (ro), in grid units.
type lambertProjection struct {
	re, sn, sf, ro, olon float64
}

var kmaGrid = newLambertProjection()

func newLambertProjection() lambertProjection {
	re := earthRadiusKM / gridSpacingKM
	slat1 := stdParallel1 * degToRad
	slat2 := stdParallel2 * degToRad
	olat := originLat * degToRad

	sn := math.Tan(math.Pi*0.25+slat2*0.5) / math.Tan(math.Pi*0.25+slat1*0.5)
	sn = math.Log(math.Cos(slat1)/math.Cos(slat2)) / math.Log(sn)

	sf := math.Tan(math.Pi*0.25 + slat1*0.5)
	sf = math.Pow(sf, sn) * math.Cos(slat1) / sn

	ro := math.Tan(math.Pi*0.25 + olat*0.5)
	ro = re * sf / math.Pow(ro, sn)

	return lambertProjection{re: re, sn: sn, sf: sf, ro: ro, olon: originLon * degToRad}
}

// ProjectGrid converts WGS-84 longitude/latitude in degrees to the KMA grid
// cell containing it. Out-of-range input is not rejected; it projects to an
// out-of-range cell.
func ProjectGrid(lon, lat float64) GridCell {
	p := kmaGrid

	ra := math.Tan(math.Pi*0.25 + lat*degToRad*0.5)
	ra = p.re * p.sf / math.Pow(ra, p.sn)

	theta := lon*degToRad - p.olon
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= p.sn

	x := ra*math.Sin(theta) + originX
	y := p.ro - ra*math.Cos(theta) + originY

	return GridCell{
		NX: int(math.Floor(x + 0.5)),
		NY: int(math.Floor(y + 0.5)),
	}
}
