package units

import "strconv"

// Round rounds the exact binary value of v to the given number of decimal
// places, ties to even. Round(0.125, 2) is 0.12 and Round(1005.005, 2) is
// 1005 because 1005.005 is stored slightly below the half-way point.
func Round(v float64, places int32) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', int(places), 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatUSD renders v as "$X.XXX" with a fixed number of decimals, rounding
// the same way as Round. Negative amounts render as "$-X.XXX".
func FormatUSD(v float64, places int32) string {
	return "$" + strconv.FormatFloat(v, 'f', int(places), 64)
}
