package dispatch

import (
	"math"
	"regexp"
	"strconv"
)

// The four substitution tokens are matched by one pre-built pattern per
// token, compiled once at process startup (spec.md §9's "regex
// precompilation" requirement), mirroring the Lazy<Regex> statics in
// original_source/src/utils.rs.
var (
	reDeltaX     = regexp.MustCompile(`\$delta_x`)
	reDeltaY     = regexp.MustCompile(`\$delta_y`)
	reScale      = regexp.MustCompile(`\$scale`)
	reDeltaAngle = regexp.MustCompile(`\$delta_angle`)
)

// Substitute replaces $delta_x, $delta_y, $scale, and $delta_angle in cmd
// with the numeric values carried by the current event. Substitution is
// pure text replacement — it never executes a subshell — and formats
// numbers without a locale: a period decimal separator, no thousands
// separator, and no fractional part when the value is integral.
func Substitute(cmd string, dx, dy, scale, deltaAngle float64) string {
	if cmd == "" {
		return cmd
	}
	cmd = reDeltaX.ReplaceAllString(cmd, formatNumber(dx))
	cmd = reDeltaY.ReplaceAllString(cmd, formatNumber(dy))
	cmd = reScale.ReplaceAllString(cmd, formatNumber(scale))
	cmd = reDeltaAngle.ReplaceAllString(cmd, formatNumber(deltaAngle))
	return cmd
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
