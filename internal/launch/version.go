package launch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/moosedata/My-Code/internal/runner"
	"golang.org/x/mod/semver"
)

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// parseVersion extracts the first dotted version from a version query's
// output, e.g. "Python 3.11.4" becomes "v3.11.4".
func parseVersion(out string) (string, bool) {
	m := versionPattern.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	v := "v" + m[1] + "." + m[2]
	if m[3] != "" {
		v += "." + m[3]
	}
	return v, semver.IsValid(v)
}

// canonicalMin turns a configured minimum such as "3.8" into "v3.8".
func canonicalMin(min string) string {
	if !strings.HasPrefix(min, "v") {
		min = "v" + min
	}
	return min
}

// checkMinVersion compares the probed version against min. Some runtimes
// print their version on stderr, so both streams are searched.
func checkMinVersion(res *runner.Result, min string) (found, detail string, ok bool) {
	out := string(res.Stdout) + "\n" + string(res.Stderr)
	v, parsed := parseVersion(out)
	if !parsed {
		return "", "version not recognised in probe output", false
	}
	want := canonicalMin(min)
	if !semver.IsValid(want) {
		return strings.TrimPrefix(v, "v"), fmt.Sprintf("invalid minimum version %q", min), false
	}
	found = strings.TrimPrefix(v, "v")
	if semver.Compare(v, want) < 0 {
		return found, fmt.Sprintf("found %s, need %s", found, min), false
	}
	return found, "found " + found, true
}
