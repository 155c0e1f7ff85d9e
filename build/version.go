package build

import (
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// /////START BUILD_TIME POPULATED VARS///////
var CurrentCommit string

// /////END BUILD_TIME POPULATED VARS///////

// Major.Minor.Patch
var BuildVersionArray = [3]int{0, 4, 0}

// RC
var BuildVersionRC = 0

// Ex: "0.4.0" or "0.4.0-rcX"
var BuildVersion string

func init() {
	BuildVersion = formatVersion(BuildVersionArray, BuildVersionRC)
}

func formatVersion(v [3]int, rc int) string {
	version := strings.Join(lo.Map(v[:],
		func(i int, _ int) string { return strconv.Itoa(i) }), ".")

	if rc > 0 {
		version += "-rc" + strconv.Itoa(rc)
	}
	return version
}

func UserVersion() string {
	if os.Getenv("MIXPROOF_VERSION_IGNORE_COMMIT") == "1" || CurrentCommit == "" {
		return BuildVersion
	}
	return BuildVersion + "+" + CurrentCommit
}
