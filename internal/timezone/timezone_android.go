//go:build android

package timezone

import (
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Init points time.Local at the device zone. Go defaults to UTC on Android;
// if detection fails time.Local is left alone.
func Init() {
	name, err := platformZone()
	if err != nil {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return
	}
	time.Local = loc
}

// platformZone reads the Android system property holding the zone name.
func platformZone() (string, error) {
	output, err := exec.Command("getprop", "persist.sys.timezone").Output()
	if err != nil {
		return "", errors.Wrap(err, "getprop persist.sys.timezone")
	}
	name := strings.TrimSpace(string(output))
	if name == "" {
		return "", errors.New("persist.sys.timezone is empty")
	}
	return name, nil
}
