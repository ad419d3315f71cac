//go:build !android

package timezone

import (
	"github.com/cockroachdb/errors"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Init is a no-op: the Go runtime already derives time.Local from the host.
func Init() {}

// platformZone asks the OS for its configured zone: the /etc/localtime link on
// unix, tzutil or the registry (mapped to IANA) on Windows.
func platformZone() (string, error) {
	name, err := tzlocal.LocalTZ()
	if err != nil {
		return "", errors.Wrap(err, "tzlocal")
	}
	return name, nil
}
