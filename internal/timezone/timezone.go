// Package timezone resolves the IANA time zone identifier of the host.
package timezone

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata" // LoadLocation must work on hosts without zoneinfo files

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	localtimePath    = "/etc/localtime"
	timezoneFilePath = "/etc/timezone"
	zoneinfoMarker   = "/zoneinfo/"
)

// ErrUndetermined is returned when no lookup step yields a loadable zone name.
var ErrUndetermined = errors.New("could not determine local time zone")

// Source resolves a time zone identifier such as "Europe/Berlin".
type Source interface {
	Resolve() (string, error)
}

type fixed string

// Fixed returns a Source that always resolves to name, verbatim.
func Fixed(name string) Source {
	return fixed(name)
}

func (f fixed) Resolve() (string, error) {
	return string(f), nil
}

// Func adapts a plain function to Source.
type Func func() (string, error)

func (f Func) Resolve() (string, error) {
	return f()
}

// System resolves the zone configured on the host.
type System struct {
	fs        afero.Fs
	lookupEnv func(string) (string, bool)
	platform  func() (string, error)
	local     *time.Location
}

// Option configures a System.
type Option func(*System)

// WithFs replaces the filesystem used to inspect /etc.
func WithFs(fs afero.Fs) Option {
	return func(s *System) { s.fs = fs }
}

// WithLookupEnv replaces the environment lookup used for TZ.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(s *System) { s.lookupEnv = fn }
}

// WithPlatformLookup replaces the OS lookup (getprop on Android, tzlocal elsewhere).
func WithPlatformLookup(fn func() (string, error)) Option {
	return func(s *System) { s.platform = fn }
}

// WithLocal replaces the runtime location consulted as the last resort.
func WithLocal(loc *time.Location) Option {
	return func(s *System) { s.local = loc }
}

// NewSystem returns a Source backed by the host configuration.
func NewSystem(opts ...Option) *System {
	s := &System{
		fs:        afero.NewOsFs(),
		lookupEnv: os.LookupEnv,
		platform:  platformZone,
		local:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve walks TZ, the /etc/localtime link, /etc/timezone, the platform lookup
// and finally the runtime location. The first loadable name wins.
func (s *System) Resolve() (string, error) {
	if tz, ok := s.lookupEnv("TZ"); ok {
		name, err := s.fromTZ(tz)
		if err == nil {
			return name, nil
		}
		zlog.Debug().Msgf("timezone: ignoring TZ=[%s]: %v", tz, err)
	}

	steps := []struct {
		name   string
		lookup func() (string, error)
	}{
		{localtimePath, s.fromLocaltimeLink},
		{timezoneFilePath, s.fromTimezoneFile},
		{"platform", s.platform},
		{"runtime", s.fromRuntime},
	}
	for _, step := range steps {
		name, err := step.lookup()
		if err == nil {
			err = validate(name)
		}
		if err != nil {
			zlog.Debug().Msgf("timezone: %s lookup failed: %v", step.name, err)
			continue
		}
		zlog.Debug().Msgf("timezone: resolved [%s] from %s", name, step.name)
		return name, nil
	}
	return "", ErrUndetermined
}

// fromTZ interprets TZ the way the Go runtime does: empty means UTC, a leading
// colon is dropped, absolute paths point at a zoneinfo file.
func (s *System) fromTZ(tz string) (string, error) {
	if tz == "" {
		return "UTC", nil
	}
	tz = strings.TrimPrefix(tz, ":")
	switch {
	case tz == localtimePath:
		name, err := s.fromLocaltimeLink()
		if err != nil {
			return "", err
		}
		tz = name
	case strings.HasPrefix(tz, "/"):
		name, ok := zoneFromPath(tz)
		if !ok {
			return "", errors.Newf("path %q is outside a zoneinfo directory", tz)
		}
		tz = name
	}
	if err := validate(tz); err != nil {
		return "", err
	}
	return tz, nil
}

func (s *System) fromLocaltimeLink() (string, error) {
	reader, ok := s.fs.(afero.LinkReader)
	if !ok {
		return "", errors.New("filesystem cannot read links")
	}
	target, err := reader.ReadlinkIfPossible(localtimePath)
	if err != nil {
		return "", errors.Wrap(err, "readlink")
	}
	name, ok := zoneFromPath(target)
	if !ok {
		return "", errors.Newf("link target %q is outside a zoneinfo directory", target)
	}
	return name, nil
}

func (s *System) fromTimezoneFile() (string, error) {
	data, err := afero.ReadFile(s.fs, timezoneFilePath)
	if err != nil {
		return "", errors.Wrap(err, "read")
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}

func (s *System) fromRuntime() (string, error) {
	if s.local == nil {
		return "", errors.New("no runtime location")
	}
	return s.local.String(), nil
}

// zoneFromPath extracts "Area/City" from a path such as
// /usr/share/zoneinfo/posix/Area/City.
func zoneFromPath(p string) (string, bool) {
	i := strings.LastIndex(p, zoneinfoMarker)
	if i < 0 {
		return "", false
	}
	name := p[i+len(zoneinfoMarker):]
	for _, prefix := range []string{"posix/", "right/"} {
		name = strings.TrimPrefix(name, prefix)
	}
	return name, name != ""
}

func validate(name string) error {
	// LoadLocation accepts both of these without naming a real zone.
	if name == "" || name == "Local" {
		return errors.Newf("%q is not a zone name", name)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return errors.Wrapf(err, "load %q", name)
	}
	return nil
}
