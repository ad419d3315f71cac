package timezone

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func noPlatform() (string, error) {
	return "", errors.New("no platform lookup")
}

// newTestSystem isolates a System from the host: empty env, empty fs,
// no platform lookup and a runtime location named "Local".
func newTestSystem(opts ...Option) *System {
	base := []Option{
		WithFs(afero.NewMemMapFs()),
		WithLookupEnv(env(nil)),
		WithPlatformLookup(noPlatform),
		WithLocal(time.FixedZone("Local", 0)),
	}
	return NewSystem(append(base, opts...)...)
}

// linkedFs returns a filesystem rooted in a temp dir whose /etc/localtime
// points at target.
func linkedFs(t *testing.T, target string) afero.Fs {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "etc"), 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "etc", "localtime")))
	return afero.NewBasePathFs(afero.NewOsFs(), dir)
}

func TestFixed(t *testing.T) {
	t.Parallel()

	name, err := Fixed("Asia/Tokyo").Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", name)
}

func TestFunc(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := Func(func() (string, error) { return "", boom }).Resolve()
	assert.ErrorIs(t, err, boom)
}

func TestSystem_TZ(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tz   string
		want string
	}{
		{"zone name", "Europe/Berlin", "Europe/Berlin"},
		{"empty means UTC", "", "UTC"},
		{"leading colon", ":America/New_York", "America/New_York"},
		{"zoneinfo path", "/usr/share/zoneinfo/Asia/Tokyo", "Asia/Tokyo"},
		{"posix path", ":/usr/share/zoneinfo/posix/Australia/Sydney", "Australia/Sydney"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSystem(WithLookupEnv(env(map[string]string{"TZ": tt.tz})))
			got, err := s.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSystem_InvalidTZFallsThrough(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, timezoneFilePath, []byte("Europe/Paris\n"), 0o644))

	s := newTestSystem(
		WithFs(fs),
		WithLookupEnv(env(map[string]string{"TZ": "Not/AZone"})),
	)
	got, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", got)
}

func TestSystem_PlatformLookup(t *testing.T) {
	t.Parallel()

	s := newTestSystem(WithPlatformLookup(func() (string, error) {
		return "America/Sao_Paulo", nil
	}))
	got, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", got)
}

// Windows hosts have no TZ, no /etc files and a runtime location named
// "Local"; only the platform lookup can answer there.
func TestSystem_PlatformOnlyHost(t *testing.T) {
	t.Parallel()

	s := newTestSystem(WithPlatformLookup(func() (string, error) {
		return "Europe/Berlin", nil
	}))
	got, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", got)
}

func TestSystem_InvalidPlatformZoneFallsThrough(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	s := newTestSystem(
		WithLocal(loc),
		WithPlatformLookup(func() (string, error) { return "Argentina/Buenos_Aires", nil }),
	)
	got, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", got)
}

func TestSystem_EtcFilesBeforePlatform(t *testing.T) {
	t.Parallel()

	fs := linkedFs(t, "/usr/share/zoneinfo/America/Argentina/Buenos_Aires")
	s := newTestSystem(
		WithFs(fs),
		WithPlatformLookup(func() (string, error) { return "Argentina/Buenos_Aires", nil }),
	)
	got, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "America/Argentina/Buenos_Aires", got)
}

func TestSystem_LocaltimeLink(t *testing.T) {
	t.Parallel()

	fs := linkedFs(t, "/usr/share/zoneinfo/Europe/Berlin")
	got, err := newTestSystem(WithFs(fs)).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", got)
}

func TestSystem_TZPointsAtLocaltime(t *testing.T) {
	t.Parallel()

	fs := linkedFs(t, "../usr/share/zoneinfo/Pacific/Auckland")
	s := newTestSystem(
		WithFs(fs),
		WithLookupEnv(env(map[string]string{"TZ": ":/etc/localtime"})),
	)
	got, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Pacific/Auckland", got)
}

func TestSystem_LinkOutsideZoneinfo(t *testing.T) {
	t.Parallel()

	fs := linkedFs(t, "/opt/custom/localtime")
	_, err := newTestSystem(WithFs(fs)).Resolve()
	assert.ErrorIs(t, err, ErrUndetermined)
}

func TestSystem_TimezoneFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, timezoneFilePath, []byte("  Etc/UTC \n# comment\n"), 0o644))

	got, err := newTestSystem(WithFs(fs)).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Etc/UTC", got)
}

func TestSystem_RuntimeLocation(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	got, err := newTestSystem(WithLocal(loc)).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", got)
}

func TestSystem_Undetermined(t *testing.T) {
	t.Parallel()

	_, err := newTestSystem().Resolve()
	assert.ErrorIs(t, err, ErrUndetermined)
}

func TestZoneFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/usr/share/zoneinfo/Europe/London", "Europe/London", true},
		{"/var/db/timezone/zoneinfo/America/Chicago", "America/Chicago", true},
		{"/usr/share/zoneinfo/right/UTC", "UTC", true},
		{"/usr/share/zoneinfo/", "", false},
		{"/etc/localtime", "", false},
	}
	for _, tt := range tests {
		got, ok := zoneFromPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}
