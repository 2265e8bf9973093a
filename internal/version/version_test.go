package version

import "testing"

func TestDefaultsAreSet(t *testing.T) {
	for name, v := range map[string]string{
		"Version":   Version,
		"BuildTime": BuildTime,
		"GitCommit": GitCommit,
	} {
		if v == "" {
			t.Errorf("%s should never be empty, ldflags or the default must fill it", name)
		}
	}
}
