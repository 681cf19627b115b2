package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name     string
		bi       *debug.BuildInfo
		ok       bool
		override string
		want     Info
	}{
		{
			name: "no build info",
			want: Info{Version: "dev"},
		},
		{
			name: "dependency of the test binary",
			bi: &debug.BuildInfo{
				GoVersion: "go1.26.0",
				Main:      debug.Module{Path: "example.com/app", Version: "(devel)"},
				Deps:      []*debug.Module{{Path: Module, Version: "v0.3.1"}},
			},
			ok:   true,
			want: Info{Version: "v0.3.1", GoVersion: "go1.26.0"},
		},
		{
			name: "replaced dependency",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{{Path: Module, Version: "v0.3.1", Replace: &debug.Module{Path: "../rx", Version: ""}}},
			},
			ok:   true,
			want: Info{Version: "dev"},
		},
		{
			name: "own repository",
			bi: &debug.BuildInfo{
				Main: debug.Module{Path: Module, Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			ok:   true,
			want: Info{Version: "dev", Revision: "0123456", Dirty: true},
		},
		{
			name:     "ldflags override",
			bi:       &debug.BuildInfo{Deps: []*debug.Module{{Path: Module, Version: "v0.3.1"}}},
			ok:       true,
			override: "1.0.0",
			want:     Info{Version: "1.0.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromBuildInfo(tt.bi, tt.ok, tt.override)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "v1.2.0", Revision: "abc1234"}, "v1.2.0"},
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "dev", Revision: "abc1234"}, "dev-abc1234"},
		{Info{Version: "dev", Revision: "abc1234", Dirty: true}, "dev-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("%+v: expected %q, got %q", tt.info, tt.want, got)
		}
	}
}

func TestGetNeverEmpty(t *testing.T) {
	if Get().Version == "" {
		t.Error("expected a version")
	}
}
