package buildinfo

import "testing"

func TestInfoString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info Info
		want string
	}{
		{name: "dev", info: Info{Version: "dev"}, want: "dev"},
		{name: "tags", info: Info{Version: "v1.2.0", Tags: "netgo"}, want: "v1.2.0 (tags: netgo)"},
		{
			name: "revision",
			info: Info{Version: "dev", Revision: "0123456789abcdef0123", Modified: true},
			want: "dev 0123456789ab-dirty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.info.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadHasVersion(t *testing.T) {
	t.Parallel()

	if got := Read(); got.Version == "" {
		t.Fatalf("Read() = %+v, want a version", got)
	}
}
