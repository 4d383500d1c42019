package registry

import "testing"

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "/registrar/servers/"},
		{in: "/proxy/servers", want: "/proxy/servers/"},
		{in: "/proxy/servers/", want: "/proxy/servers/"},
	}

	for _, tt := range tests {
		if got := normalizePrefix(tt.in); got != tt.want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEtcdKey(t *testing.T) {
	e := &Etcd{prefix: normalizePrefix("/registrar/servers")}
	if got := e.key("hub-1"); got != "/registrar/servers/hub-1" {
		t.Errorf("key() = %q", got)
	}
}
