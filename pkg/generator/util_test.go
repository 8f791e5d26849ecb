package generator

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeURL(t *testing.T) {
	orig := lookupIP
	t.Cleanup(func() { lookupIP = orig })
	lookupIP = func(host string) ([]net.IP, error) {
		switch host {
		case "public.example":
			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		case "internal.example":
			return []net.IP{net.ParseIP("10.0.0.5")}, nil
		}
		return nil, errors.New("no such host")
	}

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"パブリックなホスト名", "https://public.example/image.png", false},
		{"パブリックな IP リテラル", "http://93.184.216.34/a.png", false},

		{"不正なスキーム", "gopher://public.example", true},
		{"GCSスキームは対象外", "gs://bucket/a.png", true},
		{"ループバック", "http://127.0.0.1/admin", true},
		{"IPv6 ループバック", "http://[::1]/admin", true},
		{"プライベートIP (クラスA)", "http://10.255.255.254/metadata", true},
		{"リンクローカル", "http://169.254.169.254/latest/meta-data", true},
		{"プライベートに解決されるホスト", "https://internal.example/a.png", true},
		{"名前解決できないドメイン", "http://this.should.not.exist.invalid", true},
		{"相対パス", "/images/a.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, err := IsSafeURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, safe)
				return
			}
			assert.NoError(t, err)
			assert.True(t, safe)
		})
	}
}
