package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewOutboundClientTimeout はタイムアウト設定が反映されることをテストする。
func TestNewOutboundClientTimeout(t *testing.T) {
	timeout := 5 * time.Second
	client := NewOutboundClient(timeout)
	if client == nil {
		t.Fatal("NewOutboundClient() returned nil")
	}
	if client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Fatal("expected custom Transport")
	}
}

// TestNewOutboundClientBlocksLoopback はループバックへのリクエストがブロックされることをテストする。
// httptestのTLSサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewOutboundClientBlocksLoopback(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewOutboundClient(5 * time.Second)
	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

// TestNewOutboundClientBlocksPlainHTTP はhttpスキームへのリクエストがブロックされることをテストする。
func TestNewOutboundClientBlocksPlainHTTP(t *testing.T) {
	client := NewOutboundClient(time.Second)
	if _, err := client.Get("http://www.googleapis.com/oauth2/v3/certs"); err == nil {
		t.Fatal("expected error for http scheme, got nil")
	}
}

func TestValidatePublicHTTPSURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"Googleのプロフィール画像", "https://lh3.googleusercontent.com/a/photo.jpg", false},
		{"空文字列", "", true},
		{"httpスキーム", "http://example.com/p.png", true},
		{"javascriptスキーム", "javascript:alert(1)", true},
		{"ホストなし", "https:///p.png", true},
		{"プライベートIP", "https://10.0.0.1/p.png", true},
		{"ループバック", "https://127.0.0.1/p.png", true},
		{"メタデータIP", "https://169.254.169.254/latest", true},
		{"IPv6ループバック", "https://[::1]/p.png", true},
		{"localhost", "https://LOCALHOST/p.png", true},
		{"公開IP", "https://8.8.8.8/p.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePublicHTTPSURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePublicHTTPSURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
