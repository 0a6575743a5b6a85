package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// NewClientIPMiddleware は信頼済みプロキシ経由のリクエストに限り、
// X-Forwarded-ForからクライアントIPを求めてRemoteAddrを書き換えるミドルウェアを返す。
//
// X-Forwarded-Forは右端から辿り、信頼済みプロキシではない最初のアドレスを
// クライアントとみなす。接続元が信頼済みプロキシでない場合、ヘッダーは無視する。
// trustedが空の場合は何もしない。
func NewClientIPMiddleware(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip, ok := forwardedClientIP(r, trusted); ok {
				r.RemoteAddr = net.JoinHostPort(ip.String(), "0")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClientIP(r *http.Request, trusted []netip.Prefix) (netip.Addr, bool) {
	peer, err := netip.ParseAddr(clientIP(r))
	if err != nil || !isTrustedProxy(peer.Unmap(), trusted) {
		return netip.Addr{}, false
	}

	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(v, ",")...)
	}

	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			// 解析できない値より左は信頼できない
			return netip.Addr{}, false
		}
		addr = addr.Unmap()
		if !isTrustedProxy(addr, trusted) {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

func isTrustedProxy(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
