package constants

import "time"

// 每次尝试使用独立的代理连接
const (
	ProxyDialTimeout         = 15 * time.Second
	ProxyTLSHandshakeTimeout = 15 * time.Second
	ProxyResponseHeaderWait  = 30 * time.Second

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	AcceptLanguage   = "en-US"
)

// DefaultTranscriptLanguages is the caption language preference when none is configured.
func DefaultTranscriptLanguages() []string { return []string{"bn", "en", "hi"} }
