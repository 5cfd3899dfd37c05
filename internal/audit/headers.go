package audit

import "github.com/garagon/tatu/internal/types"

// SecurityHeader is a recommended HTTP response header. The list is
// reference data for reports and the CLI; nothing here performs requests.
type SecurityHeader struct {
	Name        string         `json:"name"`
	Severity    types.Severity `json:"severity"` // severity when the header is missing
	Recommended string         `json:"recommended"`
	Description string         `json:"description"`
}

var securityHeaders = []SecurityHeader{
	{
		Name:        "Strict-Transport-Security",
		Severity:    types.SeverityHigh,
		Recommended: "max-age=31536000; includeSubDomains",
		Description: "Forces browsers to use HTTPS for all future requests to the host.",
	},
	{
		Name:        "Content-Security-Policy",
		Severity:    types.SeverityHigh,
		Recommended: "default-src 'self'",
		Description: "Restricts where scripts, styles and other resources may load from, limiting XSS impact.",
	},
	{
		Name:        "X-Content-Type-Options",
		Severity:    types.SeverityMedium,
		Recommended: "nosniff",
		Description: "Stops browsers from MIME-sniffing responses into executable types.",
	},
	{
		Name:        "X-Frame-Options",
		Severity:    types.SeverityMedium,
		Recommended: "DENY",
		Description: "Prevents the page from being framed by other sites (clickjacking).",
	},
	{
		Name:        "Referrer-Policy",
		Severity:    types.SeverityLow,
		Recommended: "strict-origin-when-cross-origin",
		Description: "Limits how much of the URL is sent to other origins in the Referer header.",
	},
	{
		Name:        "Permissions-Policy",
		Severity:    types.SeverityLow,
		Recommended: "camera=(), microphone=(), geolocation=()",
		Description: "Disables browser features the application does not use.",
	},
	{
		Name:        "Cross-Origin-Opener-Policy",
		Severity:    types.SeverityLow,
		Recommended: "same-origin",
		Description: "Isolates the browsing context from cross-origin windows.",
	},
}

// SecurityHeaders returns a copy of the recommended header list, most severe
// first.
func SecurityHeaders() []SecurityHeader {
	out := make([]SecurityHeader, len(securityHeaders))
	copy(out, securityHeaders)
	return out
}
