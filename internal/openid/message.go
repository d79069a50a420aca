// Package openid is the boundary to the OpenID 2.0 wire protocol. The
// authorization engine only ever sees the types and the Codec interface
// defined here; association negotiation, signatures and discovery belong
// to whatever implementation sits behind the interface.
package openid

import (
	"net/url"
	"sort"
	"strings"
)

// Protocol namespace and the reserved "provider, please choose" identifier.
const (
	NS               = "http://specs.openid.net/auth/2.0"
	IdentifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"
)

// Request modes.
const (
	ModeCheckIDSetup        = "checkid_setup"
	ModeCheckIDImmediate    = "checkid_immediate"
	ModeAssociate           = "associate"
	ModeCheckAuthentication = "check_authentication"

	ModeIDRes       = "id_res"
	ModeCancel      = "cancel"
	ModeSetupNeeded = "setup_needed"
	ModeError       = "error"
)

// Request is a decoded protocol request. It serializes to JSON so the
// pending-request slot can hold it across an interactive detour.
type Request struct {
	Mode      string            `json:"mode"`
	Identity  string            `json:"identity"`
	ClaimedID string            `json:"claimed_id"`
	TrustRoot string            `json:"trust_root"`
	ReturnTo  string            `json:"return_to"`
	Immediate bool              `json:"immediate"`
	Raw       map[string]string `json:"raw,omitempty"`
}

// IsBrowserMode reports whether the request belongs to the redirect-based
// checkid family rather than the direct server-to-server modes.
func (r *Request) IsBrowserMode() bool {
	return r.Mode == ModeCheckIDSetup || r.Mode == ModeCheckIDImmediate
}

// Response is an outgoing protocol message. Fields hold the full
// "openid.*" key set without the prefix.
type Response struct {
	Request *Request
	Mode    string
	Fields  map[string]string
}

// Set sets one response field, allocating the map lazily.
func (r *Response) Set(key, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// AddExtension declares an extension namespace under alias and attaches its
// key/value payload, e.g. alias "sreg" yields ns.sreg plus sreg.* fields.
func (r *Response) AddExtension(alias, namespace string, args map[string]string) {
	r.Set("ns."+alias, namespace)
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(alias+"."+k, args[k])
	}
}

// WebResponse is the HTTP-shaped encoding of a Response.
type WebResponse struct {
	Code    int
	Headers map[string]string
	Body    string
}

// kvEncode renders the direct-response key-value form encoding.
func kvEncode(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(fields[k])
		b.WriteString("\n")
	}
	return b.String()
}

// redirectURL appends the response fields to return_to as openid.* query
// parameters.
func redirectURL(returnTo string, fields map[string]string) (string, error) {
	u, err := url.Parse(returnTo)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range fields {
		q.Set("openid."+k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
