package openid

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Codec is the protocol-library surface the engine depends on. A full
// implementation would add association state and signing; the engine does
// not care which one it is handed.
type Codec interface {
	// DecodeRequest returns nil when the parameters carry no protocol
	// request. That is an expected outcome, not an error.
	DecodeRequest(params url.Values) *Request

	// Answer builds the assertion response for a browser-mode request.
	Answer(req *Request, positive bool, identityURL string) *Response

	// HandleRequest services the direct (non-interactive) modes.
	HandleRequest(ctx context.Context, req *Request) *Response

	// ErrorResponse renders a failure through the protocol error path.
	ErrorResponse(req *Request, message string) *Response

	// EncodeResponse turns a Response into an HTTP-shaped result.
	EncodeResponse(resp *Response) WebResponse
}

// DefaultCodec is a mechanical OpenID 2.0 message codec. It covers decode,
// assertion building and encode; association and check_authentication are
// answered through the error path since this provider does not negotiate
// associations (stateless verification is likewise unsupported).
type DefaultCodec struct {
	// OPEndpoint is the absolute URL of the provider endpoint, echoed in
	// positive assertions.
	OPEndpoint string
}

func NewDefaultCodec(opEndpoint string) *DefaultCodec {
	return &DefaultCodec{OPEndpoint: opEndpoint}
}

func (c *DefaultCodec) DecodeRequest(params url.Values) *Request {
	mode := params.Get("openid.mode")
	if mode == "" {
		return nil
	}

	identity := params.Get("openid.identity")
	claimed := params.Get("openid.claimed_id")
	if identity == "" {
		identity = claimed
	}

	// OpenID 2.0 calls it realm, 1.x called it trust_root.
	trustRoot := params.Get("openid.realm")
	if trustRoot == "" {
		trustRoot = params.Get("openid.trust_root")
	}
	returnTo := params.Get("openid.return_to")
	if trustRoot == "" {
		trustRoot = returnTo
	}

	raw := make(map[string]string, len(params))
	for k := range params {
		raw[k] = params.Get(k)
	}

	return &Request{
		Mode:      mode,
		Identity:  identity,
		ClaimedID: claimed,
		TrustRoot: trustRoot,
		ReturnTo:  returnTo,
		Immediate: mode == ModeCheckIDImmediate,
		Raw:       raw,
	}
}

func (c *DefaultCodec) Answer(req *Request, positive bool, identityURL string) *Response {
	resp := &Response{Request: req}
	if !positive {
		if req.Immediate {
			resp.Mode = ModeSetupNeeded
		} else {
			resp.Mode = ModeCancel
		}
		resp.Set("ns", NS)
		resp.Set("mode", resp.Mode)
		return resp
	}

	resp.Mode = ModeIDRes
	resp.Set("ns", NS)
	resp.Set("mode", ModeIDRes)
	resp.Set("op_endpoint", c.OPEndpoint)
	resp.Set("identity", identityURL)
	claimed := req.ClaimedID
	if claimed == "" || claimed == IdentifierSelect {
		claimed = identityURL
	}
	resp.Set("claimed_id", claimed)
	resp.Set("return_to", req.ReturnTo)
	resp.Set("response_nonce", time.Now().UTC().Format(time.RFC3339)+uuid.NewString()[:8])
	return resp
}

func (c *DefaultCodec) HandleRequest(ctx context.Context, req *Request) *Response {
	_ = ctx
	switch req.Mode {
	case ModeAssociate:
		// No association support; the relying party falls back to
		// stateless mode against a provider that offers it.
		return c.ErrorResponse(req, "association is not supported")
	case ModeCheckAuthentication:
		return c.ErrorResponse(req, "check_authentication is not supported")
	default:
		return c.ErrorResponse(req, "unknown mode "+req.Mode)
	}
}

func (c *DefaultCodec) ErrorResponse(req *Request, message string) *Response {
	resp := &Response{Request: req, Mode: ModeError}
	resp.Set("ns", NS)
	resp.Set("mode", ModeError)
	resp.Set("error", message)
	return resp
}

func (c *DefaultCodec) EncodeResponse(resp *Response) WebResponse {
	// Assertion responses ride back to the relying party on return_to.
	if resp.Request != nil && resp.Request.IsBrowserMode() && resp.Mode != ModeError && resp.Request.ReturnTo != "" {
		location, err := redirectURL(resp.Request.ReturnTo, resp.Fields)
		if err != nil {
			return WebResponse{
				Code: http.StatusBadRequest,
				Body: kvEncode(map[string]string{"ns": NS, "mode": ModeError, "error": "invalid return_to"}),
			}
		}
		return WebResponse{
			Code:    http.StatusFound,
			Headers: map[string]string{"Location": location},
		}
	}

	code := http.StatusOK
	if resp.Mode == ModeError {
		code = http.StatusBadRequest
	}
	return WebResponse{Code: code, Body: kvEncode(resp.Fields)}
}
