package provider

import (
	"context"
	"log/slog"

	"openid-provider/internal/account"
	"openid-provider/internal/openid"
)

// Extension namespaces.
const (
	sregNS = "http://openid.net/extensions/sreg/1.1"
	axNS   = "http://openid.net/srv/ax/1.0"
)

// AX schema type URIs published in fetch responses.
const (
	axTypeEmail    = "http://axschema.org/contact/email"
	axTypeFullName = "http://axschema.org/namePerson"
	axTypeNickname = "http://axschema.org/namePerson/friendly"
)

// ExtensionAssembler decorates outgoing responses with profile data for
// authenticated callers: simple registration always, attribute exchange
// only when enabled.
type ExtensionAssembler struct {
	accounts  account.Store
	axEnabled bool
	logger    *slog.Logger
}

func NewExtensionAssembler(accounts account.Store, axEnabled bool, logger *slog.Logger) *ExtensionAssembler {
	return &ExtensionAssembler{accounts: accounts, axEnabled: axEnabled, logger: logger}
}

// Attach adds extension payloads to resp. Attaching is best-effort: if the
// profile cannot be loaded the response goes out undecorated, with its
// mode and fields untouched.
func (a *ExtensionAssembler) Attach(ctx context.Context, accountID string, req *openid.Request, resp *openid.Response) {
	acc, err := a.accounts.FindByID(ctx, accountID)
	if err != nil {
		a.logger.WarnContext(ctx, "profile unavailable, skipping extensions",
			"account_id", accountID,
			"error", err,
		)
		return
	}

	resp.AddExtension("sreg", sregNS, sregArgs(acc))
	if a.axEnabled {
		resp.AddExtension("ax", axNS, axArgs(acc))
	}
}

func sregArgs(acc account.Account) map[string]string {
	args := make(map[string]string)
	if acc.Username != "" {
		args["nickname"] = acc.Username
	}
	if acc.Email != "" {
		args["email"] = acc.Email
	}
	if acc.FullName != "" {
		args["fullname"] = acc.FullName
	}
	return args
}

func axArgs(acc account.Account) map[string]string {
	args := map[string]string{"mode": "fetch_response"}
	if acc.Email != "" {
		args["type.email"] = axTypeEmail
		args["value.email"] = acc.Email
	}
	if acc.FullName != "" {
		args["type.fullname"] = axTypeFullName
		args["value.fullname"] = acc.FullName
	}
	if acc.Username != "" {
		args["type.nickname"] = axTypeNickname
		args["value.nickname"] = acc.Username
	}
	return args
}
