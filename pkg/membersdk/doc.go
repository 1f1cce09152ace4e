/*
Package membersdk provides a client SDK and the shared wire types for the
NeverPayForAds membership service.

# Overview

The service activates memberships from signed commerce webhooks and signs
members in with single-use magic links. The SDK mirrors its HTTP surface:

	client := membersdk.NewClient("https://api.example.com")

	// Ask for a login link; always succeeds for a well-formed email.
	err := client.SendMagicLink(ctx, "a@example.com")

	// Redeem the link. The session cookie is kept in the client's jar.
	redirect, err := client.VerifyMagicLink(ctx, secret)

	// Who am I, and am I entitled right now?
	me, err := client.Me(ctx)

Admin endpoints take HTTP Basic credentials and an optional one-time code:

	admin := client.WithAdmin("admin", password, otp)
	page, err := admin.ListUsers(ctx, 1, 25)

# Errors

Non-success responses are returned as *APIError carrying the HTTP status and
the error code from the body. Compare codes with errors.As:

	var apiErr *membersdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == membersdk.ErrorCodeInvalidToken {
		// link was used, expired or never existed
	}
*/
package membersdk
