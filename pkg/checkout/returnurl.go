package checkout

import (
	"net/url"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

const (
	queryParamSessionID = "session_id"
	queryParamPayment   = "payment"
	paymentFlagSuccess  = "success"
)

// FromReturnURL derives a CheckoutSession from the query parameters of
// the URL the payment provider redirected back to. The second return
// value is true only when the URL carries both a session identifier and
// the success flag, i.e. when reconciliation should begin.
func FromReturnURL(raw string) (allersafe.CheckoutSession, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return allersafe.CheckoutSession{}, false
	}
	q := u.Query()
	session := allersafe.CheckoutSession{
		SessionID:       q.Get(queryParamSessionID),
		ReturnedSuccess: q.Get(queryParamPayment) == paymentFlagSuccess,
	}
	return session, session.SessionID != "" && session.ReturnedSuccess
}

// StripCheckoutParams removes the checkout query parameters from a URL
// string, leaving any unrelated parameters intact. Host apps wrap this
// in a URLCleaner bound to their address bar or router.
func StripCheckoutParams(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Del(queryParamSessionID)
	q.Del(queryParamPayment)
	u.RawQuery = q.Encode()
	return u.String()
}
