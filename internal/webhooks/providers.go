package webhooks

// The fixed allow-list of payment providers that may call the webhook
// endpoint, with the header each one signs its deliveries under.
var providerSignatureHeaders = map[string]string{
	"stripe": "Stripe-Signature",
	"iyzico": "X-Iyz-Signature",
	"paytr":  "X-PayTR-Signature",
}

func KnownProvider(name string) bool {
	_, ok := providerSignatureHeaders[name]
	return ok
}

func SignatureHeader(name string) string {
	return providerSignatureHeaders[name]
}
