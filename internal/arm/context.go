package arm

// Context carries the process-wide ARM coordinates every tool call needs.
// It is constructed once at startup and never mutated.
type Context struct {
	SubscriptionID string
	ResourceGroup  string
	Location       string
}

// BaseURL returns the fixed ARM management endpoint.
func (Context) BaseURL() string {
	return "https://management.azure.com"
}
