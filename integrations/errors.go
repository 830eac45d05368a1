package integrations

import "fmt"

// RemoteError is returned for any non-2xx response from Shortcut or GitHub.
type RemoteError struct {
	Service    string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s API returned non-2xx status: %s %s: %d, body: %s", e.Service, e.Method, e.URL, e.StatusCode, e.Body)
}
