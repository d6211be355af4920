package fetcher

// ConstError mirrors flatstate.ConstError: immutable sentinel errors
// comparable with errors.Is.
type ConstError string

func (e ConstError) Error() string { return string(e) }

// RedirectError is returned by the HTTP fetch primitive when a response
// chain exceeds MaxRedirects manual hops.
const RedirectError = ConstError("too many redirects")

// ErrInterrupted is an internal sentinel distinguishing "cancelled
// mid-retry" from "request failed": it propagates up through a worker's
// retry loop and causes that worker (and, once every worker has returned
// it, the top-level Run call) to exit gracefully rather than reporting a
// failure to the caller.
const ErrInterrupted = ConstError("fetcher: interrupted by cancellation")
