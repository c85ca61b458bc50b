// Package apierr implements the single error taxonomy shared by the
// request engine, the authentication pipeline, and the stream resolver:
// NoError | NetworkError(kind, msg) | ParseError | UnknownContentError |
// RedirectLimit.
package apierr

// Category is the union of terminal error kinds a Request can surface.
type Category string

const (
	NoError             Category = "no_error"
	NetworkError        Category = "network_error"
	ParseError          Category = "parse_error"
	UnknownContentError Category = "unknown_content_error"
	RedirectLimit       Category = "redirect_limit"
)

// NetworkKind narrows a NetworkError the way the underlying transport
// reported it, so callers can distinguish "no internet" from "server
// rejected the request".
type NetworkKind string

const (
	KindNone                   NetworkKind = ""
	KindConnection             NetworkKind = "connection"
	KindTimeout                NetworkKind = "timeout"
	KindTLS                    NetworkKind = "tls"
	KindHostNotFound           NetworkKind = "host_not_found"
	KindProxy                  NetworkKind = "proxy"
	KindContentAccessDenied    NetworkKind = "content_access_denied"
	KindContentNotFound        NetworkKind = "content_not_found"
	KindAuthenticationRequired NetworkKind = "authentication_required"
	KindHTTP                   NetworkKind = "http"
)

// Error is the single error type surfaced across the library. It carries
// the terminal Category, a refining Kind for NetworkError, and wraps the
// underlying cause.
type Error struct {
	Category Category
	Kind     NetworkKind
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Category)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap builds an *Error for category with err as the cause.
func Wrap(category Category, err error) *Error {
	if err == nil {
		return &Error{Category: category}
	}
	return &Error{Category: category, Err: err, Message: err.Error()}
}

// WrapNetwork builds a NetworkError carrying the transport kind.
func WrapNetwork(kind NetworkKind, err error) *Error {
	e := Wrap(NetworkError, err)
	e.Kind = kind
	return e
}

// ParseFailure is the fixed message spec.md §4.1/§7 requires on JSON/XML
// parse failure.
func ParseFailure() *Error {
	return &Error{Category: ParseError, Message: "Unable to parse response"}
}

// Redirects is the fixed error for exceeding MAX_REDIRECTS.
func Redirects() *Error {
	return &Error{Category: RedirectLimit, Message: "exceeded maximum number of redirects"}
}

// UnknownContent wraps a server-reported error string (e.g. device-code
// polling errors other than authorization_pending/slow_down).
func UnknownContent(message string) *Error {
	return &Error{Category: UnknownContentError, Message: message}
}

// CategoryOf extracts the Category from err, or NoError if err is nil.
// A non-nil err that isn't ours is reported as UnknownContentError rather
// than silently treated as success.
func CategoryOf(err error) Category {
	if err == nil {
		return NoError
	}
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return UnknownContentError
}

// ExitCode maps a Category to a process exit code for CLI consumers.
func ExitCode(err error) int {
	switch CategoryOf(err) {
	case NoError:
		return 0
	case NetworkError:
		return 2
	case ParseError:
		return 3
	case RedirectLimit:
		return 4
	case UnknownContentError:
		return 5
	default:
		return 1
	}
}
