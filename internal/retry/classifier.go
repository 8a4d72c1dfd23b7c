package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// transientMessages are lower-case fragments of driver and network errors
// that indicate the server may accept a later attempt.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"connection pool exhausted",
}

// ForDriver returns the classifier for a driver name. Unknown drivers get a
// classifier that only recognises network failures.
func ForDriver(driver string) sphelper.ErrorClassifier {
	switch driver {
	case sphelper.DriverPostgres:
		return NewPostgreSQLErrorClassifier()
	case sphelper.DriverSQLServer:
		return NewSQLServerErrorClassifier()
	case sphelper.DriverHANA:
		return NewHANAErrorClassifier()
	default:
		return NetworkErrorClassifier{}
	}
}

// NetworkErrorClassifier treats only network-level failures as transient.
type NetworkErrorClassifier struct{}

// IsTransient implements sphelper.ErrorClassifier.
func (NetworkErrorClassifier) IsTransient(err error) bool {
	return err != nil && (isNetworkError(err) || hasTransientMessage(err))
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	if opErr.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
		if errors.Is(opErr.Err, errno) {
			return true
		}
	}
	return false
}

func hasTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, fragment := range transientMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
