package retry

import (
	"errors"

	"github.com/SAP/go-hdb/driver"
)

// hanaTransientCodes are SAP HANA error codes worth another attempt.
var hanaTransientCodes = map[int]bool{
	129:  true, // transaction rolled back by an internal error
	131:  true, // transaction rolled back by lock wait timeout
	133:  true, // transaction rolled back by detected deadlock
	139:  true, // current operation cancelled by request and transaction rolled back
	613:  true, // execution aborted by timeout
	1033: true, // error while parsing protocol, connection lost
}

// HANAErrorClassifier classifies go-hdb errors.
type HANAErrorClassifier struct{}

// NewHANAErrorClassifier creates a new SAP HANA error classifier.
func NewHANAErrorClassifier() *HANAErrorClassifier {
	return &HANAErrorClassifier{}
}

// IsTransient implements sphelper.ErrorClassifier.
func (c *HANAErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var hdbErr driver.Error
	if errors.As(err, &hdbErr) {
		return hanaTransientCodes[hdbErr.Code()]
	}

	return isNetworkError(err) || hasTransientMessage(err)
}
