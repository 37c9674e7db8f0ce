package directory

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/smithy-go"
)

// ErrThrottled is wrapped into errors for requests that were still throttled
// once retries ran out.
var ErrThrottled = errors.New("AWS request throttled")

var throttleCodes = map[string]struct{}{
	"Throttling":                             {},
	"ThrottlingException":                    {},
	"ThrottledException":                     {},
	"RequestLimitExceeded":                   {},
	"RequestThrottled":                       {},
	"RequestThrottledException":              {},
	"TooManyRequestsException":               {},
	"ProvisionedThroughputExceededException": {},
}

// isThrottle reports whether err is a throttling response from the
// Organizations API.
func isThrottle(err error) bool {
	var tooMany *types.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := throttleCodes[apiErr.ErrorCode()]
		return ok
	}

	return false
}

// wrapAWSError wraps AWS SDK errors, identifying throttling errors.
func wrapAWSError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if isThrottle(err) {
		return fmt.Errorf("%s: %w: %v", msg, ErrThrottled, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

var errEmptyResponse = errors.New("empty response")
