package awsutil

import (
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// ErrorCode returns the API error code of the error, or an empty string if the
// error did not come from an AWS API.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
