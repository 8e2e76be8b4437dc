package observability

import (
	"go.opentelemetry.io/otel/attribute"
)

const StatusKey attribute.Key = "status"

/*
ErrStatus returns attribute named "status" with value "ok" if the param
err is nil and "err" when it is not.
*/
func ErrStatus(err error) attribute.KeyValue {
	status := "ok"
	if err != nil {
		status = "err"
	}
	return StatusKey.String(status)
}

func Status(status string) attribute.KeyValue {
	return StatusKey.String(status)
}

func Height(height uint64) attribute.KeyValue {
	return attribute.Int64("height", int64(height)) /* #nosec G115 height is far from int64 max value */
}
