package errors

import (
	"errors"
	"fmt"
)

// UpstreamFailure carries what the marketplace API said when it rejected a call.
type UpstreamFailure struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (u *UpstreamFailure) Error() string {
	if u.Message == "" {
		return fmt.Sprintf("%s %s: status %d", u.Method, u.Path, u.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", u.Method, u.Path, u.Status, u.Message)
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamMethod  string `json:"upstream_method,omitempty"`
	UpstreamPath    string `json:"upstream_path,omitempty"`
	UpstreamStatus  int    `json:"upstream_status,omitempty"`
	UpstreamMessage string `json:"upstream_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream *UpstreamFailure
	if errors.As(err, &upstream) {
		d.UpstreamMethod = upstream.Method
		d.UpstreamPath = upstream.Path
		d.UpstreamStatus = upstream.Status
		d.UpstreamMessage = upstream.Message
	}

	return d
}
