package errors

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	// Causes lists each error combined with multierr, flattened.
	Causes []string `json:"causes,omitempty"`
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

	if te := As(err); te != nil && te.cause != nil {
		for _, cause := range multierr.Errors(te.cause) {
			d.Causes = append(d.Causes, cause.Error())
		}
	}

	return d
}
