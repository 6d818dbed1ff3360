package httpstream

import (
	"io"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
)

// DecodePage decodes a response body. Missing info or results fields are
// not errors; a body that is not a JSON object is.
func DecodePage(r io.Reader) (*Page, error) {
	var page Page
	if err := jsonpool.Decode(r, &page); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "response body is not a valid page")
	}
	return &page, nil
}
