package httpstream

import (
	"iter"
	"strings"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
)

// Record is one element of a page's results array, passed through verbatim.
type Record = map[string]interface{}

// Params are the query parameters of a page request.
type Params map[string]string

// PageToken identifies the next page to request. A nil token means the
// request is the first of the sync.
type PageToken struct {
	Page string
}

// Page is a decoded response body.
type Page struct {
	Info    *PageInfo `json:"info"`
	Results []Record  `json:"results"`
}

// PageInfo is the pagination block of a response. Only Next drives
// pagination; the other fields are informational.
type PageInfo struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// Stream describes one paginated endpoint.
type Stream interface {
	// Name is the stream name used in catalogs and record metadata
	Name() string
	// Path is appended to the base URL
	Path() string
	// PrimaryKey names the field that identifies a record
	PrimaryKey() string
	// RequestParams builds the query parameters for the next request.
	// It must not modify cfg.
	RequestParams(token *PageToken, cfg config.HTTPSourceConfig) Params
	// NextPageToken returns the cursor for the following page, or nil when
	// the body says there is none.
	NextPageToken(page *Page) *PageToken
	// ParseRecords yields the records of a page in order.
	ParseRecords(page *Page) iter.Seq[Record]
}

// HTTPStream provides the default Stream behaviour for page-numbered APIs.
// Concrete streams embed it and shadow methods to override them.
type HTTPStream struct {
	StreamName string
	StreamPath string
	Key        string
}

// Name returns the stream name
func (s HTTPStream) Name() string { return s.StreamName }

// Path returns the endpoint path relative to the base URL
func (s HTTPStream) Path() string { return s.StreamPath }

// PrimaryKey returns the primary key field
func (s HTTPStream) PrimaryKey() string { return s.Key }

// RequestParams returns {"page": token.Page} when a token is present and
// {"page": cfg.StartPage} on the first request. An empty start page sends
// no page parameter at all.
func (s HTTPStream) RequestParams(token *PageToken, cfg config.HTTPSourceConfig) Params {
	if token != nil {
		return Params{"page": token.Page}
	}
	if cfg.StartPage == "" {
		return Params{}
	}
	return Params{"page": cfg.StartPage}
}

// NextPageToken takes everything after the last '=' of info.next.
// A missing info block or a null/empty next ends pagination.
func (s HTTPStream) NextPageToken(page *Page) *PageToken {
	return NextPageFromURL(page)
}

// ParseRecords yields page.Results in order. A missing results array
// yields nothing.
func (s HTTPStream) ParseRecords(page *Page) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if page == nil {
			return
		}
		for _, r := range page.Results {
			if !yield(r) {
				return
			}
		}
	}
}

// NextPageFromURL implements the "substring after the last '='" cursor
// rule. It does not parse the URL: a next link whose page parameter is not
// the last one yields the wrong token.
func NextPageFromURL(page *Page) *PageToken {
	if page == nil || page.Info == nil || page.Info.Next == nil || *page.Info.Next == "" {
		return nil
	}
	next := *page.Info.Next
	return &PageToken{Page: next[strings.LastIndex(next, "=")+1:]}
}
