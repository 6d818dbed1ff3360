// Package httpstream implements page-numbered HTTP streams: an API that
// returns {"info": {"next": <url>|null}, "results": [...]} and is walked by
// feeding the page number found in info.next back as ?page=<n>.
//
// A Stream describes one endpoint. HTTPStream supplies the default request
// builder, cursor extractor and record decoder, and concrete streams embed
// it and override what differs:
//
//	type Characters struct{ httpstream.HTTPStream }
//
//	func NewCharacters() *Characters {
//		return &Characters{httpstream.HTTPStream{StreamName: "characters", StreamPath: "character", Key: "id"}}
//	}
//
// The Driver walks a Stream one page at a time. Page N is fully handed to
// the consumer before page N+1 is requested, and the walk stops when the
// cursor extractor returns nil:
//
//	driver := httpstream.NewDriver(client, cfg)
//	for rec, err := range driver.Records(ctx, NewCharacters()) {
//		if err != nil {
//			return err
//		}
//		handle(rec)
//	}
//
// Breaking out of the loop stops the walk without further requests.
// Failed requests are not retried.
//
// The Prober answers "is the API reachable" with a single GET of the base
// URL and reports the outcome as (ok, message) instead of an error.
package httpstream
