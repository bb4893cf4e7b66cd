// Package upstream talks to the video analytics API.
//
// Client wraps bearer-authenticated GET requests and turns every failure into
// one of four sentinel errors (ErrTransport, ErrStatus, ErrDecode, ErrNoData)
// instead of panicking or returning partial data. The typed endpoint methods
// decode the {data: ...} envelope into explicit structs whose zero values are
// the defaults the snapshot stores for missing fields. ListAllVideos walks the
// paginated listing.
package upstream
