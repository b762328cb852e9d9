package keypager

import "net/url"

// PageURL returns base with the query parameter param set to value, keeping
// every other query parameter. An empty value removes the parameter, which
// is how a link to the first page is built.
//
// Usage:
//
//	next := keypager.PageURL(r.URL, "startToken", page.NextToken)
func PageURL(base *url.URL, param, value string) string {
	if base == nil {
		base = &url.URL{}
	}

	u := *base
	query := u.Query()
	if value == "" {
		query.Del(param)
	} else {
		query.Set(param, value)
	}

	u.RawQuery = query.Encode()

	return u.String()
}
