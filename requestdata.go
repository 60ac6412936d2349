package formflow

import (
	"net/url"
	"sort"
)

// RequestData is a read-only, insertion-ordered view of the key/value data
// derived from a request, built from its route values merged with its query
// string.
//
// A key may hold multiple values; the order of values within a key is
// preserved.
type RequestData struct {
	pairs []requestPair
	index map[string]int
}

type requestPair struct {
	key    string
	values []string
}

// NewRequestData returns an empty RequestData.
func NewRequestData() *RequestData {
	return &RequestData{
		index: map[string]int{},
	}
}

// ParseRequestData builds a RequestData from a raw query string, preserving
// the order in which keys first appear.
func ParseRequestData(rawQuery string) (*RequestData, error) {
	d := NewRequestData()

	for rawQuery != "" {
		var component string
		component, rawQuery = cutComponent(rawQuery)
		if component == "" {
			continue
		}

		k, v := cutPair(component)

		k, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}

		v, err = url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}

		d.Add(k, v)
	}

	return d, nil
}

// Add appends values under the given key, merging with any values already
// present for that key.
func (d *RequestData) Add(key string, values ...string) {
	if i, ok := d.index[key]; ok {
		d.pairs[i].values = append(d.pairs[i].values, values...)
		return
	}

	if d.index == nil {
		d.index = map[string]int{}
	}

	d.index[key] = len(d.pairs)
	d.pairs = append(d.pairs, requestPair{key, values})
}

// Set replaces any values already present for the given key. The key retains
// its original position if it already exists.
func (d *RequestData) Set(key string, values ...string) {
	if i, ok := d.index[key]; ok {
		d.pairs[i].values = values
		return
	}

	d.Add(key, values...)
}

// Get returns the values stored under the given key.
//
// The returned slice must not be modified.
func (d *RequestData) Get(key string) ([]string, bool) {
	if d == nil {
		return nil, false
	}

	i, ok := d.index[key]
	if !ok {
		return nil, false
	}

	return d.pairs[i].values, true
}

// MergeRouteValues overlays route path values onto the request data.
//
// Route values take precedence over query values on key collision. New keys
// are appended in lexical order, as route value maps carry no ordering of
// their own.
func (d *RequestData) MergeRouteValues(route map[string]string) {
	keys := make([]string, 0, len(route))
	for k := range route {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		d.Set(k, route[k])
	}
}

// cutComponent splits off the leading query component, up to the next '&'.
func cutComponent(s string) (component, rest string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '&' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// cutPair splits a query component into its key and value at the first '='.
func cutPair(s string) (k, v string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}
