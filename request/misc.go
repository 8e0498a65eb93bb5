// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"net/url"
)

const badBodyTypeMsg = "mhttp/request: invalid type (for body use nil, " +
	"url.Values, map[string]string, or map[string][]string)"

// Values converts a generic payload parameter to url.Values for use as
// a request body.
//
// The body parameter may be nil, or it may be a url.Values,
// map[string]string, or map[string][]string. The conversion logic is:
//
// • If body is nil, a nil url.Values and no error is returned.
//
// • If body is a url.Values or map[string][]string, a copy of body and
// no error is returned.
//
// • If body is a map[string]string, a url.Values holding one value per
// key, and no error, is returned.
//
// • If body is any other type than those listed above, a nil url.Values
// and an error is returned.
func Values(body interface{}) (url.Values, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return copyValues(x), nil
	case map[string][]string:
		return copyValues(x), nil
	case map[string]string:
		v := make(url.Values, len(x))
		for key, value := range x {
			v.Set(key, value)
		}
		return v, nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

func copyValues(src map[string][]string) url.Values {
	if src == nil {
		return nil
	}
	dst := make(url.Values, len(src))
	for key, values := range src {
		dst[key] = append([]string(nil), values...)
	}
	return dst
}
