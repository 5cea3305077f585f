// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

// maxRetries bounds every recoverable-and-retried loop in this package (a
// zero transcript scalar, an unusable Elligator-masked point, ...), per
// spec.md §9: a hostile or broken RNG must not be able to hang the caller.
const maxRetries = 64

// retry calls f up to maxRetries times, returning the first nil-error result.
// It exists so the bound lives in one place instead of being copy-pasted at
// every call site the way the teacher's dhOprf1/generatePrivateKey do it.
func retry(f func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = f(); err == nil {
			return nil
		}
	}
	return fail(err)
}
