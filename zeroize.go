// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

// zero overwrites b with zero bytes in place. Every secret local and every
// secret record field must be passed through zero on every exit path,
// successful or not (spec.md §8's zeroization property and §9's note that
// the source overlaps its scratch buffers specifically to shrink this
// surface; we keep separate locals but zero all of them instead).
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
