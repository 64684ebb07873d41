// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package lattice

import "errors"

// Error classes surfaced by every operator entry point. Callers test them with
// errors.Is; the wrapped message names the offending argument.
var (
	// ErrInvalidArgument reports a contract violation: mismatched shapes,
	// parities or buffer sizes, a missing auxiliary field, or an unsupported
	// combination of modifiers.
	ErrInvalidArgument = errors.New("lattice: invalid argument")

	// ErrTransport reports a failed halo exchange. The call that observed it
	// produced no usable output.
	ErrTransport = errors.New("lattice: halo transport failure")

	// ErrParameter reports an unusable numerical parameter, such as a Mobius
	// coefficient array whose length differs from the fifth-dimension extent.
	ErrParameter = errors.New("lattice: invalid numerical parameter")
)
