// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package denomplan

import "errors"

var (
	// ErrCannotPrepare indicates PrepareDenominate ended up with no
	// accepted inputs.
	ErrCannotPrepare = errors.New("denomplan: could not prepare any entry inputs")

	// ErrInsufficientFunds indicates the wallet lacks enough mixable
	// balance to pursue the requested denomination.
	ErrInsufficientFunds = errors.New("denomplan: not enough funds")

	// ErrNoCandidateGroup indicates no coin group qualified for
	// collateral or denomination creation.
	ErrNoCandidateGroup = errors.New("denomplan: no candidate coin group")
)
