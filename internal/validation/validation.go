// go-pn532-rhizome
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pn532-rhizome.
//
// go-pn532-rhizome is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pn532-rhizome is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pn532-rhizome; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package validation

import (
	"github.com/go-playground/validator/v10"

	"github.com/ZaparooProject/go-pn532-rhizome/internal/validation/validators"
)

// New returns a validator with the project's custom tags registered
func New() (*validator.Validate, error) {
	validate := validator.New()
	if err := validate.RegisterValidation("msgtemplate", validators.ValidateMessageTemplate); err != nil {
		return nil, err
	}
	return validate, nil
}

// MustNew is New for package-level defaults
func MustNew() *validator.Validate {
	validate, err := New()
	if err != nil {
		panic(err)
	}
	return validate
}
