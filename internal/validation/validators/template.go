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

package validators

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateMessageTemplate accepts a message template with at most one %d verb
// and no other formatting verbs. A literal percent sign is written as %%.
func ValidateMessageTemplate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	counters, ok := CounterVerbs(value)
	return ok && counters <= 1 && strings.TrimSpace(value) != ""
}

// CounterVerbs counts the unescaped %d verbs in template.
// ok is false when template holds any other verb or a dangling %.
func CounterVerbs(template string) (counters int, ok bool) {
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 >= len(template) {
			return counters, false
		}
		switch template[i+1] {
		case '%':
		case 'd':
			counters++
		default:
			return counters, false
		}
		i++
	}
	return counters, true
}
