/*
Copyright © 2024 the LakeLime authors.
This file is part of LakeLime.

LakeLime is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

LakeLime is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with LakeLime.  If not, see <http://www.gnu.org/licenses/>.
*/

package lakelime

import "errors"

// Error classes returned by the model. Errors are wrapped with additional
// context, so callers should check them with errors.Is.
var (
	// ErrInvalidArgument indicates an out-of-domain scalar input, for
	// example a negative lake depth or a time step outside of (0, 1).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidInput indicates a structural problem with tabular input
	// data, such as mismatched series lengths or a column test with
	// no depth range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLookup indicates that a named item (lime product, flow typology,
	// TOC band) could not be found.
	ErrLookup = errors.New("lookup failure")
)
