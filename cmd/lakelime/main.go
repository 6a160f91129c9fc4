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

// Command lakelime is a command-line interface for the LakeLime lake
// liming model.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lakelime/lakelime/lakeutil"
)

func main() {
	// Configuration can also come from LAKELIME_ variables in a .env file.
	_ = godotenv.Load()

	if err := lakeutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
