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

package coltest

import (
	"errors"
	"testing"

	"github.com/lakelime/lakelime"
)

func TestValidateTemplate(t *testing.T) {
	if err := ValidateTemplate(testTemplate()); err != nil {
		t.Fatal(err)
	}
	for name, mod := range map[string]func(*Template){
		"inst pH":     func(tt *Template) { tt.Instantaneous[3].PH = 6.5 },
		"inst depth":  func(tt *Template) { tt.Instantaneous[0].Depth = 2 },
		"inst column": func(tt *Template) { tt.Instantaneous[0].Column = "F" },
		"od pH":       func(tt *Template) { tt.Overdosing[7].PH = 4.5 },
		"od dose":     func(tt *Template) { tt.Overdosing[2].LimeAdded = 40 },
		"od column":   func(tt *Template) { tt.Overdosing = tt.Overdosing[:len(tt.Overdosing)-5] },
		"water":       func(tt *Template) { tt.Parameters.WaterVolL = 0 },
		"composition": func(tt *Template) { tt.Parameters.CaPct = 120 },
	} {
		tmpl := testTemplate()
		mod(tmpl)
		err := ValidateTemplate(tmpl)
		want := lakelime.ErrInvalidInput
		if name == "water" || name == "composition" {
			want = lakelime.ErrInvalidArgument
		}
		if !errors.Is(err, want) {
			t.Errorf("%s: have %v, want %v", name, err, want)
		}
	}
}

func TestParameters(t *testing.T) {
	p := Parameters{MassLimeG: 2, WaterVolL: 40, CaPct: 35, MgPct: 2}
	if c := p.LimeConcentration(); c != 50 {
		t.Errorf("lime concentration: have %g, want 50", c)
	}
	if c := p.FullyDissolved(Ca); different(c, 17.5, 1e-12) {
		t.Errorf("Ca: have %g, want 17.5", c)
	}
	if c := p.FullyDissolved(Mg); different(c, 1, 1e-12) {
		t.Errorf("Mg: have %g, want 1", c)
	}
}
