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

package lakeutil

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/lakelime/lakelime"
	"github.com/spf13/cast"
)

// Product database field names.
const (
	descriptionField = "Description"
	monthField       = "Month"
)

// idField and odField return the names of the product database fields
// holding the i'th instantaneous dissolution value and overdosing factor.
func idField(i int) string { return fmt.Sprintf("IDph%.0f", 10*lakelime.IDPH[i]) }
func odField(i int) string { return fmt.Sprintf("OD%.0f", lakelime.ODDoses[i]) }

// productFromFields builds a lime product from named numeric fields.
func productFromFields(name string, get func(field string) (float64, error)) (lakelime.LimeProduct, error) {
	p := lakelime.LimeProduct{Name: name}
	var err error
	for _, f := range []struct {
		field string
		dst   *float64
	}{
		{"CaPct", &p.CaPct},
		{"MgPct", &p.MgPct},
		{"DryFac", &p.DryFactor},
		{"ColDepth", &p.ColumnDepth},
	} {
		if *f.dst, err = get(f.field); err != nil {
			return p, err
		}
	}
	for i := range lakelime.IDPH {
		if p.ID[i], err = get(idField(i)); err != nil {
			return p, err
		}
		if p.OD[i], err = get(odField(i)); err != nil {
			return p, err
		}
	}
	return p, nil
}

// productFields is the inverse of productFromFields.
func productFields(p *lakelime.LimeProduct) map[string]interface{} {
	o := map[string]interface{}{
		"CaPct":    p.CaPct,
		"MgPct":    p.MgPct,
		"DryFac":   p.DryFactor,
		"ColDepth": p.ColumnDepth,
	}
	for i := range lakelime.IDPH {
		o[idField(i)] = p.ID[i]
		o[odField(i)] = p.OD[i]
	}
	return o
}

// tomlProductFile is the layout of a TOML product database, with one
// [products."name"] table per product.
type tomlProductFile struct {
	Products map[string]map[string]interface{} `toml:"products"`
}

// TOMLProducts is a ProductRepository that reads a TOML file.
type TOMLProducts struct {
	File string
}

func (tp *TOMLProducts) read() (*tomlProductFile, error) {
	var f tomlProductFile
	if _, err := toml.DecodeFile(tp.File, &f); err != nil {
		return nil, fmt.Errorf("lakelime: reading product database %s: %v", tp.File, err)
	}
	return &f, nil
}

// Load implements lakelime.ProductRepository.
func (tp *TOMLProducts) Load() (*lakelime.ProductCurveStore, error) {
	f, err := tp.read()
	if err != nil {
		return nil, err
	}
	if len(f.Products) == 0 {
		return nil, fmt.Errorf("lakelime: %s contains no products: %w", tp.File, lakelime.ErrInvalidInput)
	}
	products := make([]lakelime.LimeProduct, 0, len(f.Products))
	for name, fields := range f.Products {
		p, err := productFromFields(name, func(field string) (float64, error) {
			v, ok := fields[field]
			if !ok {
				return 0, fmt.Errorf("lakelime: %s: product %q has no field %s: %w",
					tp.File, name, field, lakelime.ErrInvalidInput)
			}
			x, err := cast.ToFloat64E(v)
			if err != nil {
				return 0, fmt.Errorf("lakelime: %s: product %q: invalid %s: %v: %w",
					tp.File, name, field, err, lakelime.ErrInvalidInput)
			}
			return x, nil
		})
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return lakelime.NewProductCurveStore(products...)
}

// Save adds p to the database file, replacing any product with the same
// name. The file is created if it does not exist.
func (tp *TOMLProducts) Save(p *lakelime.LimeProduct, description string) error {
	f := &tomlProductFile{}
	if _, err := os.Stat(tp.File); err == nil {
		if f, err = tp.read(); err != nil {
			return err
		}
	}
	if f.Products == nil {
		f.Products = make(map[string]map[string]interface{})
	}
	fields := productFields(p)
	if description != "" {
		fields[descriptionField] = description
	}
	f.Products[p.Name] = fields

	w, err := os.Create(tp.File)
	if err != nil {
		return fmt.Errorf("lakelime: writing product database: %v", err)
	}
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		w.Close()
		return fmt.Errorf("lakelime: writing product database: %v", err)
	}
	return w.Close()
}
