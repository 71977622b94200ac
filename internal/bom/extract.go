/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bom

import (
	"slices"
	"strconv"
	"strings"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

// ExtractRows reconstructs table rows from laid-out text nodes, loose or
// grouped. Rows come back in BOMRow order.
func ExtractRows(objs []*scene.Object) []domain.Row {
	cells := map[int]map[int]string{}
	for _, o := range objs {
		o.Walk(func(n *scene.Object) {
			if n.Data.ID != scene.IDBOMText || n.Data.BOMRow <= 0 || !n.IsText() {
				return
			}
			if cells[n.Data.BOMRow] == nil {
				cells[n.Data.BOMRow] = map[int]string{}
			}
			cells[n.Data.BOMRow][n.Data.BOMCol] = n.Text
		})
	}
	keys := make([]int, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	rows := make([]domain.Row, 0, len(keys))
	for _, k := range keys {
		c := cells[k]
		rows = append(rows, domain.Row{
			Part:        c[ColPart],
			Description: strings.Join(strings.Fields(c[ColDescription]), " "),
			UnitPrice:   parseAmount(c[ColUnitPrice]),
			Qty:         int(parseAmount(c[ColQty])),
			Total:       parseAmount(c[ColTotal]),
		})
	}
	return rows
}

// parseAmount reverses FormatMoney and FormatQty. Unparseable input yields 0.
func parseAmount(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ExtractGrandTotal returns the totals-row amount, if present.
func ExtractGrandTotal(objs []*scene.Object) (float64, bool) {
	var v float64
	ok := false
	for _, o := range objs {
		o.Walk(func(n *scene.Object) {
			if n.Data.ID == scene.IDBOMTotalText && n.Data.BOMCol == ColTotal && n.IsText() {
				v, ok = parseAmount(n.Text), true
			}
		})
	}
	return v, ok
}
