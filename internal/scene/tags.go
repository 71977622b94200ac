/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "strings"

// Identifiers carried in Meta.ID. Decorations and bill-of-materials parts are
// recognized by these values rather than by object type.
const (
	IDHeader     = "fixed-header"
	IDDate       = "fixed-date"
	IDPageNumber = "fixed-page-number"
	IDFooterLogo = "fixed-footer-logo"
	IDStamp      = "fixed-stamp"
	IDContact    = "designer-contact"

	IDDefaultImage = "default-page-image"

	IDBOMGroup      = "bom-table-group"
	IDBOMHeaderCell = "bom-header-cell"
	IDBOMHeaderText = "bom-header-text"
	IDBOMCell       = "bom-cell"
	IDBOMText       = "bom-text"
	IDBOMTotalCell  = "bom-total-cell"
	IDBOMTotalText  = "bom-total-text"

	decorationPrefix = "fixed-"
	bomPrefix        = "bom-"
)

// IsDecorationID reports whether id names an auto-managed page decoration.
func IsDecorationID(id string) bool {
	return id == IDContact || strings.HasPrefix(id, decorationPrefix)
}

// IsBOMID reports whether id names a bill-of-materials part or group.
func IsBOMID(id string) bool { return strings.HasPrefix(id, bomPrefix) }
