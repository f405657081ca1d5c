// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package execution

import "strings"

// ruleFileExtensions are the suffixes that mark RuleContent as a path.
var ruleFileExtensions = []string{".js", ".go"}

// RuleName derives the display name of a rule from its content.
//
// "rules/interface-rule.js" becomes "interface-rule". Content without a
// "/" or without a recognised extension is returned verbatim.
func RuleName(ruleContent string) string {
	slash := strings.LastIndex(ruleContent, "/")
	if slash < 0 {
		return ruleContent
	}
	for _, ext := range ruleFileExtensions {
		if strings.HasSuffix(ruleContent, ext) {
			return strings.TrimSuffix(ruleContent[slash+1:], ext)
		}
	}
	return ruleContent
}
