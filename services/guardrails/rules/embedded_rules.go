// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
This file bridges the build system and the runtime pattern library. It uses the
Go embed package to bake guardrail_patterns.yaml directly into the compiled
binary, so the guard rules are immutable at runtime and travel with the
executable.
*/

package rules

import (
	_ "embed"
)

// GuardrailPatterns holds the raw byte content of 'guardrail_patterns.yaml'.
//
// The variable is populated at compile time via the Go 'embed' directive.
// Baking the YAML into the binary guarantees the rule tables cannot be
// altered on the host filesystem without recompiling the application.
//
// Usage:
//
//	// Pass these bytes directly to yaml.Unmarshal
//	err := yaml.Unmarshal(rules.GuardrailPatterns, &targetStruct)
//
//go:embed guardrail_patterns.yaml
var GuardrailPatterns []byte
