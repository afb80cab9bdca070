package examples_test

import (
	"path/filepath"
	"testing"

	"github.com/supporttools/service-doctor/pkg/types"
)

// TestExampleConfigs validates all example configuration files
// This ensures that:
// 1. All example configs can be loaded without errors
// 2. All configs pass validation
// 3. Default values are applied correctly
func TestExampleConfigs(t *testing.T) {
	testCases := []struct {
		name        string
		filename    string
		description string
	}{
		{
			name:        "Minimal",
			filename:    "minimal.yaml",
			description: "Bare minimum configuration",
		},
		{
			name:        "Full",
			filename:    "full.yaml",
			description: "Every tunable with its default value",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := types.LoadConfig(filepath.Join(".", tc.filename))
			if err != nil {
				t.Fatalf("failed to load %s (%s): %v", tc.filename, tc.description, err)
			}

			if err := config.Validate(); err != nil {
				t.Errorf("%s failed validation: %v", tc.filename, err)
			}

			// Defaults must survive partial configs.
			if config.Output.ScriptName == "" || config.Output.GuideName == "" {
				t.Errorf("%s: artifact names not defaulted", tc.filename)
			}
			if config.Timeouts.HTTP == 0 {
				t.Errorf("%s: timeouts not defaulted", tc.filename)
			}
		})
	}
}
