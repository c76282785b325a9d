//go:build !integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setInspectFlags(t *testing.T, flags map[string]string) {
	t.Helper()
	for name, value := range flags {
		require.NoError(t, inspectCmd.Flags().Set(name, value))
	}
	t.Cleanup(func() {
		for name := range flags {
			f := inspectCmd.Flags().Lookup(name)
			require.NotNil(t, f)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func TestInspectCmd_Summary(t *testing.T) {
	oldCfg := cfg
	cfg = testConfig()
	defer func() { cfg = oldCfg }()

	input := writeRunFixture(t)
	setInspectFlags(t, map[string]string{"input": input})

	var buf bytes.Buffer
	inspectCmd.SetOut(&buf)
	defer inspectCmd.SetOut(nil)

	inspectCmd.SetContext(context.Background())
	defer inspectCmd.SetContext(context.TODO())

	require.NoError(t, inspectCmd.RunE(inspectCmd, nil))

	out := buf.String()
	assert.Contains(t, out, "records:        3")
	assert.Contains(t, out, "area sqm mean:  100.00")
	assert.Contains(t, out, "area sqm std:   0.00")
	assert.Contains(t, out, "sample id:      b-1")
}

func TestInspectCmd_EmptyDataset(t *testing.T) {
	oldCfg := cfg
	cfg = testConfig()
	defer func() { cfg = oldCfg }()

	empty := filepath.Join(t.TempDir(), "empty.geojson")
	require.NoError(t, os.WriteFile(empty, []byte(`{"type": "FeatureCollection", "features": []}`), 0o644))
	setInspectFlags(t, map[string]string{"input": empty})

	err := inspectCmd.RunE(inspectCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable records")
}
