package main

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milvus-io/milvus-flow/pkg/util/paramtable"
)

func TestWriteConfigs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfigs(&buf, paramtable.Get()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"key", "default", "version", "refreshable", "doc"}, rows[0])

	byKey := make(map[string][]string)
	for _, row := range rows[1:] {
		byKey[row[0]] = row
	}
	require.Contains(t, byKey, "flow.transform.maxExprDepth")
	assert.Equal(t, "1024", byKey["flow.transform.maxExprDepth"][1])
	assert.Equal(t, "true", byKey["flow.transform.maxExprDepth"][3])
	require.Contains(t, byKey, "log.level")
	assert.Equal(t, "false", byKey["log.level"][3])
}
