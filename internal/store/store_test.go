package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/datatypes"
)

// The hand-written SQL is string-compared here so an accidental edit to a
// column list or conflict clause shows up as a test diff, without needing a
// live database.
func TestScriptDefinitionSQLStable(t *testing.T) {
	assert.Contains(t, insertScriptDefinitionSQL, "INSERT INTO script_definitions")
	assert.Contains(t, insertScriptDefinitionSQL, ":ops_json")
	assert.Contains(t, getScriptDefinitionSQL, "FROM script_definitions WHERE id = $1")

	for _, col := range []string{"bounds_h", "bounds_k", "bounds_l", "material_e1", "material_e2"} {
		assert.Contains(t, insertScriptDefinitionSQL, col)
		assert.Contains(t, getScriptDefinitionSQL, col)
	}
}

func TestMaterialPresetSQLStable(t *testing.T) {
	assert.Equal(t, "SELECT name, e1, e2, created_at FROM material_presets ORDER BY name", listMaterialPresetsSQL)
	assert.Contains(t, upsertMaterialPresetSQL, "ON CONFLICT (name) DO UPDATE")
}

func TestInsertAndGetColumnListsAgree(t *testing.T) {
	// Every column the INSERT writes must be read back by the SELECT, so a
	// round-tripped ScriptDefinition loses nothing.
	cols := []string{"id", "name", "basis", "bounds_h", "bounds_k", "bounds_l", "material_e1", "material_e2", "ops_json", "created_at"}
	for _, col := range cols {
		require.True(t, strings.Contains(getScriptDefinitionSQL, col), "SELECT is missing column %s", col)
	}
}

func TestReconstructionSummaryJSONRoundTrip(t *testing.T) {
	summary := ReconstructionSummary{
		RemovalRounds:   3,
		CollisionRounds: 1,
		DimerBonds:      12,
		PassivatorAtoms: 48,
	}
	wrapped := datatypes.NewJSONType(summary)

	raw, err := wrapped.MarshalJSON()
	require.NoError(t, err)

	var decoded datatypes.JSONType[ReconstructionSummary]
	require.NoError(t, decoded.UnmarshalJSON(raw))
	assert.Equal(t, summary, decoded.Data())
}
