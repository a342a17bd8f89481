package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"varp/internal/types"
)

const samplePlan = `<plan>
  <metadata>
    <name>auth-refresh</name>
    <version>2</version>
  </metadata>
  <contract>
    <preconditions>
      <condition id="pre-1">
        <description>repo is clean</description>
        <verify>git diff --quiet</verify>
      </condition>
    </preconditions>
    <invariants>
      <invariant id="inv-1" critical="true">
        <description>tests stay green</description>
        <verify>npm test</verify>
      </invariant>
    </invariants>
    <postconditions>
      <condition id="post-1">
        <description>lint passes</description>
        <verify>npm run lint</verify>
      </condition>
    </postconditions>
  </contract>
  <tasks>
    <task id="T1">
      <description>rework token issuance</description>
      <action>implement</action>
      <values>safety, compatibility</values>
      <touches writes="auth" reads="core" />
      <mutexes>db</mutexes>
      <budget tokens="30000" minutes="10" />
    </task>
    <task id="T2">
      <description>cover the refresh path</description>
      <action>test</action>
      <touches reads="auth" />
    </task>
  </tasks>
</plan>`

func TestParseBytes(t *testing.T) {
	p, err := ParseBytes([]byte(samplePlan))
	require.NoError(t, err)

	assert.Equal(t, "auth-refresh", p.Metadata.Name)
	assert.Equal(t, "2", p.Metadata.Version)

	// Singular children still materialize as lists.
	require.Len(t, p.Contract.Preconditions, 1)
	require.Len(t, p.Contract.Invariants, 1)
	require.Len(t, p.Contract.Postconditions, 1)
	assert.True(t, p.Contract.Invariants[0].Critical)
	assert.Equal(t, "git diff --quiet", p.Contract.Preconditions[0].Verify)

	require.Len(t, p.Tasks, 2)
	t1 := p.Tasks[0]
	assert.Equal(t, "T1", t1.ID)
	assert.Equal(t, types.ActionImplement, t1.Action)
	assert.Equal(t, []string{"safety", "compatibility"}, t1.Values)
	assert.Equal(t, []string{"auth"}, t1.Touches.Writes)
	assert.Equal(t, []string{"core"}, t1.Touches.Reads)
	assert.Equal(t, []string{"db"}, t1.Mutexes)
	require.NotNil(t, t1.Budget)
	assert.Equal(t, 30000, t1.Budget.Tokens)
	assert.Equal(t, 10, t1.Budget.Minutes)

	t2 := p.Tasks[1]
	assert.Equal(t, types.ActionTest, t2.Action)
	assert.Nil(t, t2.Budget)
	assert.Empty(t, t2.Mutexes)
}

func TestParseBytes_Errors(t *testing.T) {
	t.Run("missing task id", func(t *testing.T) {
		_, err := ParseBytes([]byte(`<plan><tasks><task><description>x</description></task></tasks></plan>`))
		var invalid *types.PlanInvalidError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := ParseBytes([]byte(`<plan><tasks><task id="T1"><action>destroy</action></task></tasks></plan>`))
		var invalid *types.PlanInvalidError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "T1", invalid.TaskID)
	})

	t.Run("bad budget", func(t *testing.T) {
		_, err := ParseBytes([]byte(`<plan><tasks><task id="T1"><budget tokens="lots" /></task></tasks></plan>`))
		var invalid *types.PlanInvalidError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := ParseBytes([]byte(`<plan><tasks>`))
		var invalid *types.PlanInvalidError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestSplitCommaList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCommaList("a, b"))
	assert.Equal(t, []string{"a"}, splitCommaList("a,"))
	assert.Nil(t, splitCommaList(" , "))
	assert.Nil(t, splitCommaList(""))
}
