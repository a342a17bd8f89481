package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"varp/internal/types"
)

const sampleLog = `<execution-log>
  <session started="2025-11-02T10:00:00Z" mode="auto" />
  <wave id="0" status="complete">
    <task id="T1" status="COMPLETE">
      <metrics tokens="12400" minutes="8" tools="31" />
      <files-modified>
        <file>src/auth/login.ts</file>
        <file>src/auth/session.ts</file>
      </files-modified>
      <postconditions>
        <result id="post-1" passed="true" />
      </postconditions>
      <observations>token rotation required a schema tweak</observations>
    </task>
    <invariant-check id="inv-1" passed="true" />
  </wave>
  <wave id="1" status="partial">
    <task id="T2" status="BLOCKED">
      <postconditions>
        <result id="post-2" passed="false">lint failures in routes.ts</result>
      </postconditions>
    </task>
  </wave>
</execution-log>`

func TestParseExecutionLogBytes(t *testing.T) {
	log, err := ParseExecutionLogBytes([]byte(sampleLog))
	require.NoError(t, err)

	assert.Equal(t, "2025-11-02T10:00:00Z", log.Session.Started)
	assert.Equal(t, "auto", log.Session.Mode)

	require.Len(t, log.Waves, 2)
	wave0 := log.Waves[0]
	assert.Equal(t, 0, wave0.ID)
	assert.Equal(t, "complete", wave0.Status)
	require.Len(t, wave0.Tasks, 1)

	t1 := wave0.Tasks[0]
	assert.Equal(t, TaskComplete, t1.Status)
	assert.Equal(t, TaskMetrics{Tokens: 12400, Minutes: 8, Tools: 31}, t1.Metrics)
	assert.Equal(t, []string{"src/auth/login.ts", "src/auth/session.ts"}, t1.FilesModified)
	require.Len(t, t1.Postconditions, 1)
	assert.True(t, t1.Postconditions[0].Passed)
	assert.Equal(t, "token rotation required a schema tweak", t1.Observations)

	require.Len(t, wave0.InvariantChecks, 1)
	assert.True(t, wave0.InvariantChecks[0].Passed)

	t2 := log.Waves[1].Tasks[0]
	assert.Equal(t, TaskBlocked, t2.Status)
	require.Len(t, t2.Postconditions, 1)
	assert.False(t, t2.Postconditions[0].Passed)
	assert.Equal(t, "lint failures in routes.ts", t2.Postconditions[0].Detail)
}

func TestParseExecutionLogBytes_BadStatus(t *testing.T) {
	bad := `<execution-log><session started="x" mode="auto"/><wave id="0" status="x"><task id="T1" status="DONE"/></wave></execution-log>`
	_, err := ParseExecutionLogBytes([]byte(bad))
	var invalid *types.PlanInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "T1", invalid.TaskID)
}
