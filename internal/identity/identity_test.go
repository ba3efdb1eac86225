package identity

import (
	"testing"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBasic(t *testing.T) {
	id, err := Build("/p/e2e/login.spec.ts", "/p", []string{"Login", "should login"})
	require.NoError(t, err)
	assert.Equal(t, TestID("e2e/login.spec.ts::Login::should login"), id)
}

func TestBuildRejectsPathEscape(t *testing.T) {
	_, err := Build("/other/login.spec.ts", "/p/e2e", []string{"t"})
	require.Error(t, err)
	var shErr *shardctlerrors.Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, shardctlerrors.KindPathEscape, shErr.Kind)
}

func TestBuildWindowsStyleRelativeFile(t *testing.T) {
	// An already-relative, backslash-separated file normalizes to
	// forward slashes regardless of host platform.
	id, err := Build(`e2e\login.spec.ts`, "/p", []string{"t"})
	require.NoError(t, err)
	assert.Equal(t, TestID("e2e/login.spec.ts::t"), id)
}

func TestBuildParametricTitlesAreDistinct(t *testing.T) {
	ids := make(map[TestID]bool)
	for i := 1; i <= 3; i++ {
		id, err := Build("/p/a.spec.ts", "/p", []string{"suite", titleFor(i)})
		require.NoError(t, err)
		require.False(t, ids[id], "id %s should be unique", id)
		ids[id] = true
	}
	assert.Len(t, ids, 3)
}

func titleFor(i int) string {
	switch i {
	case 1:
		return "value 1 works"
	case 2:
		return "value 2 works"
	default:
		return "value 3 works"
	}
}

func TestSplitTitleContainingSeparator(t *testing.T) {
	id := TestID("f.ts::Suite::a::b::c")
	file, tail := Split(id)
	assert.Equal(t, "f.ts", file)
	assert.Equal(t, "Suite::a::b::c", tail)
}

func TestToFilterLineTitleContainingSeparator(t *testing.T) {
	id := TestID("f.ts::Suite::a::b::c")
	line, err := ToFilterLine(id, "/p", "/p")
	require.NoError(t, err)
	assert.Equal(t, "f.ts › Suite › a › b › c\n", line)
}

func TestToFilterLineMonorepoPrefix(t *testing.T) {
	id := TestID("login.spec.ts::Login::should login")
	line, err := ToFilterLine(id, "/p", "/p/src/test/e2e")
	require.NoError(t, err)
	assert.Equal(t, "src/test/e2e/login.spec.ts › Login › should login\n", line)
}

func TestToFilterLineSameRootAndTestDir(t *testing.T) {
	id := TestID("login.spec.ts::should login")
	line, err := ToFilterLine(id, "/p", "/p")
	require.NoError(t, err)
	assert.Equal(t, "login.spec.ts › should login\n", line)
}

func TestToFilterLineEscapingTestDirIsError(t *testing.T) {
	id := TestID("login.spec.ts::t")
	_, err := ToFilterLine(id, "/p/src", "/other")
	require.Error(t, err)
	var shErr *shardctlerrors.Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, shardctlerrors.KindPathEscape, shErr.Kind)
}

func TestFileHelper(t *testing.T) {
	assert.Equal(t, "e2e/login.spec.ts", File(TestID("e2e/login.spec.ts::Login::should login")))
}
