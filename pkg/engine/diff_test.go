package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/remote"
)

// fakeEntity is a minimal Entity for classification tests.
type fakeEntity struct {
	key    string
	fields map[string]string
}

func (f fakeEntity) EntityType() entities.Type { return entities.TypeStudent }
func (f fakeEntity) Key() string               { return f.key }
func (f fakeEntity) Fields() map[string]string { return f.fields }

func local(key string, fields map[string]string) entities.Entity {
	if fields == nil {
		fields = map[string]string{}
	}
	fields["student_id"] = key
	return fakeEntity{key: key, fields: fields}
}

func remoteRecord(key string, fields map[string]string) remote.Record {
	if fields == nil {
		fields = map[string]string{}
	}
	fields["student_id"] = key
	return remote.Record{URL: "mem://students/" + key, Fields: fields}
}

func TestClassifyPartitionsByKey(t *testing.T) {
	e := New(remote.NewMemoryStore())

	locals := []entities.Entity{
		local("A", map[string]string{"grade": "9"}),
		local("B", map[string]string{"grade": "10"}),
	}
	existing := remote.Records{
		"A": remoteRecord("A", map[string]string{"grade": "9"}),
		"C": remoteRecord("C", map[string]string{"grade": "11"}),
	}

	diff := e.Classify(locals, existing, PolicyDelete)

	require.Len(t, diff.Creates, 1)
	assert.Equal(t, "B", diff.Creates[0].Key)
	require.Len(t, diff.Removals, 1)
	assert.Equal(t, "C", diff.Removals[0].Key)
	assert.Equal(t, OpDelete, diff.Removals[0].Operation)
	assert.Empty(t, diff.Updates)
	assert.Equal(t, 1, diff.Unchanged)
}

func TestClassifyUpdatesOnAnyFieldChange(t *testing.T) {
	e := New(remote.NewMemoryStore())

	locals := []entities.Entity{local("A", map[string]string{"grade": "10"})}
	existing := remote.Records{"A": remoteRecord("A", map[string]string{"grade": "9"})}

	diff := e.Classify(locals, existing, PolicyDelete)

	require.Len(t, diff.Updates, 1)
	assert.Equal(t, OpUpdate, diff.Updates[0].Operation)
	assert.Equal(t, "10", diff.Updates[0].Fields["grade"])
	assert.Equal(t, existing["A"].URL, diff.Updates[0].Remote.URL)
}

func TestClassifyIgnoresRemoteOnlyFields(t *testing.T) {
	e := New(remote.NewMemoryStore())

	locals := []entities.Entity{local("A", map[string]string{"grade": "9"})}
	existing := remote.Records{
		"A": remoteRecord("A", map[string]string{"grade": "9", "url": "x", "server_side": "y"}),
	}

	diff := e.Classify(locals, existing, PolicyDelete)

	assert.True(t, diff.Empty())
	assert.Equal(t, 1, diff.Unchanged)
}

func TestClassifyRetainLeavesRemoteOnlyRecords(t *testing.T) {
	e := New(remote.NewMemoryStore())

	existing := remote.Records{"GONE": remoteRecord("GONE", nil)}

	diff := e.Classify(nil, existing, PolicyRetain)

	assert.Empty(t, diff.Removals)
	assert.Equal(t, 1, diff.Unchanged)
}

func TestClassifyDeactivateMarksRemoteOnlyInactive(t *testing.T) {
	e := New(remote.NewMemoryStore())

	existing := remote.Records{
		"GONE": remoteRecord("GONE", map[string]string{"active": "true", "grade": "12"}),
	}

	diff := e.Classify(nil, existing, PolicyDeactivate)

	require.Len(t, diff.Removals, 1)
	change := diff.Removals[0]
	assert.Equal(t, OpDeactivate, change.Operation)
	assert.Equal(t, "false", change.Fields["active"])
	assert.Equal(t, "12", change.Fields["grade"])
}

func TestClassifyDeactivateIsIdempotent(t *testing.T) {
	e := New(remote.NewMemoryStore())

	existing := remote.Records{
		"GONE": remoteRecord("GONE", map[string]string{"active": "false"}),
	}

	diff := e.Classify(nil, existing, PolicyDeactivate)

	assert.True(t, diff.Empty())
	assert.Equal(t, 1, diff.Unchanged)
}

func TestClassifyOrdersChangesByKey(t *testing.T) {
	e := New(remote.NewMemoryStore())

	locals := []entities.Entity{
		local("C", nil),
		local("A", nil),
		local("B", nil),
	}

	diff := e.Classify(locals, remote.Records{}, PolicyDelete)

	require.Len(t, diff.Creates, 3)
	assert.Equal(t, "A", diff.Creates[0].Key)
	assert.Equal(t, "B", diff.Creates[1].Key)
	assert.Equal(t, "C", diff.Creates[2].Key)
}

func TestParseDeletePolicy(t *testing.T) {
	for _, valid := range []string{"delete", "deactivate", "retain"} {
		policy, ok := ParseDeletePolicy(valid)
		assert.True(t, ok)
		assert.Equal(t, DeletePolicy(valid), policy)
	}

	_, ok := ParseDeletePolicy("drop")
	assert.False(t, ok)
}
