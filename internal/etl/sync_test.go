package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leads/internal/domain"
)

func staticSource(res HarvestResult) Source {
	return SourceFunc(func(_ context.Context, q domain.RoleQuery) HarvestResult {
		res.RoleCode = q.RoleCode
		return res
	})
}

type failingDest struct{ err error }

func (d failingDest) Write(context.Context, string, *Schema, []domain.LeadRecord) (int, error) {
	return 0, d.err
}

func pharmacyJob() *SyncJob {
	return &SyncJob{
		Role:     domain.HarvestRole{Code: "RO182", Type: "Pharmacy", FileName: "pharmacies.csv"},
		PageSize: 2,
	}
}

func TestEngine_RunSync_Success(t *testing.T) {
	dest := &CSVWriter{Dir: t.TempDir()}
	engine := &Engine{
		Source: staticSource(HarvestResult{
			Records: []Record{{Data: map[string]any{"Name": "A"}}, {Data: map[string]any{"Name": "B"}}},
			Offsets: []int{0, 2},
			State:   StateDone,
		}),
		Dest: dest,
	}

	result, err := engine.RunSync(context.Background(), pharmacyJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 2, result.RowsRead)
	assert.Equal(t, 2, result.RowsWritten)
	assert.False(t, result.Aborted)

	got, err := ReadLeadFile(dest.Path("pharmacies.csv"))
	require.NoError(t, err)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "UK", got[1].Country)
}

func TestEngine_RunSync_AbortedHarvestIsStillExported(t *testing.T) {
	dest := &CSVWriter{Dir: t.TempDir()}
	engine := &Engine{
		Source: staticSource(HarvestResult{
			Records: []Record{{Data: map[string]any{"Name": "A"}}},
			Offsets: []int{0, 1},
			State:   StateAborted,
			Err:     errors.New("http 500"),
		}),
		Dest: dest,
	}

	result, err := engine.RunSync(context.Background(), pharmacyJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.True(t, result.Aborted)
	assert.Equal(t, "http 500", result.HarvestErr)
	assert.FileExists(t, dest.Path("pharmacies.csv"))
}

func TestEngine_RunSync_InterruptedHarvestIsStillExported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dest := &CSVWriter{Dir: t.TempDir()}
	engine := &Engine{
		Source: SourceFunc(func(ctx context.Context, q domain.RoleQuery) HarvestResult {
			cancel()
			res := NewHarvestResult(q.RoleCode)
			res.Records = []Record{{Data: map[string]any{"Name": "A"}}, {Data: map[string]any{"Name": "B"}}}
			res.Offsets = []int{0, 2}
			res.State, res.Err = StateAborted, ctx.Err()
			return res
		}),
		Dest: dest,
	}

	result, err := engine.RunSync(ctx, pharmacyJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.RowsWritten)
	assert.True(t, result.Aborted)
	assert.Equal(t, context.Canceled.Error(), result.HarvestErr)

	got, err := ReadLeadFile(dest.Path("pharmacies.csv"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[1].Name)
}

func TestEngine_RunSync_Empty(t *testing.T) {
	dest := &CSVWriter{Dir: t.TempDir()}
	engine := &Engine{Source: staticSource(NewHarvestResult("")), Dest: dest}

	result, err := engine.RunSync(context.Background(), pharmacyJob())
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, result.Status)
	assert.NoFileExists(t, dest.Path("pharmacies.csv"))
}

func TestEngine_RunSync_WriteFailureIsFatal(t *testing.T) {
	boom := errors.New("disk full")
	engine := &Engine{
		Source: staticSource(HarvestResult{Records: []Record{{}}, State: StateDone}),
		Dest:   failingDest{err: boom},
	}

	result, err := engine.RunSync(context.Background(), pharmacyJob())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Error, "disk full")
}

func TestSyncJob_Query(t *testing.T) {
	q := pharmacyJob().Query()
	assert.Equal(t, domain.RoleQuery{RoleCode: "RO182", PageSize: 2, Status: "Active"}, q)
}
